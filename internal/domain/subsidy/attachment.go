package subsidy

import (
	"bytes"
	"encoding/json"
)

// Category is one of the three fixed attachment groups of a subsidy.
type Category string

// Attachment categories, named after their upstream field.
const (
	CategoryGuidelines Category = "application_guidelines"
	CategoryOutline    Category = "outline_of_grant"
	CategoryForm       Category = "application_form"
)

// Categories lists every category in the order attachments are processed.
var Categories = []Category{CategoryGuidelines, CategoryOutline, CategoryForm}

// Label is the human-readable name used to build fallback file names.
func (c Category) Label() string {
	switch c {
	case CategoryGuidelines:
		return "申請ガイドライン"
	case CategoryOutline:
		return "補助金概要"
	case CategoryForm:
		return "申請書"
	default:
		return string(c)
	}
}

// Attachment is one base64-encoded file embedded in a detail response.
// Data is nil when the payload field is missing altogether.
type Attachment struct {
	Name string
	Data *string
}

// UnmarshalJSON accepts both {name, data} and {file_name, file_data}.
// Non-object items decode to an empty attachment, which is skipped later.
func (a *Attachment) UnmarshalJSON(b []byte) error {
	*a = Attachment{}
	if !bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
		return nil
	}
	var raw struct {
		Name     string  `json:"name"`
		FileName string  `json:"file_name"`
		Data     *string `json:"data"`
		FileData *string `json:"file_data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil //nolint:nilerr // malformed items are skipped, not fatal
	}

	a.Name = raw.Name
	if a.Name == "" {
		a.Name = raw.FileName
	}

	switch {
	case raw.Data != nil && *raw.Data != "":
		a.Data = raw.Data
	case raw.FileData != nil:
		a.Data = raw.FileData
	default:
		a.Data = raw.Data
	}
	return nil
}
