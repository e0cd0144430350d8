// Package content describes what reading a persisted attachment back returns.
package content

import (
	"encoding/base64"
	"fmt"
)

// Mode selects how a file is returned.
type Mode string

// Return modes.
const (
	ModeMarkdown Mode = "markdown"
	ModeBase64   Mode = "base64"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == ModeMarkdown || m == ModeBase64
}

// previewLength caps the base64 prefix embedded in the data URI.
const previewLength = 100

// Result is either extracted text or raw bytes, never both.
type Result struct {
	Filename         string `json:"filename"`
	MIMEType         string `json:"mime_type"`
	SizeBytes        int    `json:"size_bytes"`
	ContentMarkdown  string `json:"content_markdown,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
	ContentBase64    string `json:"content_base64,omitempty"`
	DataURI          string `json:"data_uri,omitempty"`
}

// IsText reports whether the result carries extracted text.
func (r Result) IsText() bool { return r.ExtractionMethod != "" }

// Text builds a text result.
func Text(filename, mimeType string, size int, text, method string) Result {
	return Result{
		Filename:         filename,
		MIMEType:         mimeType,
		SizeBytes:        size,
		ContentMarkdown:  text,
		ExtractionMethod: method,
	}
}

// Raw builds a base64 result with a truncated data URI preview.
func Raw(filename, mimeType string, data []byte) Result {
	encoded := base64.StdEncoding.EncodeToString(data)
	preview := encoded
	suffix := ""
	if len(preview) > previewLength {
		preview = preview[:previewLength]
		suffix = "..."
	}
	return Result{
		Filename:      filename,
		MIMEType:      mimeType,
		SizeBytes:     len(data),
		ContentBase64: encoded,
		DataURI:       fmt.Sprintf("data:%s;base64,%s%s", mimeType, preview, suffix),
	}
}
