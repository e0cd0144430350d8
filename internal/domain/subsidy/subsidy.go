// Package subsidy holds the jGrants subsidy record as it is read from the
// public API, plus the values derived from it at read time.
package subsidy

import "time"

// Status is the acceptance state of a subsidy, derived from its deadline.
type Status string

// Acceptance states.
const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Summary is the subset of a search row the statistics need.
type Summary struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	SubsidyMaxLimit       Amount `json:"subsidy_max_limit"`
	AcceptanceEndDatetime string `json:"acceptance_end_datetime"`
}

// Detail is a single subsidy returned by the get-by-id endpoint.
type Detail struct {
	ID                      string `json:"id"`
	Title                   string `json:"title"`
	Detail                  string `json:"detail"`
	Description             string `json:"description"`
	SubsidyMaxLimit         Amount `json:"subsidy_max_limit"`
	AcceptanceStartDatetime string `json:"acceptance_start_datetime"`
	AcceptanceEndDatetime   string `json:"acceptance_end_datetime"`
	TargetAreaSearch        string `json:"target_area_search"`
	TargetIndustry          string `json:"target_industry"`
	TargetNumberOfEmployees string `json:"target_number_of_employees"`
	UsePurpose              string `json:"use_purpose"`
	InquiryURL              string `json:"inquiry_url"`
	UpdateDatetime          string `json:"update_datetime"`

	ApplicationGuidelines []Attachment `json:"application_guidelines"`
	OutlineOfGrant        []Attachment `json:"outline_of_grant"`
	ApplicationForm       []Attachment `json:"application_form"`
}

// Body returns the long description, preferring "detail" over "description".
func (d Detail) Body() string {
	if d.Detail != "" {
		return d.Detail
	}
	return d.Description
}

// Status reports whether the subsidy still accepts applications at now.
// A missing or unparseable deadline counts as open.
func (d Detail) Status(now time.Time) Status {
	if d.AcceptanceEndDatetime == "" {
		return StatusOpen
	}
	end, err := ParseTimestamp(d.AcceptanceEndDatetime)
	if err != nil {
		return StatusOpen
	}
	if !end.Before(now) {
		return StatusOpen
	}
	return StatusClosed
}

// Attachments groups the embedded files by category, in Categories order.
func (d Detail) Attachments() map[Category][]Attachment {
	return map[Category][]Attachment{
		CategoryGuidelines: d.ApplicationGuidelines,
		CategoryOutline:    d.OutlineOfGrant,
		CategoryForm:       d.ApplicationForm,
	}
}
