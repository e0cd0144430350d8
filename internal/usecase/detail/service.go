package detail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	domatt "github.com/kailas-cloud/jgrants-mcp/internal/domain/attachment"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
	"github.com/kailas-cloud/jgrants-mcp/internal/transport/jgrants"
)

// Target describes who may apply.
type Target struct {
	Area      string `json:"area"`
	Industry  string `json:"industry"`
	Employees string `json:"employees"`
	Purpose   string `json:"purpose"`
}

// Result is the reshaped subsidy returned to the caller.
type Result struct {
	ID                      string                              `json:"id"`
	Title                   string                              `json:"title"`
	Description             string                              `json:"description"`
	SubsidyMaxLimit         subsidy.Amount                      `json:"subsidy_max_limit"`
	AcceptanceStartDatetime string                              `json:"acceptance_start_datetime"`
	AcceptanceEndDatetime   string                              `json:"acceptance_end_datetime"`
	Status                  subsidy.Status                      `json:"status"`
	Target                  Target                              `json:"target"`
	ApplicationURL          string                              `json:"application_url"`
	LastUpdated             string                              `json:"last_updated"`
	Files                   map[subsidy.Category][]domatt.Entry `json:"files"`
	SaveDirectory           string                              `json:"save_directory"`
}

// Service fetches a subsidy, persists its attachments and reshapes it.
type Service struct {
	api       Fetcher
	persister Persister
	now       func() time.Time
}

// New creates a detail service. A nil clock uses time.Now.
func New(api Fetcher, persister Persister, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{api: api, persister: persister, now: now}
}

// Get loads subsidy id. The id is validated before any I/O.
func (s *Service) Get(ctx context.Context, id string) (Result, error) {
	id, err := subsidy.ValidateID(id)
	if err != nil {
		return Result{}, err
	}

	d, err := s.api.Detail(ctx, id)
	if err != nil {
		var statusErr *jgrants.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return Result{}, fmt.Errorf("%w: subsidy ID '%s' not found", domain.ErrSubsidyNotFound, id)
		}
		return Result{}, err
	}

	report := s.persister.Persist(id, d.Attachments())

	resultID := d.ID
	if resultID == "" {
		resultID = id
	}
	return Result{
		ID:                      resultID,
		Title:                   d.Title,
		Description:             d.Body(),
		SubsidyMaxLimit:         d.SubsidyMaxLimit,
		AcceptanceStartDatetime: d.AcceptanceStartDatetime,
		AcceptanceEndDatetime:   d.AcceptanceEndDatetime,
		Status:                  d.Status(s.now()),
		Target: Target{
			Area:      d.TargetAreaSearch,
			Industry:  d.TargetIndustry,
			Employees: d.TargetNumberOfEmployees,
			Purpose:   d.UsePurpose,
		},
		ApplicationURL: d.InquiryURL,
		LastUpdated:    d.UpdateDatetime,
		Files:          report.Files,
		SaveDirectory:  report.SaveDirectory,
	}, nil
}
