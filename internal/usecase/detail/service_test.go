package detail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	domatt "github.com/kailas-cloud/jgrants-mcp/internal/domain/attachment"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
	"github.com/kailas-cloud/jgrants-mcp/internal/transport/jgrants"
)

// --- Mocks ---

type mockFetcher struct {
	detail subsidy.Detail
	err    error
	calls  int
	gotID  string
}

func (m *mockFetcher) Detail(_ context.Context, id string) (subsidy.Detail, error) {
	m.calls++
	m.gotID = id
	return m.detail, m.err
}

type mockPersister struct {
	report domatt.Report
	gotID  string
	groups map[subsidy.Category][]subsidy.Attachment
}

func (m *mockPersister) Persist(id string, groups map[subsidy.Category][]subsidy.Attachment) domatt.Report {
	m.gotID = id
	m.groups = groups
	return m.report
}

// --- Tests ---

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newService(f *mockFetcher, p *mockPersister) *Service {
	return New(f, p, func() time.Time { return now })
}

func TestGet_Reshapes(t *testing.T) {
	data := "aGk="
	f := &mockFetcher{detail: subsidy.Detail{
		ID:                      "a0WJ",
		Title:                   "ものづくり補助金",
		Description:             "概要",
		SubsidyMaxLimit:         subsidy.AmountOf(`12500000`),
		AcceptanceStartDatetime: "2025-05-01T00:00:00Z",
		AcceptanceEndDatetime:   "2025-06-02T00:00:00Z",
		TargetAreaSearch:        "全国",
		TargetIndustry:          "製造業",
		TargetNumberOfEmployees: "従業員数の制約なし",
		UsePurpose:              "設備整備・IT導入をしたい",
		InquiryURL:              "https://example.go.jp/apply",
		UpdateDatetime:          "2025-05-20T10:00:00Z",
		ApplicationGuidelines:   []subsidy.Attachment{{Name: "要領.pdf", Data: &data}},
	}}
	p := &mockPersister{report: domatt.Report{
		Files: map[subsidy.Category][]domatt.Entry{
			subsidy.CategoryGuidelines: {domatt.Stored("a0WJ", "要領.pdf", "要領.pdf", 2)},
		},
		SaveDirectory: "tmp/a0WJ",
	}}

	res, err := newService(f, p).Get(context.Background(), "  a0WJ ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.gotID != "a0WJ" || p.gotID != "a0WJ" {
		t.Errorf("expected trimmed id, got fetch %q persist %q", f.gotID, p.gotID)
	}
	if len(p.groups[subsidy.CategoryGuidelines]) != 1 {
		t.Errorf("attachments not handed to persister: %+v", p.groups)
	}
	if res.Status != subsidy.StatusOpen {
		t.Errorf("expected open, got %q", res.Status)
	}
	if res.Description != "概要" || res.ApplicationURL != "https://example.go.jp/apply" || res.LastUpdated != "2025-05-20T10:00:00Z" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Target != (Target{Area: "全国", Industry: "製造業", Employees: "従業員数の制約なし", Purpose: "設備整備・IT導入をしたい"}) {
		t.Errorf("unexpected target: %+v", res.Target)
	}
	if v, ok := res.SubsidyMaxLimit.Value(); !ok || v != 12500000 {
		t.Errorf("unexpected max limit: %v %v", v, ok)
	}
	if res.SaveDirectory != "tmp/a0WJ" || len(res.Files[subsidy.CategoryGuidelines]) != 1 {
		t.Errorf("unexpected files: %+v", res.Files)
	}
}

func TestGet_Status(t *testing.T) {
	tests := []struct {
		name string
		end  string
		want subsidy.Status
	}{
		{"tomorrow", "2025-06-02T00:00:00Z", subsidy.StatusOpen},
		{"yesterday", "2025-05-31T00:00:00Z", subsidy.StatusClosed},
		{"missing", "", subsidy.StatusOpen},
		{"garbage", "soon", subsidy.StatusOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &mockFetcher{detail: subsidy.Detail{ID: "x", AcceptanceEndDatetime: tt.end}}
			res, err := newService(f, &mockPersister{}).Get(context.Background(), "x")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Status != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.Status)
			}
		})
	}
}

func TestGet_FallsBackToRequestedID(t *testing.T) {
	f := &mockFetcher{detail: subsidy.Detail{Title: "no id"}}
	res, err := newService(f, &mockPersister{}).Get(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != "req-1" {
		t.Errorf("expected requested id, got %q", res.ID)
	}
}

func TestGet_InvalidIDNoIO(t *testing.T) {
	for _, id := range []string{"", "   ", "..", "a/b", `a\b`} {
		f := &mockFetcher{}
		_, err := newService(f, &mockPersister{}).Get(context.Background(), id)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("%q: expected ErrInvalidArgument, got %v", id, err)
		}
		if f.calls != 0 {
			t.Errorf("%q: expected no upstream call", id)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	f := &mockFetcher{err: &jgrants.StatusError{Code: 404}}
	_, err := newService(f, &mockPersister{}).Get(context.Background(), "gone")
	if !errors.Is(err, domain.ErrSubsidyNotFound) {
		t.Fatalf("expected ErrSubsidyNotFound, got %v", err)
	}
	if err.Error() != "subsidy not found: subsidy ID 'gone' not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestGet_PropagatesOtherErrors(t *testing.T) {
	f := &mockFetcher{err: &jgrants.StatusError{Code: 500}}
	_, err := newService(f, &mockPersister{}).Get(context.Background(), "x")
	if !errors.Is(err, domain.ErrUpstreamStatus) || errors.Is(err, domain.ErrSubsidyNotFound) {
		t.Fatalf("expected upstream status error, got %v", err)
	}

	f = &mockFetcher{err: domain.ErrUnexpectedResponse}
	_, err = newService(f, &mockPersister{}).Get(context.Background(), "x")
	if !errors.Is(err, domain.ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}
