package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/search/criteria"
	"github.com/kailas-cloud/jgrants-mcp/internal/transport/jgrants"
)

// --- Mocks ---

type mockSearcher struct {
	page  jgrants.SearchPage
	err   error
	query url.Values
	calls int
}

func (m *mockSearcher) Search(_ context.Context, query url.Values) (jgrants.SearchPage, error) {
	m.calls++
	m.query = query
	return m.page, m.err
}

// --- Tests ---

func mustCriteria(t *testing.T, p criteria.Params) criteria.Criteria {
	t.Helper()
	c, err := criteria.New(p)
	if err != nil {
		t.Fatalf("criteria.New: %v", err)
	}
	return c
}

func TestSearch_PassesRowsThrough(t *testing.T) {
	rows := []json.RawMessage{
		json.RawMessage(`{"id":"a","title":"A","extra":1}`),
		json.RawMessage(`{"id":"b"}`),
	}
	api := &mockSearcher{page: jgrants.SearchPage{Rows: rows, Found: true}}
	svc := New(api)

	res, err := svc.Search(context.Background(), mustCriteria(t, criteria.Params{
		Keyword:          " IT導入 ",
		TargetAreaSearch: "東京都",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalCount != 2 {
		t.Errorf("expected total 2, got %d", res.TotalCount)
	}
	if string(res.Subsidies[0]) != `{"id":"a","title":"A","extra":1}` {
		t.Errorf("row was modified: %s", res.Subsidies[0])
	}

	want := map[string]string{
		"keyword":            "IT導入",
		"sort":               "acceptance_end_datetime",
		"order":              "ASC",
		"acceptance":         "1",
		"target_area_search": "東京都",
	}
	if len(res.SearchConditions) != len(want) {
		t.Fatalf("unexpected conditions: %v", res.SearchConditions)
	}
	for k, v := range want {
		if res.SearchConditions[k] != v {
			t.Errorf("condition %s: got %q, want %q", k, res.SearchConditions[k], v)
		}
		if api.query.Get(k) != v {
			t.Errorf("query %s: got %q, want %q", k, api.query.Get(k), v)
		}
	}
}

func TestSearch_NoResultIsEmpty(t *testing.T) {
	svc := New(&mockSearcher{page: jgrants.SearchPage{}})

	res, err := svc.Search(context.Background(), criteria.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalCount != 0 || res.Subsidies == nil || len(res.Subsidies) != 0 {
		t.Errorf("expected empty non-nil result, got %+v", res)
	}
	if res.SearchConditions != nil {
		t.Errorf("expected no search conditions, got %v", res.SearchConditions)
	}

	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"total_count":0,"subsidies":[]}` {
		t.Errorf("unexpected payload: %s", out)
	}
}

func TestSearch_EmptyResultListKeepsConditions(t *testing.T) {
	svc := New(&mockSearcher{page: jgrants.SearchPage{Rows: []json.RawMessage{}, Found: true}})

	res, err := svc.Search(context.Background(), criteria.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalCount != 0 || len(res.Subsidies) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if res.SearchConditions["keyword"] == "" {
		t.Errorf("expected search conditions, got %v", res.SearchConditions)
	}
}

func TestSearch_PropagatesUpstreamError(t *testing.T) {
	svc := New(&mockSearcher{err: domain.ErrUpstreamTimeout})

	_, err := svc.Search(context.Background(), criteria.Default())
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}
