package search

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain/search/criteria"
	"github.com/kailas-cloud/jgrants-mcp/internal/logger"
)

// Result is one page of search results as returned to the caller.
type Result struct {
	TotalCount       int               `json:"total_count"`
	Subsidies        []json.RawMessage `json:"subsidies"`
	SearchConditions map[string]string `json:"search_conditions,omitempty"`
}

// Service runs validated searches against jGrants.
type Service struct {
	api Searcher
}

// New creates a search service.
func New(api Searcher) *Service {
	return &Service{api: api}
}

// Search runs c upstream. Rows are passed through untouched.
// A response without a result list is an empty result without
// search conditions, not an error.
func (s *Service) Search(ctx context.Context, c criteria.Criteria) (Result, error) {
	log := logger.FromContext(ctx)
	query := c.Query()

	page, err := s.api.Search(ctx, query)
	if err != nil {
		return Result{}, err
	}
	if !page.Found {
		log.Debug("search response without result list", zap.String("keyword", c.Keyword()))
		return Result{Subsidies: []json.RawMessage{}}, nil
	}

	conditions := make(map[string]string, len(query))
	for k := range query {
		conditions[k] = query.Get(k)
	}

	rows := page.Rows
	if rows == nil {
		rows = []json.RawMessage{}
	}
	log.Debug("search done",
		zap.String("keyword", c.Keyword()),
		zap.String("sort", c.Sort()),
		zap.String("order", c.Order()),
		zap.Int("acceptance", c.Acceptance()),
		zap.Int("rows", len(rows)),
	)
	return Result{
		TotalCount:       len(rows),
		Subsidies:        rows,
		SearchConditions: conditions,
	}, nil
}
