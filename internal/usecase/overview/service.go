package overview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/search/criteria"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/stats"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
	"github.com/kailas-cloud/jgrants-mcp/internal/logger"
)

// Format selects the overview output shape.
type Format string

// Output formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts json (the default) or csv, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: output_format must be json or csv, got %q", domain.ErrInvalidArgument, s)
	}
}

// Service aggregates statistics over currently open subsidies.
type Service struct {
	search Searcher
	now    func() time.Time
}

// New creates an overview service. A nil clock uses time.Now.
func New(search Searcher, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{search: search, now: now}
}

// Overview searches with the fixed default criteria and classifies every row.
func (s *Service) Overview(ctx context.Context) (stats.Snapshot, error) {
	res, err := s.search.Search(ctx, criteria.Default())
	if err != nil {
		return stats.Snapshot{}, err
	}

	log := logger.FromContext(ctx)
	rows := make([]subsidy.Summary, len(res.Subsidies))
	for i, raw := range res.Subsidies {
		// Rows that are not objects stay zero: counted, amount unspecified.
		if err := json.Unmarshal(raw, &rows[i]); err != nil {
			log.Debug("overview row not decoded", zap.Int("index", i), zap.Error(err))
		}
	}
	return stats.Build(res.TotalCount, rows, s.now()), nil
}

// Render returns the overview in the requested format: stats.Snapshot for
// json, stats.CSV for csv.
func (s *Service) Render(ctx context.Context, format Format) (any, error) {
	snap, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	if format != FormatCSV {
		return snap, nil
	}
	out, err := snap.ToCSV()
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return out, nil
}
