package mcp

import (
	"context"

	domcontent "github.com/kailas-cloud/jgrants-mcp/internal/domain/content"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/search/criteria"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/detail"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/health"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/overview"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/search"
)

// Searcher runs a validated subsidy search.
type Searcher interface {
	Search(ctx context.Context, c criteria.Criteria) (search.Result, error)
}

// Overviewer renders the deadline and amount statistics.
type Overviewer interface {
	Render(ctx context.Context, format overview.Format) (any, error)
}

// DetailGetter fetches one subsidy and persists its attachments.
type DetailGetter interface {
	Get(ctx context.Context, id string) (detail.Result, error)
}

// ContentGetter reads a persisted attachment back.
type ContentGetter interface {
	Get(ctx context.Context, id, name string, mode domcontent.Mode) (domcontent.Result, error)
}

// Pinger answers liveness checks.
type Pinger interface {
	Ping() health.Report
}

// Services are the use cases exposed as tools.
type Services struct {
	Search   Searcher
	Overview Overviewer
	Detail   DetailGetter
	Content  ContentGetter
	Health   Pinger
}
