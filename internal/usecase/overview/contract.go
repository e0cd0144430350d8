package overview

import (
	"context"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain/search/criteria"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/search"
)

// Searcher runs a validated search.
type Searcher interface {
	Search(ctx context.Context, c criteria.Criteria) (search.Result, error)
}
