package search

import (
	"context"
	"net/url"

	"github.com/kailas-cloud/jgrants-mcp/internal/transport/jgrants"
)

// Searcher queries the subsidy list endpoint.
type Searcher interface {
	Search(ctx context.Context, query url.Values) (jgrants.SearchPage, error)
}
