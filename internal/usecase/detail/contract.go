package detail

import (
	"context"

	domatt "github.com/kailas-cloud/jgrants-mcp/internal/domain/attachment"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
)

// Fetcher loads one subsidy by identifier.
type Fetcher interface {
	Detail(ctx context.Context, id string) (subsidy.Detail, error)
}

// Persister stores the embedded attachments of a subsidy.
type Persister interface {
	Persist(subsidyID string, groups map[subsidy.Category][]subsidy.Attachment) domatt.Report
}
