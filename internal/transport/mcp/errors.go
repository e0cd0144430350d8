package mcp

import (
	"context"
	"errors"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
)

// Error categories reported in errorInfo.
const (
	categoryValidation = "validation"
	categoryNotFound   = "not_found"
	categoryTransient  = "transient"
	categoryUpstream   = "upstream"
	categoryInternal   = "internal"
)

// classifyError maps domain errors to an errorInfo category.
func classifyError(err error) *errorInfo {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return &errorInfo{Category: categoryValidation}
	case errors.Is(err, domain.ErrSubsidyNotFound), errors.Is(err, domain.ErrFileNotFound):
		return &errorInfo{Category: categoryNotFound}
	case domain.IsTransient(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &errorInfo{Category: categoryTransient, Retryable: true}
	case errors.Is(err, domain.ErrUpstreamStatus),
		errors.Is(err, domain.ErrUpstreamRequest),
		errors.Is(err, domain.ErrUnexpectedResponse):
		return &errorInfo{Category: categoryUpstream}
	default:
		return &errorInfo{Category: categoryInternal}
	}
}
