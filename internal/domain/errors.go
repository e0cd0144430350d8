package domain

import "errors"

var (
	// ErrInvalidArgument signals a rejected tool argument. Nothing was sent upstream.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamTimeout signals that the jGrants API did not answer in time.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstreamUnavailable signals a connection failure to the jGrants API.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamStatus signals a non-2xx response from the jGrants API.
	ErrUpstreamStatus = errors.New("upstream status")
	// ErrUpstreamRequest signals any other failure while talking to the jGrants API.
	ErrUpstreamRequest = errors.New("upstream request failed")
	// ErrUnexpectedResponse signals an upstream payload of an unknown shape.
	ErrUnexpectedResponse = errors.New("unexpected response format")

	// ErrSubsidyNotFound signals an unknown subsidy identifier.
	ErrSubsidyNotFound = errors.New("subsidy not found")
	// ErrFileNotFound signals a missing persisted attachment.
	ErrFileNotFound = errors.New("file not found")
)

// IsTransient reports whether err is an upstream failure that may succeed on a later call.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrUpstreamUnavailable)
}
