package jgrants

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	"github.com/kailas-cloud/jgrants-mcp/internal/domain/subsidy"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointSearch = "search"
	EndpointDetail = "detail"
)

// API wraps the two public endpoints.
type API struct {
	client *Client
}

// NewAPI creates an API on top of a shared Client.
func NewAPI(client *Client) *API {
	return &API{client: client}
}

// SearchPage is the decoded search response. Found is false when the
// payload carries no "result" list.
type SearchPage struct {
	Rows  []json.RawMessage
	Found bool
}

// Search calls GET /subsidies with the given query.
func (a *API) Search(ctx context.Context, query url.Values) (SearchPage, error) {
	body, err := a.client.GetJSON(ctx, EndpointSearch, "/subsidies", query)
	if err != nil {
		return SearchPage{}, err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		// Non-object payloads carry no result list.
		return SearchPage{}, nil //nolint:nilerr // treated as empty
	}
	if len(envelope.Result) == 0 || !isArray(envelope.Result) {
		return SearchPage{}, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		return SearchPage{}, fmt.Errorf("%w: decode search result: %v", domain.ErrUnexpectedResponse, err)
	}
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return SearchPage{Rows: rows, Found: true}, nil
}

// Detail calls GET /subsidies/id/{id} and resolves the record out of
// whichever envelope shape the API returned.
func (a *API) Detail(ctx context.Context, id string) (subsidy.Detail, error) {
	body, err := a.client.GetJSON(ctx, EndpointDetail, "/subsidies/id/"+url.PathEscape(id), nil)
	if err != nil {
		return subsidy.Detail{}, err
	}

	record, err := resolveRecord(body)
	if err != nil {
		return subsidy.Detail{}, err
	}

	var d subsidy.Detail
	if err := json.Unmarshal(record, &d); err != nil {
		return subsidy.Detail{}, fmt.Errorf("%w: decode subsidy: %v", domain.ErrUnexpectedResponse, err)
	}
	return d, nil
}

// resolveRecord accepts {"result": [obj, ...]}, {"result": obj} and a bare obj.
func resolveRecord(body json.RawMessage) (json.RawMessage, error) {
	if !isObject(body) {
		return nil, fmt.Errorf("%w: expected a JSON object", domain.ErrUnexpectedResponse)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
	}
	result, ok := envelope["result"]
	if !ok {
		return body, nil
	}

	switch {
	case isObject(result):
		return result, nil
	case isArray(result):
		var items []json.RawMessage
		if err := json.Unmarshal(result, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnexpectedResponse, err)
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("%w: empty result list", domain.ErrUnexpectedResponse)
		}
		if !isObject(items[0]) {
			return nil, fmt.Errorf("%w: result item is not an object", domain.ErrUnexpectedResponse)
		}
		return items[0], nil
	default:
		return nil, fmt.Errorf("%w: result is neither an object nor a list", domain.ErrUnexpectedResponse)
	}
}

func isObject(b json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(b), []byte("{"))
}

func isArray(b json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(b), []byte("["))
}
