package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// SessionHeader carries the session id on streamable HTTP.
const SessionHeader = "Mcp-Session-Id"

// maxBatchBytes bounds one POST body, which may hold a batch.
const maxBatchBytes = 4 * maxMessageBytes

// HTTPHandler serves the streamable HTTP transport. Every POST is answered
// with plain JSON; the server never opens an SSE stream.
type HTTPHandler struct {
	server   *Server
	sessions *expirable.LRU[string, *session]
	logger   *zap.Logger
}

// NewHTTPHandler keeps at most maxSessions sessions, each expiring ttl after
// its last request.
func NewHTTPHandler(server *Server, maxSessions int, ttl time.Duration) *HTTPHandler {
	h := &HTTPHandler{server: server, logger: server.logger}
	h.sessions = expirable.NewLRU[string, *session](maxSessions, func(id string, _ *session) {
		h.logger.Debug("mcp session evicted", zap.String("session_id", id))
	}, ttl)
	return h
}

// ServeHTTP implements http.Handler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		writeJSON(w, http.StatusMethodNotAllowed,
			errorResponse(json.RawMessage("null"), codeInvalidRequest, "method not allowed"))
	}
}

func (h *HTTPHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge,
				errorResponse(json.RawMessage("null"), codeInvalidRequest, "request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest,
			errorResponse(json.RawMessage("null"), codeParseError, "read body: "+err.Error()))
		return
	}

	requests, batch, err := decodeBody(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorResponse(json.RawMessage("null"), codeParseError, "parse error: "+err.Error()))
		return
	}

	sess, status, msg := h.resolveSession(r.Header.Get(SessionHeader), requests)
	if sess == nil {
		writeJSON(w, status, errorResponse(json.RawMessage("null"), codeInvalidRequest, msg))
		return
	}
	w.Header().Set(SessionHeader, sess.id)

	responses := make([]*response, 0, len(requests))
	for _, req := range requests {
		if resp := h.server.handle(r.Context(), sess, req); resp != nil {
			responses = append(responses, resp)
		}
	}

	switch {
	case len(responses) == 0:
		w.WriteHeader(http.StatusAccepted)
	case batch:
		writeJSON(w, http.StatusOK, responses)
	default:
		writeJSON(w, http.StatusOK, responses[0])
	}
}

// resolveSession finds the caller's session, or opens one when the body
// carries initialize and no session id was sent.
func (h *HTTPHandler) resolveSession(id string, requests []*request) (*session, int, string) {
	if id == "" {
		if !hasInitialize(requests) {
			return nil, http.StatusBadRequest, "missing " + SessionHeader + " header"
		}
		sess := &session{id: uuid.NewString()}
		h.sessions.Add(sess.id, sess)
		h.logger.Info("mcp session opened",
			zap.String("session_id", sess.id),
			zap.Int("sessions", h.SessionCount()),
		)
		return sess, 0, ""
	}

	sess, ok := h.sessions.Get(id)
	if !ok {
		return nil, http.StatusNotFound, "unknown session"
	}
	// Add refreshes the expiry.
	h.sessions.Add(id, sess)
	return sess, 0, ""
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest,
			errorResponse(json.RawMessage("null"), codeInvalidRequest, "missing "+SessionHeader+" header"))
		return
	}
	if !h.sessions.Remove(id) {
		writeJSON(w, http.StatusNotFound,
			errorResponse(json.RawMessage("null"), codeInvalidRequest, "unknown session"))
		return
	}
	h.logger.Info("mcp session closed", zap.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// SessionCount reports the live sessions.
func (h *HTTPHandler) SessionCount() int {
	return h.sessions.Len()
}

// decodeBody accepts a single message or a non-empty batch.
func decodeBody(body []byte) ([]*request, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []*request
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, true, err
		}
		if len(batch) == 0 {
			return nil, true, errors.New("empty batch")
		}
		return batch, true, nil
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, err
	}
	return []*request{&req}, false, nil
}

func hasInitialize(requests []*request) bool {
	for _, req := range requests {
		if req != nil && req.Method == "initialize" {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
