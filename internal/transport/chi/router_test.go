package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/health"
)

// --- Mocks ---

type stubPinger struct {
	status health.Status
}

func (p stubPinger) Ping() health.Report {
	return health.Report{
		Status:    p.status,
		Server:    health.ServerName,
		Version:   "test",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Format(time.RFC3339Nano),
	}
}

// --- Tests ---

func TestRouter_Health(t *testing.T) {
	r := NewRouter(http.NotFoundHandler(), stubPinger{status: health.Healthy}, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["server"] != health.ServerName {
		t.Errorf("unexpected body: %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_HealthUnhealthy(t *testing.T) {
	r := NewRouter(http.NotFoundHandler(), stubPinger{status: "degraded"}, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestRouter_MountsMCP(t *testing.T) {
	var gotMethod string
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusAccepted)
	})
	r := NewRouter(mcp, stubPinger{status: health.Healthy}, zap.NewNop())

	for _, method := range []string{http.MethodPost, http.MethodDelete, http.MethodGet} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, MCPPath, nil))
		if rec.Code != http.StatusAccepted {
			t.Errorf("%s: expected 202, got %d", method, rec.Code)
		}
		if gotMethod != method {
			t.Errorf("expected handler to see %s, got %s", method, gotMethod)
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	metrics.Register()
	r := NewRouter(http.NotFoundHandler(), stubPinger{status: health.Healthy}, zap.NewNop())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	r := NewRouter(http.NotFoundHandler(), stubPinger{status: health.Healthy}, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON, got %q", ct)
	}
}

func TestRouter_RecoversPanic(t *testing.T) {
	mcp := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	r := NewRouter(mcp, stubPinger{status: health.Healthy}, zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, MCPPath, nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "internal_error" {
		t.Errorf("unexpected code %q", body.Code)
	}
}
