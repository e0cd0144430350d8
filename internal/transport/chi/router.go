package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
	"github.com/kailas-cloud/jgrants-mcp/internal/usecase/health"
)

// MCPPath is where the streamable HTTP transport is mounted.
const MCPPath = "/mcp"

// Pinger answers liveness checks.
type Pinger interface {
	Ping() health.Report
}

// NewRouter mounts the MCP handler, /health and /metrics behind the
// recovery, request-id, request log and metrics middleware.
func NewRouter(mcp http.Handler, pinger Pinger, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.Handle(MCPPath, mcp)
	r.Get("/health", healthHandler(pinger))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func healthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		report := pinger.Ping()
		status := http.StatusOK
		if report.Status != health.Healthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}
