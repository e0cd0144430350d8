package health

import "time"

// ServerName is reported by Ping.
const ServerName = "jGrants MCP Server"

// Status represents the server health status.
type Status string

// Healthy indicates the server is answering.
const Healthy Status = "ok"

// Report is the ping answer.
type Report struct {
	Status    Status `json:"status"`
	Server    string `json:"server"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Service answers liveness checks. It never calls upstream.
type Service struct {
	version string
	now     Clock
}

// New creates a Service. A nil clock uses time.Now.
func New(version string, now Clock) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{version: version, now: now}
}

// Ping reports that the server is up, with a UTC RFC 3339 timestamp.
func (s *Service) Ping() Report {
	return Report{
		Status:    Healthy,
		Server:    ServerName,
		Version:   s.version,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}
}
