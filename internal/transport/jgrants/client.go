// Package jgrants talks to the jGrants public API. Client is the shared
// HTTP gateway; API resolves the two endpoints into domain types.
package jgrants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jgrants-mcp/internal/domain"
	"github.com/kailas-cloud/jgrants-mcp/internal/metrics"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.jgrants-portal.go.jp/exp/v1/public"

// maxBodyBytes bounds a single response; detail payloads embed base64 files.
const maxBodyBytes = 256 << 20

// Config holds the gateway settings.
type Config struct {
	BaseURL        string
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolTimeout    time.Duration
	MaxConns       int
	MaxIdleConns   int
	Logger         *zap.Logger
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("HTTP error: %d", e.Code) }

func (e *StatusError) Unwrap() error { return domain.ErrUpstreamStatus }

// Client is the process-wide gateway. The underlying *http.Client is built on first use.
type Client struct {
	cfg    Config
	base   *url.URL
	once   sync.Once
	http   *http.Client
	logger *zap.Logger
}

// NewClient validates the base URL. No connection is made until the first request.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{cfg: cfg, base: base, logger: cfg.Logger}, nil
}

// httpClient returns the shared pooled client, creating it once.
func (c *Client) httpClient() *http.Client {
	c.once.Do(func() {
		dialer := &net.Dialer{
			Timeout:   c.cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   c.cfg.ConnectTimeout,
			ResponseHeaderTimeout: c.cfg.WriteTimeout + c.cfg.ReadTimeout,
			MaxConnsPerHost:       c.cfg.MaxConns,
			MaxIdleConns:          c.cfg.MaxIdleConns,
			MaxIdleConnsPerHost:   c.cfg.MaxIdleConns,
			IdleConnTimeout:       90 * time.Second,
			ForceAttemptHTTP2:     true,
		}
		c.http = &http.Client{Transport: transport}
	})
	return c.http
}

// requestTimeout bounds one call end to end: waiting for a pooled
// connection, dialing, sending, and reading the body.
func (c *Client) requestTimeout() time.Duration {
	return c.cfg.PoolTimeout + c.cfg.ConnectTimeout + c.cfg.WriteTimeout + c.cfg.ReadTimeout
}

// GetJSON issues GET base+path?params and returns the response body.
// Every failure wraps one of the domain upstream sentinels.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, params url.Values) (json.RawMessage, error) {
	if d := c.requestTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	u := *c.base
	u.Path = c.base.Path + path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	start := time.Now()
	body, err := c.do(ctx, u.String())
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()

	if err != nil {
		c.logger.Warn("jgrants request failed",
			zap.String("endpoint", endpoint),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classify(err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", domain.ErrUpstreamRequest)
	}
	return body, nil
}

// classify maps transport errors onto the domain sentinels.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out: %v", domain.ErrUpstreamTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: request timed out: %v", domain.ErrUpstreamTimeout, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: failed to connect to API server: %v", domain.ErrUpstreamUnavailable, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: failed to connect to API server: %v", domain.ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstreamRequest, err)
}

// outcome is the metrics label for a request result.
func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &statusErr):
		return "status_" + strconv.Itoa(statusErr.Code)
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
