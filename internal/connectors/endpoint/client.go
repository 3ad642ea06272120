// Package endpoint provides the HTTP client used to fetch the old and new API
// responses.
package endpoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/finops-claw-gang/api-parity/internal/ratelimit"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// Response is what a GET produced. Any status is a Response; only transport
// failures are errors.
type Response struct {
	StatusCode int
	Elapsed    time.Duration
	Body       []byte
}

// Client issues GET requests with caller-supplied headers.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.HostLimiter
}

// New creates a Client with the given timeout and an OTel-instrumented
// transport. A nil limiter disables rate limiting.
func New(timeout time.Duration, limiter *ratelimit.HostLimiter) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: limiter,
	}
}

// NewWithHTTPClient creates a Client with a custom HTTP client (for testing).
func NewWithHTTPClient(httpClient *http.Client, limiter *ratelimit.HostLimiter) *Client {
	return &Client{
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// Get fetches rawURL and reads the whole body. Elapsed covers the request and
// the body read.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("endpoint: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint: unsupported scheme %q in %s", u.Scheme, rawURL)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, u.Host); err != nil {
			return nil, fmt.Errorf("endpoint: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("endpoint: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoint: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("endpoint: read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
		Body:       body,
	}, nil
}
