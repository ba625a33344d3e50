// Package fetch downloads remote resources with a browser identity, a
// per-request timeout and bounded retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hellsecdev/hellsec.dev/internal/config"
	"github.com/hellsecdev/hellsec.dev/internal/foundation/errors"
	"github.com/hellsecdev/hellsec.dev/internal/logfields"
	"github.com/hellsecdev/hellsec.dev/internal/metrics"
	"github.com/hellsecdev/hellsec.dev/internal/retry"
)

// DefaultMaxBodyBytes bounds a single response body.
const DefaultMaxBodyBytes = 32 << 20

// StatusError reports a non-2xx response that was not retried.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt (5xx, 429).
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// BodyTooLargeError reports a response body longer than the client accepts.
type BodyTooLargeError struct {
	URL   string
	Limit int64
}

func (e *BodyTooLargeError) Error() string {
	return fmt.Sprintf("GET %s: response body exceeds %d bytes", e.URL, e.Limit)
}

// Client performs GET requests.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	policy     retry.Policy
	recorder   metrics.Recorder
	maxBody    int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRecorder reports retries to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithPolicy overrides the retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// NewClient builds a Client from the fonts configuration.
func NewClient(cfg config.FontsConfig, opts ...Option) *Client {
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  ua,
		timeout:    cfg.RequestTimeout(),
		policy:     retry.FromConfig(cfg.Retry),
		recorder:   metrics.NoopRecorder{},
		maxBody:    DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body. Transport errors, 5xx and
// 429 responses are retried according to the policy; any other non-2xx
// status returns a *StatusError immediately and an oversized body returns a
// *BodyTooLargeError. Only failures that were retried come back transient.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var (
		body      []byte
		permanent bool
	)
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		b, err := c.get(ctx, url)
		if err != nil {
			permanent = retry.IsPermanent(err)
			return err
		}
		body = b
		return nil
	}, func(n int, err error) {
		c.recorder.IncFetchRetry()
		slog.Debug("Retrying fetch", logfields.URL(url), logfields.Attempt(n), logfields.Error(err))
	})
	if err != nil {
		b := errors.WrapError(err, errors.CategoryNetwork, "fetch failed").WithContext("url", url)
		if !permanent && ctx.Err() == nil {
			b = b.Transient()
		}
		return nil, b.Build()
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/css,*/*;q=0.1")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if serr.Retryable() {
			return nil, serr
		}
		return nil, retry.Permanent(serr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, retry.Permanent(&BodyTooLargeError{URL: url, Limit: c.maxBody})
	}
	return body, nil
}
