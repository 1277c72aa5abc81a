package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries a client generated id that Swift appends to its
// transaction id, so server logs can be matched with client logs.
const RequestIDHeader = "X-Trans-Id-Extra"

// RetryPolicy controls the retry behaviour for transient failures.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
	RetryIf    func(resp *http.Response, err error) bool
}

// DefaultRetryPolicy implements a conservative retry strategy.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  250 * time.Millisecond,
	MaxDelay:   4 * time.Second,
	Jitter:     0.25,
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithRetryPolicy overrides the default retry configuration.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = policy
	}
}

// WithRateLimit caps outgoing attempts to limit per second with the given
// burst. A zero limit disables rate limiting.
func WithRateLimit(limit float64, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
}

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every attempt into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithName labels logs and metrics emitted by this client.
func WithName(name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.name = name
		}
	}
}

// Client wraps http.Client providing retry and base URL utilities.
type Client struct {
	name        string
	baseURL     *url.URL
	httpClient  *http.Client
	headers     http.Header
	retryPolicy RetryPolicy
	limiter     *rate.Limiter
	logger      *zap.Logger
	metrics     *Metrics
}

// Request describes a single outbound request. Path is appended to the base
// URL path and must already be escaped.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Header        http.Header
	DisableRetry  bool
	Body          io.Reader
	ContentLength int64
	GetBody       func() (io.ReadCloser, error)
}

// NewClient creates a Client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("httpx: base URL is required")
	}

	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpx: base URL %q must be absolute", baseURL)
	}

	c := &Client{
		name:    parsed.Host,
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers:     make(http.Header),
		retryPolicy: DefaultRetryPolicy,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.retryPolicy.MaxRetries < 0 {
		c.retryPolicy.MaxRetries = 0
	}
	if c.retryPolicy.BaseDelay <= 0 {
		c.retryPolicy.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	if c.retryPolicy.MaxDelay <= 0 {
		c.retryPolicy.MaxDelay = DefaultRetryPolicy.MaxDelay
	}
	return c, nil
}

// Do executes the provided request and returns the response, or an HTTPError
// for any status of 400 and above. The caller must close the response body.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}

	if req.DisableRetry {
		req.GetBody = nil
	} else if req.GetBody == nil && req.Body != nil {
		// Buffer the body so it can be replayed on retry.
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("httpx: read request body: %w", err)
		}
		req.Body = bytes.NewReader(data)
		req.ContentLength = int64(len(data))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	fullURL, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := c.logger.With(
		zap.String("client", c.name),
		zap.String("method", req.Method),
		zap.String("url", fullURL),
		zap.String("request_id", requestID),
	)

	attempt := 0
	backoff := NewBackoff(c.retryPolicy.BaseDelay, c.retryPolicy.MaxDelay, c.retryPolicy.Jitter)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := c.prepareBody(req, attempt == 0)
		if err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
		if err != nil {
			return nil, err
		}
		if body != http.NoBody && req.ContentLength > 0 {
			httpReq.ContentLength = req.ContentLength
		}

		httpReq.Header = cloneHeader(c.headers)
		for k, values := range req.Header {
			for _, v := range values {
				httpReq.Header.Add(k, v)
			}
		}
		httpReq.Header.Set(RequestIDHeader, requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.metrics.observe(c.name, req.Method, 0, time.Since(start))
			closeBody(respBody(resp))
			if !c.shouldRetry(req, attempt, nil, err) {
				return nil, err
			}
			delay := backoff.ForAttempt(attempt)
			log.Warn("request failed, retrying", zap.Int("attempt", attempt+1), zap.Duration("delay", delay), zap.Error(err))
			attempt++
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}
		c.metrics.observe(c.name, req.Method, resp.StatusCode, time.Since(start))

		if resp.StatusCode >= 400 {
			err = c.handleError(req.Method, fullURL, resp)
			if !c.shouldRetry(req, attempt, resp, err) {
				log.Debug("request completed with error status", zap.Int("status", resp.StatusCode))
				return nil, err
			}
			delay := backoff.ForResponse(resp, attempt)
			log.Warn("retryable status, retrying", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt+1), zap.Duration("delay", delay))
			attempt++
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		log.Debug("request completed", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
		return resp, nil
	}
}

func (c *Client) prepareBody(req *Request, first bool) (io.ReadCloser, error) {
	if first && req.Body != nil {
		body := req.Body
		req.Body = nil
		if rc, ok := body.(io.ReadCloser); ok {
			return rc, nil
		}
		return io.NopCloser(body), nil
	}
	if req.GetBody != nil {
		return req.GetBody()
	}
	return http.NoBody, nil
}

func (c *Client) shouldRetry(req *Request, attempt int, resp *http.Response, err error) bool {
	if req.DisableRetry {
		return false
	}
	if attempt >= c.retryPolicy.MaxRetries {
		return false
	}
	if c.retryPolicy.RetryIf != nil {
		return c.retryPolicy.RetryIf(resp, err)
	}
	if resp != nil {
		return retryableStatus(resp.StatusCode)
	}
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func respBody(resp *http.Response) io.ReadCloser {
	if resp == nil {
		return nil
	}
	return resp.Body
}

// buildURL appends path to the base URL path. Swift storage URLs carry the
// account in their path, so path must never replace it.
func (c *Client) buildURL(path string, q url.Values) (string, error) {
	base := strings.TrimRight(c.baseURL.String(), "/")
	if idx := strings.IndexByte(base, '?'); idx >= 0 {
		base = base[:idx]
	}
	full := base
	if trimmed := strings.TrimLeft(path, "/"); trimmed != "" {
		full += "/" + trimmed
	}
	if len(q) > 0 {
		full += "?" + q.Encode()
	}
	if _, err := url.Parse(full); err != nil {
		return "", fmt.Errorf("httpx: invalid request URL: %w", err)
	}
	return full, nil
}

func (c *Client) handleError(method, fullURL string, resp *http.Response) error {
	defer closeBody(resp.Body)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read error body: %w", err)
	}
	return &HTTPError{
		Method:     method,
		URL:        fullURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
