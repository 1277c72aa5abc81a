package cloudfiles

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/httpx"
)

// RetryPolicy controls how the HTTP transport retries transient failures
// (5xx, 408 and 429). The Container facade itself never retries.
type RetryPolicy = httpx.RetryPolicy

// DefaultRetryPolicy is used unless WithRetryPolicy overrides it.
var DefaultRetryPolicy = httpx.DefaultRetryPolicy

// Option configures a Client or V1Authenticator.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	httpClient *http.Client
	timeout    time.Duration
	retry      *RetryPolicy
	rateLimit  float64
	rateBurst  int
	userAgent  string
	registerer prometheus.Registerer
	metrics    *httpx.Metrics
}

// WithLogger sets the logger used by the facade and the HTTP transport.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) { o.retry = &p }
}

// WithRateLimit caps requests per second per endpoint.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = perSecond
		o.rateBurst = burst
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithMetricsRegisterer records request metrics into r.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

func buildOptions(opts []Option) *options {
	o := &options{logger: zap.NewNop(), userAgent: "cloudfiles-sdk-go"}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.registerer != nil {
		o.metrics = httpx.NewMetrics(o.registerer)
	}
	return o
}

func (o *options) httpxOptions(name string) []httpx.Option {
	out := []httpx.Option{
		httpx.WithName(name),
		httpx.WithLogger(o.logger),
		httpx.WithRateLimit(o.rateLimit, o.rateBurst),
	}
	if o.httpClient != nil {
		out = append(out, httpx.WithHTTPClient(o.httpClient))
	} else {
		out = append(out, httpx.WithTimeout(o.timeout))
	}
	if o.userAgent != "" {
		out = append(out, httpx.WithHeaders(http.Header{"User-Agent": {o.userAgent}}))
	}
	if o.retry != nil {
		out = append(out, httpx.WithRetryPolicy(*o.retry))
	}
	if o.metrics != nil {
		out = append(out, httpx.WithMetrics(o.metrics))
	}
	return out
}
