// Package httpclient provides an OTEL-instrumented HTTP client used by venue
// adapters.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client is the interface for making HTTP requests.
type Client interface {
	// NewRequest creates a new request builder.
	NewRequest() Request
	// Do executes a raw request and returns the response.
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	baseURL        string
	defaultHeaders map[string]string
}

// Option configures the client.
type Option func(*InstrumentedClient)

// WithBaseURL sets a base URL prepended to relative request paths.
func WithBaseURL(baseURL string) Option {
	return func(c *InstrumentedClient) { c.baseURL = baseURL }
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *InstrumentedClient) { c.client.Timeout = d }
}

// WithProviderName tags emitted metrics with the upstream provider's name.
func WithProviderName(name string) Option {
	return func(c *InstrumentedClient) { c.providerName = name }
}

// WithDefaultHeader adds a header sent on every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *InstrumentedClient) { c.defaultHeaders[key] = value }
}

// New creates a new instrumented HTTP client.
func New(opts ...Option) (*InstrumentedClient, error) {
	httpClient := &http.Client{
		Timeout: defaultRequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		},
	}

	httpClient.Transport = otelhttp.NewTransport(
		httpClient.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	c := &InstrumentedClient{
		client:         httpClient,
		providerName:   "default",
		defaultHeaders: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}

	meter := otel.GetMeterProvider().Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", c.providerName)),
	)
	counter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	c.requestCounter = counter

	return c, nil
}

// NewRequest creates a new request builder bound to this client.
func (c *InstrumentedClient) NewRequest() Request {
	return &request{
		client:  c,
		headers: make(map[string]string),
		query:   make(map[string]string),
	}
}

// Do executes a request, counting it against the client's metrics.
func (c *InstrumentedClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for k, v := range c.defaultHeaders {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.client.Do(req.WithContext(ctx))

	attrs := []attribute.KeyValue{
		attribute.String("provider", c.providerName),
		attribute.String("method", req.Method),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("outcome", "error"))
	} else {
		attrs = append(attrs,
			attribute.String("outcome", "ok"),
			attribute.Int("status", resp.StatusCode),
		)
	}
	c.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	return resp, err
}
