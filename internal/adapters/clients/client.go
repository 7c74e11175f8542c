package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotekeeper/internal/adapters/clients"

	defaultTimeout = 30 * time.Second
)

// Result labels on the request metrics.
const (
	resultOK          = "ok"
	resultError       = "error"
	resultCircuitOpen = "circuit_open"
	resultCanceled    = "canceled"
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path, e.g. "https://jsonplaceholder.typicode.com".
	BaseURL string

	// ServiceName names the remote in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	Logger *slog.Logger
}

// Client is an instrumented HTTP client for one remote. Every call passes the
// circuit breaker, is retried on transport errors, 5xx and 429, and forwards
// the inbound request and correlation IDs along with the trace context.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	backoff     backoff
	breaker     *Breaker
	logger      *slog.Logger

	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New creates a client from cfg.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of calls to a remote, retries included"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requests, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Calls to a remote by result"))
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	breaker := NewBreaker(cfg.Circuit, func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()))
	})

	return &Client{
		http:        &http.Client{Timeout: timeout, Transport: newTransport(cfg.Transport)},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName: cfg.ServiceName,
		backoff:     newBackoff(cfg.Retry),
		breaker:     breaker,
		logger:      logger,
		tracer:      otel.Tracer(instrumentationName),
		duration:    duration,
		requests:    requests,
	}, nil
}

// newTransport clones the default transport with the configured pool sizes.
func newTransport(tc config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	t.MaxIdleConns = config.DefaultTransportMaxIdleConns
	if tc.MaxIdleConns > 0 {
		t.MaxIdleConns = tc.MaxIdleConns
	}

	t.MaxIdleConnsPerHost = config.DefaultTransportMaxIdleConnsPerHost
	if tc.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = tc.MaxIdleConnsPerHost
	}

	t.IdleConnTimeout = config.DefaultTransportIdleConnTimeout
	if tc.IdleConnTimeout > 0 {
		t.IdleConnTimeout = tc.IdleConnTimeout
	}

	return t
}

// Do sends req. A body is replayed on retries only when req.GetBody is set,
// which PostJSON guarantees. Non-retryable statuses (including 4xx) are
// returned as responses; the caller closes the body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	release, err := c.breaker.Acquire()
	if err != nil {
		c.observe(ctx, req.Method, resultCircuitOpen, 0, start)
		logger.WarnContext(ctx, "request blocked by circuit breaker")
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		))
	defer span.End()

	forwardIDs(ctx, req.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, attempts, err := c.send(ctx, req, logger)
	span.SetAttributes(attribute.Int("http.attempts", attempts))

	switch {
	case err == nil:
		release(OutcomeSuccess)
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, resp.Status)
		}
		c.observe(ctx, req.Method, resultOK, resp.StatusCode, start)
		logger.DebugContext(ctx, "request completed",
			slog.Int("status", resp.StatusCode),
			slog.Int("attempts", attempts),
			slog.Duration("duration", time.Since(start)))
		return resp, nil

	case ctx.Err() != nil:
		release(OutcomeIgnored)
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, req.Method, resultCanceled, 0, start)
		return nil, err

	default:
		release(OutcomeFailure)
		span.SetStatus(codes.Error, err.Error())
		c.observe(ctx, req.Method, resultError, 0, start)
		logger.ErrorContext(ctx, "request failed",
			slog.Int("attempts", attempts),
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", err))
		return nil, err
	}
}

// send runs the attempts and returns the final response, the number of
// attempts made and, on failure, the error.
func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, int, error) {
	var lastErr error

	for n := 1; n <= c.backoff.attempts; n++ {
		if n > 1 {
			wait := c.backoff.delay(n - 1)
			logger.DebugContext(ctx, "retrying request",
				slog.Int("attempt", n),
				slog.Duration("backoff", wait))

			if err := sleep(ctx, wait); err != nil {
				return nil, n - 1, err
			}
		}

		attempt, err := replay(ctx, req, n)
		if err != nil {
			return nil, n, err
		}

		resp, err := c.http.Do(attempt)

		switch {
		case err == nil && !retryableStatus(resp.StatusCode):
			return resp, n, nil

		case err == nil:
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = &StatusError{Code: resp.StatusCode}

		case !retryableError(ctx, err):
			return nil, n, err

		default:
			lastErr = err
		}

		logger.DebugContext(ctx, "attempt failed",
			slog.Int("attempt", n),
			slog.Any("error", lastErr))
	}

	return nil, c.backoff.attempts, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
}

// replay returns the request for attempt n with a fresh body.
func replay(ctx context.Context, req *http.Request, n int) (*http.Request, error) {
	r := req.WithContext(ctx)

	if n == 1 || req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}

	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed for retry")
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewinding request body: %w", err)
	}

	r.Body = body

	return r, nil
}

// forwardIDs copies the inbound request and correlation IDs onto h.
func forwardIDs(ctx context.Context, h http.Header) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		h.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		h.Set(middleware.HeaderCorrelationID, id)
	}
}

// Get sends a GET for path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// PostJSON encodes v and POSTs it to path.
func (c *Client) PostJSON(ctx context.Context, path string, v any) (*http.Response, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.Do(ctx, req)
}

// ServiceName returns the remote's name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

// CircuitState returns the breaker position.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) observe(ctx context.Context, method, result string, status int, start time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, time.Since(start).Seconds(), opt)
	c.requests.Add(ctx, 1, opt)
}
