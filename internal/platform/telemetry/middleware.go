package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotekeeper/telemetry"

	// HeaderTraceID echoes the request's trace ID to the caller.
	HeaderTraceID = "X-Trace-ID"

	opsPrefix = "/-/"
)

type serverInstruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inflight metric.Int64UpDownCounter
}

func newServerInstruments() (*serverInstruments, error) {
	m := otel.Meter(instrumentationName)

	var (
		in  serverInstruments
		err error
	)

	if in.duration, err = m.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Quote API request latency"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if in.requests, err = m.Int64Counter("http.server.request.total",
		metric.WithDescription("Quote API requests by route and status")); err != nil {
		return nil, err
	}
	if in.inflight, err = m.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Quote API requests in progress")); err != nil {
		return nil, err
	}

	return &in, nil
}

// Middleware records OTel request metrics, echoes the trace ID in X-Trace-ID
// and tags the context logger with it. It goes after TracingMiddleware.
func Middleware() gin.HandlerFunc {
	in, err := newServerInstruments()
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if id := TraceID(ctx); id != "" {
			c.Header(HeaderTraceID, id)
			c.Request = c.Request.WithContext(logging.WithTraceID(ctx, id))
		}

		if in == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		base := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		)

		start := time.Now()
		in.inflight.Add(ctx, 1, base)
		defer in.inflight.Add(ctx, -1, base)

		c.Next()

		done := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
		)
		in.duration.Record(ctx, time.Since(start).Seconds(), done)
		in.requests.Add(ctx, 1, done)
	}
}

// TracingMiddleware starts a server span per request, skipping the /-/
// operational routes.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, opsPrefix)
	}))
}
