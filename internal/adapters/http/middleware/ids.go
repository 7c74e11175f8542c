// Package middleware holds the Gin middleware in front of the quote API:
// request identity, sessions, auth, logging, recovery and deadlines.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// Headers carrying per-request identity.
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
)

type ctxKey uint8

const (
	requestIDKey ctxKey = iota + 1
	correlationIDKey
)

// identity resolves one per-request identifier: from its header, then from
// lookup, otherwise a fresh UUID. The value is echoed in the response header
// and stored under key in the gin context.
type identity struct {
	header string
	key    string

	lookup   func(c *gin.Context) string
	resolved func(c *gin.Context, id string)
	attach   func(ctx context.Context, id string) context.Context
}

var (
	requestIdentity = identity{
		header: HeaderRequestID,
		key:    "request_id",
		attach: func(ctx context.Context, id string) context.Context {
			return logging.WithRequestID(ContextWithRequestID(ctx, id), id)
		},
	}

	correlationIdentity = identity{
		header: HeaderCorrelationID,
		key:    "correlation_id",
		attach: func(ctx context.Context, id string) context.Context {
			return logging.WithCorrelationID(ContextWithCorrelationID(ctx, id), id)
		},
	}
)

func (i identity) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(i.header)
		if id == "" && i.lookup != nil {
			id = i.lookup(c)
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(i.key, id)
		c.Header(i.header, id)

		if i.resolved != nil {
			i.resolved(c, id)
		}
		if i.attach != nil {
			c.Request = c.Request.WithContext(i.attach(c.Request.Context(), id))
		}

		c.Next()
	}
}

func (i identity) from(c *gin.Context) string {
	return c.GetString(i.key)
}

// RequestID tags every request with X-Request-ID, generating one when absent.
// The posts client forwards it on outbound calls.
func RequestID() gin.HandlerFunc {
	return requestIdentity.middleware()
}

// CorrelationID propagates X-Correlation-ID across the sync round trip.
func CorrelationID() gin.HandlerFunc {
	return correlationIdentity.middleware()
}

// GetRequestID returns the request ID, or "" outside RequestID.
func GetRequestID(c *gin.Context) string {
	return requestIdentity.from(c)
}

// GetCorrelationID returns the correlation ID, or "" outside CorrelationID.
func GetCorrelationID(c *gin.Context) string {
	return correlationIdentity.from(c)
}

// ContextWithRequestID stores id for outbound clients.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores id for outbound clients.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// RequestIDFromContext returns the request ID stored by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation ID stored by CorrelationID.
func CorrelationIDFromContext(ctx context.Context) string {
	return stringValue(ctx, correlationIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}
