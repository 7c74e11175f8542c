package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// Recovery converts a handler panic into a 500 with the error envelope. It
// goes first in the chain. A response already partly written is left alone.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				recovered(c, logger, r)
			}
		}()

		c.Next()
	}
}

func recovered(c *gin.Context, logger *slog.Logger, r any) {
	ctx := c.Request.Context()
	traceID := dto.TraceID(c)

	logging.FromContextOr(ctx, logger).ErrorContext(ctx, "handler panicked",
		slog.String("panic", fmt.Sprint(r)),
		slog.String("route", c.FullPath()),
		slog.String("method", c.Request.Method),
		slog.String("trace_id", traceID),
		slog.String("stack", string(debug.Stack())),
	)

	if c.Writer.Written() {
		c.Abort()
		return
	}

	body := dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID)
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
