package middleware

import (
	"context"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// Timeout bounds every request context by d, except the routes listed in
// except. Stores and the posts client honour the deadline through ctx.
func Timeout(d time.Duration, except ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(except, c.FullPath()) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
