package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	// HeaderSessionID carries the session identifier for API clients.
	HeaderSessionID = "X-Session-ID"

	// CookieSessionID carries the session identifier for browsers.
	CookieSessionID = "session_id"
)

// Session resolves the session ID from X-Session-ID, then the session_id
// cookie, issuing a new UUID when neither is present. The cookie is refreshed
// on every request and lives as long as ttl.
func Session(ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)

	return identity{
		header: HeaderSessionID,
		key:    "session_id",
		lookup: func(c *gin.Context) string {
			id, _ := c.Cookie(CookieSessionID)
			return id
		},
		resolved: func(c *gin.Context, id string) {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieSessionID, id, maxAge, "/", "", false, true)
		},
		attach: logging.WithSessionID,
	}.middleware()
}

// GetSessionID returns the session ID resolved by Session, or "".
func GetSessionID(c *gin.Context) string {
	return c.GetString("session_id")
}
