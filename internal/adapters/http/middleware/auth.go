package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

const (
	defaultSubjectHeader = "X-User-ID"
	defaultScopesHeader  = "X-User-Scopes"

	callerKey = "caller"
)

// Caller is the identity an upstream gateway vouches for. The service trusts
// the headers and does no token checks of its own.
type Caller struct {
	Subject string
	Scopes  []string
}

// Can reports whether the caller was granted scope.
func (c *Caller) Can(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// CallerFrom reads the caller from the configured headers. Scopes are
// space-separated.
func CallerFrom(c *gin.Context, cfg *config.AuthConfig) *Caller {
	subject, scopes := defaultSubjectHeader, defaultScopesHeader
	if cfg != nil {
		subject = cmpOr(cfg.SubjectHeader, subject)
		scopes = cmpOr(cfg.ScopesHeader, scopes)
	}

	return &Caller{
		Subject: strings.TrimSpace(c.GetHeader(subject)),
		Scopes:  strings.Fields(c.GetHeader(scopes)),
	}
}

// GetCaller returns the caller admitted by RequireAuth, or nil.
func GetCaller(c *gin.Context) *Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*Caller)
	return caller
}

// RequireAuth guards the mutating quote routes. With auth disabled it lets
// everything through. Otherwise a request needs a subject (403 without one)
// and, when cfg.WriteScope is set, that scope.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || !cfg.Enabled {
			c.Next()
			return
		}

		caller := CallerFrom(c, cfg)

		switch {
		case caller.Subject == "":
			dto.AbortWithCode(c, dto.ErrorCodeForbidden, "authentication required")
			return
		case cfg.WriteScope != "" && !caller.Can(cfg.WriteScope):
			dto.AbortWithCode(c, dto.ErrorCodeForbidden, "missing scope "+cfg.WriteScope)
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

func cmpOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
