package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds API requests other than manual sync.
const DefaultRequestTimeout = 30 * time.Second

// syncRoute runs without the request deadline; the posts client retry budget
// bounds it instead.
const syncRoute = "/api/v1/sync"

// RouterConfig carries what SetupRouter wires. Nil handlers are skipped.
type RouterConfig struct {
	Logger     *slog.Logger
	AuthConfig *config.AuthConfig
	AppConfig  *config.AppConfig

	HealthHandler   *handlers.HealthHandler
	QuoteHandler    *handlers.QuoteHandler
	CategoryHandler *handlers.CategoryHandler
	SyncHandler     *handlers.SyncHandler

	// SessionTTL is the session cookie lifetime.
	SessionTTL time.Duration

	// Timeout is the API request deadline. Zero disables it.
	Timeout time.Duration
}

// SetupRouter installs the global middleware chain (recovery, request and
// correlation IDs, tracing, request metrics, access log), the /-/ operational
// routes and the /api/v1 quote API. API routes carry a session; writes go
// through RequireAuth.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(cfg.AppConfig.Name),
		telemetry.Middleware(),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.Mount(engine)
	}

	api := engine.Group("/api/v1", middleware.Session(cfg.SessionTTL))
	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout, syncRoute))
	}

	write := middleware.RequireAuth(cfg.AuthConfig)

	if h := cfg.QuoteHandler; h != nil {
		h.RegisterQuoteRoutes(api, write)
	}
	if h := cfg.CategoryHandler; h != nil {
		h.RegisterCategoryRoutes(api, write)
	}
	if h := cfg.SyncHandler; h != nil {
		h.RegisterSyncRoutes(api, write)
	}
}
