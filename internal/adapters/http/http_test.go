package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServerConfig(maxBody int64) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MaxRequestSize:  maxBody,
	}
}

func testRouterConfig(t *testing.T, auth bool) RouterConfig {
	t.Helper()

	logger := discardLogger()
	kv := memory.NewStore()

	store := app.NewQuoteStore(app.QuoteStoreConfig{KV: kv, Logger: logger})
	require.NoError(t, store.Load(context.Background()))

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store: store, KV: kv, Sessions: memory.NewCache(), Logger: logger,
	})

	return RouterConfig{
		Logger:          logger,
		AuthConfig:      &config.AuthConfig{Enabled: auth},
		AppConfig:       &config.AppConfig{Name: "quotekeeper-test", Environment: "test", Version: "1.0.0"},
		HealthHandler:   handlers.NewHealthHandler(ports.NewHealthRegistry(ports.DefaultCheckTimeout), handlers.BuildInfo{Version: "1.0.0"}, nil),
		QuoteHandler:    handlers.NewQuoteHandler(service, store),
		CategoryHandler: handlers.NewCategoryHandler(service),
		SessionTTL:      time.Minute,
		Timeout:         DefaultRequestTimeout,
	}
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig(1 << 20)
	cfg.Port = 8080
	logger := discardLogger()

	srv := New(cfg, logger)

	require.NotNil(t, srv)
	assert.NotNil(t, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())
}

func TestServerAddr_IPv6(t *testing.T) {
	cfg := testServerConfig(1 << 20)
	cfg.Host = "::1"
	cfg.Port = 3000

	assert.Equal(t, "[::1]:3000", New(cfg, discardLogger()).Addr())
}

func TestServerServe_DrainsOnCancel(t *testing.T) {
	srv := New(testServerConfig(1<<20), discardLogger())
	srv.Engine().GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	require.NoError(t, srv.Listen())
	assert.NotEqual(t, "127.0.0.1:0", srv.Addr(), "bound address should carry the real port")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/ping", srv.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServerShutdown_StopsServe(t *testing.T) {
	srv := New(testServerConfig(1<<20), discardLogger())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return srv.Addr() != "127.0.0.1:0" }, time.Second, 5*time.Millisecond)
	require.NoError(t, srv.Shutdown(context.Background()))

	assert.NoError(t, <-done)
}

func TestServerListen_AddressInUse(t *testing.T) {
	first := New(testServerConfig(1<<20), discardLogger())
	require.NoError(t, first.Listen())
	require.NoError(t, first.Listen(), "second Listen is a no-op")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- first.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	cfg := testServerConfig(1 << 20)
	host, port := splitAddr(t, first.Addr())
	cfg.Host = host
	cfg.Port = port

	second := New(cfg, discardLogger())
	assert.Error(t, second.Listen())
	assert.Error(t, second.Serve(context.Background()))
}

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()

	i := strings.LastIndex(addr, ":")
	require.Positive(t, i)

	var port int
	_, err := fmt.Sscanf(addr[i+1:], "%d", &port)
	require.NoError(t, err)

	return addr[:i], port
}

func TestSetupRouter_RegistersRoutes(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		SetupRouter(engine, testRouterConfig(t, false))
	})

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /-/live",
		"GET /-/ready",
		"GET /-/metrics",
		"GET /api/v1/quotes",
		"POST /api/v1/quotes",
		"GET /api/v1/quotes/random",
		"GET /api/v1/quotes/last",
		"GET /api/v1/quotes/export",
		"POST /api/v1/quotes/import",
		"GET /api/v1/categories",
		"PUT /api/v1/categories/selected",
	} {
		assert.True(t, routes[want], "missing route: %s", want)
	}

	assert.False(t, routes["POST /api/v1/sync"], "sync routes need a sync handler")
}

func TestSetupRouter_SessionAndIDHeaders(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, testRouterConfig(t, false))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes/random", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderCorrelationID))
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderSessionID))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(middleware.HeaderSessionID), "ops routes carry no session")
}

func TestSetupRouter_WritesRequireAuthWhenEnabled(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, testRouterConfig(t, true))

	body := `{"text":"Be yourself.","category":"Life"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	assert.Equal(t, http.StatusOK, w.Code, "reads stay open")
}

func TestSetupRouter_RecoversPanics(t *testing.T) {
	engine := gin.New()
	cfg := testRouterConfig(t, false)
	SetupRouter(engine, cfg)
	engine.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestMaxBodySizeMiddleware(t *testing.T) {
	srv := New(testServerConfig(16), discardLogger())
	srv.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, "%d", len(body))
	})

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
