//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	httpadapter "github.com/jsamuelsen/quotekeeper/internal/adapters/http"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/bootstrap"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

// remotePost mirrors the posts service payload.
type remotePost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// fakePosts is an in-process posts service whose contents and health the
// tests control.
type fakePosts struct {
	*httptest.Server

	mu           sync.Mutex
	posts        []remotePost
	failures     int // remaining requests answered with 503
	down         bool
	lastHeaders  http.Header
	createdCount atomic.Int32
}

func newFakePosts() *fakePosts {
	fp := &fakePosts{}
	fp.Server = httptest.NewServer(http.HandlerFunc(fp.serve))
	return fp
}

func (fp *fakePosts) serve(w http.ResponseWriter, r *http.Request) {
	fp.mu.Lock()
	fp.lastHeaders = r.Header.Clone()
	fail := fp.down || fp.failures > 0
	if fp.failures > 0 {
		fp.failures--
	}
	posts := append([]remotePost(nil), fp.posts...)
	fp.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/posts":
		_ = json.NewEncoder(w).Encode(posts)
	case r.Method == http.MethodGet && r.URL.Path == "/posts/1":
		_ = json.NewEncoder(w).Encode(remotePost{ID: 1})
	case r.Method == http.MethodPost && r.URL.Path == "/posts":
		fp.createdCount.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":101}`)
	default:
		http.NotFound(w, r)
	}
}

func (fp *fakePosts) setPosts(bodies ...string) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	fp.posts = fp.posts[:0]
	for i, body := range bodies {
		fp.posts = append(fp.posts, remotePost{ID: i + 1, UserID: 1, Title: fmt.Sprintf("post %d", i+1), Body: body})
	}
}

func (fp *fakePosts) setDown(down bool) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	fp.down = down
}

func (fp *fakePosts) failNext(n int) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	fp.failures = n
}

func (fp *fakePosts) header(name string) string {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.lastHeaders == nil {
		return ""
	}
	return fp.lastHeaders.Get(name)
}

// stack is the quote service running in-process on a loopback port.
type stack struct {
	baseURL    string
	cfg        *config.Config
	components *bootstrap.Components
	server     *httpadapter.Server
	scheduler  *app.Scheduler
	cancel     context.CancelFunc
	served     chan error
}

// stackConfig returns a config rooted at dir talking to postsURL. The
// scheduler is disabled so tests drive sync explicitly.
func stackConfig(dir, postsURL string) (*config.Config, error) {
	cfg, err := config.LoadDir(dir, "")
	if err != nil {
		return nil, err
	}

	cfg.App.Environment = "test"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = filepath.Join(dir, "quotes.db")
	cfg.Services.Posts.BaseURL = postsURL
	cfg.Client.Retry.MaxAttempts = 1
	cfg.Client.Retry.InitialInterval = 10 * time.Millisecond
	cfg.Client.Retry.MaxInterval = 100 * time.Millisecond
	cfg.Sync.Enabled = false

	return cfg, cfg.Validate()
}

// startStack wires the service exactly as cmd/service does and serves it.
func startStack(cfg *config.Config) (*stack, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	components, err := bootstrap.Build(context.Background(), cfg, logger, nil)
	if err != nil {
		return nil, err
	}

	scheduler, err := components.Scheduler()
	if err != nil {
		_ = components.Close()
		return nil, err
	}
	scheduler.Start(context.Background())

	server := httpadapter.New(&cfg.Server, logger)
	httpadapter.SetupRouter(server.Engine(), httpadapter.RouterConfig{
		Logger:          logger,
		AuthConfig:      &cfg.Auth,
		AppConfig:       &cfg.App,
		HealthHandler:   handlers.NewHealthHandler(components.Health, handlers.BuildInfo{Version: "integration"}, nil),
		QuoteHandler:    handlers.NewQuoteHandler(components.Quotes, components.Store),
		CategoryHandler: handlers.NewCategoryHandler(components.Quotes),
		SyncHandler:     handlers.NewSyncHandler(components.Sync, components.Notifications),
		SessionTTL:      cfg.Store.SessionTTL,
		Timeout:         httpadapter.DefaultRequestTimeout,
	})

	if err := server.Listen(); err != nil {
		_ = scheduler.Stop()
		_ = components.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- server.Serve(ctx) }()

	return &stack{
		baseURL:    "http://" + server.Addr(),
		cfg:        cfg,
		components: components,
		server:     server,
		scheduler:  scheduler,
		cancel:     cancel,
		served:     served,
	}, nil
}

func (s *stack) stop() error {
	s.cancel()

	return errors.Join(
		<-s.served,
		s.scheduler.Stop(),
		s.components.Close(),
	)
}

// do sends a request to the stack with the given session.
func (s *stack) do(method, path, contentType string, body io.Reader, session string) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if session != "" {
		req.Header.Set(middleware.HeaderSessionID, session)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)

	return resp, data, err
}
