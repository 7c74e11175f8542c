// Package bootstrap assembles the quote store, its services and their
// adapters from a loaded configuration. The HTTP service and the quotectl
// CLI share this graph.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// SweepInterval is how often expired session slots are evicted.
const SweepInterval = time.Minute

// Components is the wired application graph.
type Components struct {
	Backend       storage.Backend
	Sessions      *memory.Cache
	Store         *app.QuoteStore
	Quotes        *app.QuoteService
	Sync          *app.SyncService
	Notifications *app.Notifications
	Posts         *acl.PostsClient
	Metrics       *metrics.Metrics
	Health        *ports.Registry

	cfg    *config.Config
	logger *slog.Logger
}

// Build opens the configured backend, rehydrates the collection and the
// persisted category selection, and wires the sync machinery. reg may be nil,
// in which case no metrics are recorded. The caller owns Close.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	var (
		m   *metrics.Metrics
		err error
	)

	if reg != nil {
		m, err = metrics.New(reg)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	backend, err := storage.Open(storage.Config{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	c := &Components{
		Backend:       backend,
		Sessions:      memory.NewCache(),
		Notifications: app.NewNotifications(),
		Metrics:       m,
		Health:        ports.NewHealthRegistry(ports.DefaultCheckTimeout),
		cfg:           cfg,
		logger:        logger,
	}

	if err := c.wire(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}

	return c, nil
}

func (c *Components) wire(ctx context.Context) error {
	cfg := c.cfg

	c.Store = app.NewQuoteStore(app.QuoteStoreConfig{
		KV:      c.Backend,
		Metrics: c.Metrics,
		Logger:  c.logger,
	})

	if err := c.Store.Load(ctx); err != nil {
		return fmt.Errorf("loading quotes: %w", err)
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Posts.BaseURL,
		ServiceName: cfg.Services.Posts.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating posts client: %w", err)
	}

	c.Posts = acl.NewPostsClient(acl.PostsClientConfig{
		Client:    httpClient,
		Category:  cfg.Sync.Category,
		TextField: cfg.Sync.TextField,
		Logger:    c.logger,
	})

	c.Sync = app.NewSyncService(app.SyncServiceConfig{
		Remote:      c.Posts,
		Store:       c.Store,
		Notifier:    c.Notifications,
		Metrics:     c.Metrics,
		PushEnabled: cfg.Sync.PushEnabled,
		Logger:      c.logger,
	})

	c.Quotes = app.NewQuoteService(app.QuoteServiceConfig{
		Store:      c.Store,
		KV:         c.Backend,
		Sessions:   c.Sessions,
		SessionTTL: cfg.Store.SessionTTL,
		Pusher:     c.Sync,
		Logger:     c.logger,
	})

	if _, err := c.Quotes.RestoreSelection(ctx); err != nil {
		return fmt.Errorf("restoring category selection: %w", err)
	}

	for _, checker := range []ports.HealthChecker{c.Backend, ports.Advisory(c.Posts)} {
		if err := c.Health.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	return nil
}

// Scheduler returns a scheduler carrying the session sweep and, when sync is
// enabled, the periodic reconciliation. The caller starts and stops it.
func (c *Components) Scheduler() (*app.Scheduler, error) {
	s := app.NewScheduler(c.logger)

	if err := s.Register(app.Task{
		Name:     "session-sweep",
		Interval: SweepInterval,
		Run:      c.Sessions.Sweep,
	}); err != nil {
		return nil, err
	}

	if c.cfg.Sync.Enabled {
		if err := s.Register(c.Sync.Task(c.cfg.Sync.Interval)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Close releases the durable backend.
func (c *Components) Close() error {
	if err := c.Backend.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	return nil
}
