package app

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/metrics"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// SyncResult describes one sync cycle.
type SyncResult struct {
	// Outcome is one of the metrics.Outcome* labels.
	Outcome string `json:"outcome"`

	// Count is the collection size after the cycle.
	Count int `json:"count"`
}

// SyncService reconciles the local collection with the remote one. The remote
// always wins: when the serialized forms differ the local collection is
// replaced wholesale.
type SyncService struct {
	remote      ports.RemoteQuotes
	store       *QuoteStore
	notifier    *Notifications
	metrics     *metrics.Metrics
	pushEnabled bool
	logger      *slog.Logger

	running atomic.Bool
}

// SyncServiceConfig contains the sync service's dependencies.
type SyncServiceConfig struct {
	Remote      ports.RemoteQuotes
	Store       *QuoteStore
	Notifier    *Notifications
	Metrics     *metrics.Metrics
	PushEnabled bool
	Logger      *slog.Logger
}

// NewSyncService creates the service. Panics if Remote, Store or Notifier is nil.
func NewSyncService(cfg SyncServiceConfig) *SyncService {
	if cfg.Remote == nil || cfg.Store == nil || cfg.Notifier == nil {
		panic("SyncService: Remote, Store and Notifier are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SyncService{
		remote:      cfg.Remote,
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		pushEnabled: cfg.PushEnabled,
		logger:      logger.With(slog.String("component", "app.SyncService")),
	}
}

// Sync runs one cycle. A cycle that starts while another is in flight is
// skipped. Fetch failures are logged and returned; they never touch the store
// or the notification.
func (s *SyncService) Sync(ctx context.Context) (SyncResult, error) {
	logger := logging.FromContextOr(ctx, s.logger)

	if !s.running.CompareAndSwap(false, true) {
		s.metrics.ObserveSync(metrics.OutcomeSkipped, 0)
		logger.DebugContext(ctx, "sync already running, skipping")
		return SyncResult{Outcome: metrics.OutcomeSkipped, Count: s.store.Len()}, nil
	}
	defer s.running.Store(false)

	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "sync.cycle")

	result, err := s.cycle(ctx, logger)
	span.SetAttributes(attribute.String("sync.outcome", result.Outcome))
	telemetry.EndSpan(span, err)

	s.metrics.ObserveSync(result.Outcome, time.Since(start))

	return result, err
}

func (s *SyncService) cycle(ctx context.Context, logger *slog.Logger) (SyncResult, error) {
	remote, err := s.remote.FetchAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "fetching remote quotes failed", slog.Any("error", err))
		return SyncResult{Outcome: metrics.OutcomeError, Count: s.store.Len()}, err
	}

	current := s.store.Snapshot()

	decision, err := domain.Reconcile(current, remote)
	if err != nil {
		logger.ErrorContext(ctx, "comparing collections failed", slog.Any("error", err))
		return SyncResult{Outcome: metrics.OutcomeError, Count: len(current)}, err
	}

	if decision == domain.DecisionKeep {
		logger.DebugContext(ctx, "local quotes match remote")
		return SyncResult{Outcome: metrics.OutcomeKept, Count: len(current)}, nil
	}

	if err := s.store.ReplaceAll(ctx, remote); err != nil {
		logger.ErrorContext(ctx, "replacing local quotes failed", slog.Any("error", err))
		return SyncResult{Outcome: metrics.OutcomeError, Count: len(current)}, err
	}

	s.notifier.Publish(MsgQuotesSynced)
	logger.InfoContext(ctx, "quotes replaced from remote",
		slog.Int("previous", len(current)),
		slog.Int("count", len(remote)))

	return SyncResult{Outcome: metrics.OutcomeReplaced, Count: len(remote)}, nil
}

// Push sends quote to the remote collection when pushing is enabled.
// Failures are logged only.
func (s *SyncService) Push(ctx context.Context, quote domain.Quote) {
	if !s.pushEnabled {
		return
	}

	logger := logging.FromContextOr(ctx, s.logger)

	ctx, span := telemetry.StartSpan(ctx, "sync.push")
	err := s.remote.Create(ctx, quote)
	telemetry.EndSpan(span, err)

	s.metrics.ObservePush(err)

	if err != nil {
		logger.ErrorContext(ctx, "pushing quote failed", slog.Any("error", err))
		return
	}

	s.notifier.Publish(MsgQuotePushed)
}

// Task returns the scheduler task for periodic sync.
func (s *SyncService) Task(interval time.Duration) Task {
	return Task{
		Name:     "sync",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := s.Sync(ctx)
			return err
		},
	}
}
