package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrSchedulerStarted is returned when registering after Start.
var ErrSchedulerStarted = errors.New("scheduler already started")

// Task is a periodic job. Run is called once at start and then every Interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler runs registered tasks, each on its own goroutine in an errgroup.
// A task run never overlaps with itself: ticks that fire while a run is in
// flight are dropped. Task errors are logged and do not stop the task.
type Scheduler struct {
	mu      sync.Mutex
	tasks   []Task
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	logger  *slog.Logger
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{logger: logger.With(slog.String("component", "app.Scheduler"))}
}

// Register adds a task. It must be called before Start.
func (s *Scheduler) Register(task Task) error {
	if task.Run == nil {
		return fmt.Errorf("task %q has no run function", task.Name)
	}
	if task.Interval <= 0 {
		return fmt.Errorf("task %q needs a positive interval", task.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrSchedulerStarted
	}

	s.tasks = append(s.tasks, task)
	return nil
}

// Start launches every registered task. Tasks stop when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	s.group = g

	for _, task := range s.tasks {
		g.Go(func() error {
			s.loop(gctx, task)
			return nil
		})
	}

	s.logger.InfoContext(ctx, "scheduler started", slog.Int("tasks", len(s.tasks)))
}

// Stop cancels all tasks and waits for in-flight runs to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, group := s.cancel, s.group
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	err := group.Wait()
	s.logger.Info("scheduler stopped")

	return err
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	logger := s.logger.With(slog.String("task", task.Name))

	s.runOnce(ctx, logger, task)

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, logger, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, logger *slog.Logger, task Task) {
	if ctx.Err() != nil {
		return
	}

	if err := task.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.DebugContext(ctx, "task run failed", slog.Any("error", err))
	}
}
