package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Phase names a stage of a collection commit.
type Phase string

// Commit phases, in execution order.
const (
	PhaseCheck   Phase = "check"
	PhasePersist Phase = "persist"
	PhaseVerify  Phase = "verify"
	PhaseApply   Phase = "apply"
)

// CommitError reports the phase in which a commit stopped.
type CommitError struct {
	Op    string
	Phase Phase
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Phase, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase a commit failed in, if err came from one.
func PhaseOf(err error) (Phase, bool) {
	var ce *CommitError
	if errors.As(err, &ce) {
		return ce.Phase, true
	}
	return "", false
}

// commit writes a candidate collection to durable storage and, once the
// write reads back intact, makes it current. Each phase runs only if the
// previous one succeeded; apply is never reached after a failed persist or
// verify, so memory keeps the last committed state. Once persist starts the
// caller's cancellation no longer applies: a write that lands is always
// verified and applied.
type commit[T any] struct {
	op      string
	check   func(T) error
	persist func(context.Context, T) (string, error)
	verify  func(context.Context, string) error
	apply   func(T)
}

func (c commit[T]) run(ctx context.Context, logger *slog.Logger, candidate T) error {
	start := time.Now()

	fail := func(phase Phase, err error) error {
		logger.WarnContext(ctx, "commit failed",
			slog.String("operation", c.op),
			slog.String("phase", string(phase)),
			slog.Any("error", err))
		return &CommitError{Op: c.op, Phase: phase, Err: err}
	}

	if c.check != nil {
		if err := c.check(candidate); err != nil {
			return fail(PhaseCheck, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fail(PhasePersist, err)
	}

	durable := context.WithoutCancel(ctx)

	written, err := c.persist(durable, candidate)
	if err != nil {
		return fail(PhasePersist, err)
	}

	if c.verify != nil {
		if err := c.verify(durable, written); err != nil {
			return fail(PhaseVerify, err)
		}
	}

	c.apply(candidate)

	logger.DebugContext(ctx, "commit applied",
		slog.String("operation", c.op),
		slog.Duration("took", time.Since(start)))

	return nil
}
