package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu    sync.Mutex
	moves []string
}

func (r *recorder) notify(from, to State) {
	r.mu.Lock()
	r.moves = append(r.moves, from.String()+"->"+to.String())
	r.mu.Unlock()
}

func newTestBreaker(t *testing.T) (*Breaker, *fakeClock, *recorder) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := &recorder{}

	b := NewBreaker(config.CircuitBreakerConfig{
		MaxFailures:   3,
		Timeout:       10 * time.Second,
		HalfOpenLimit: 2,
	}, rec.notify)
	b.clock = clock.Now

	return b, clock, rec
}

func call(t *testing.T, b *Breaker, o Outcome) {
	t.Helper()

	release, err := b.Acquire()
	require.NoError(t, err)
	release(o)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(7).String())
}

func TestNewBreaker_Defaults(t *testing.T) {
	b := NewBreaker(config.CircuitBreakerConfig{Timeout: time.Second}, nil)

	assert.Equal(t, config.DefaultClientCircuitMaxFailures, b.cfg.MaxFailures)
	assert.Equal(t, config.DefaultClientCircuitHalfOpenLimit, b.cfg.HalfOpenLimit)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _, rec := newTestBreaker(t)

	call(t, b, OutcomeFailure)
	call(t, b, OutcomeFailure)
	assert.Equal(t, StateClosed, b.State())

	call(t, b, OutcomeFailure)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, []string{"closed->open"}, rec.moves)

	_, err := b.Acquire()
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_SuccessResetsStreak(t *testing.T) {
	b, _, _ := newTestBreaker(t)

	call(t, b, OutcomeFailure)
	call(t, b, OutcomeFailure)
	call(t, b, OutcomeSuccess)
	call(t, b, OutcomeFailure)
	call(t, b, OutcomeFailure)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IgnoredOutcomeDoesNotCount(t *testing.T) {
	b, _, _ := newTestBreaker(t)

	for range 5 {
		call(t, b, OutcomeIgnored)
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenClosesAfterTrialSuccesses(t *testing.T) {
	b, clock, rec := newTestBreaker(t)

	for range 3 {
		call(t, b, OutcomeFailure)
	}

	clock.Advance(9 * time.Second)
	_, err := b.Acquire()
	require.ErrorIs(t, err, ErrCircuitOpen)

	clock.Advance(time.Second)
	call(t, b, OutcomeSuccess)
	assert.Equal(t, StateHalfOpen, b.State())

	call(t, b, OutcomeSuccess)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, rec.moves)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, clock, _ := newTestBreaker(t)

	for range 3 {
		call(t, b, OutcomeFailure)
	}
	clock.Advance(10 * time.Second)

	call(t, b, OutcomeFailure)
	assert.Equal(t, StateOpen, b.State())

	_, err := b.Acquire()
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_HalfOpenLimitsTrials(t *testing.T) {
	b, clock, _ := newTestBreaker(t)

	for range 3 {
		call(t, b, OutcomeFailure)
	}
	clock.Advance(10 * time.Second)

	first, err := b.Acquire()
	require.NoError(t, err)
	second, err := b.Acquire()
	require.NoError(t, err)

	_, err = b.Acquire()
	assert.ErrorIs(t, err, ErrCircuitOpen)

	first(OutcomeIgnored)
	third, err := b.Acquire()
	require.NoError(t, err)

	second(OutcomeSuccess)
	third(OutcomeSuccess)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_StaleReleaseIsDropped(t *testing.T) {
	b, _, _ := newTestBreaker(t)

	slow, err := b.Acquire()
	require.NoError(t, err)

	for range 3 {
		call(t, b, OutcomeFailure)
	}
	require.Equal(t, StateOpen, b.State())

	// Issued while closed; must not count against the open breaker.
	slow(OutcomeSuccess)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreaker_ReleaseIsIdempotent(t *testing.T) {
	b, _, _ := newTestBreaker(t)

	release, err := b.Acquire()
	require.NoError(t, err)

	for range 5 {
		release(OutcomeFailure)
	}

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_ConcurrentCalls(t *testing.T) {
	b := NewBreaker(config.CircuitBreakerConfig{
		MaxFailures:   1000,
		Timeout:       time.Second,
		HalfOpenLimit: 1,
	}, nil)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			release, err := b.Acquire()
			if err != nil {
				return
			}
			if i%2 == 0 {
				release(OutcomeFailure)
				return
			}
			release(OutcomeSuccess)
		})
	}
	wg.Wait()

	assert.Equal(t, StateClosed, b.State())
}
