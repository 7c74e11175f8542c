package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

// State is the breaker position.
type State int

// Breaker states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

var stateNames = [...]string{"closed", "open", "half-open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Outcome classifies a finished call for the breaker.
type Outcome int

// Call outcomes.
const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	// OutcomeIgnored is a call the caller abandoned; it says nothing about
	// the remote.
	OutcomeIgnored
)

type transition struct {
	from, to State
}

// Breaker stops calls to a failing remote. It opens after MaxFailures
// consecutive failures, admits up to HalfOpenLimit trial calls once Timeout
// has passed, and closes after HalfOpenLimit trial successes. A failed trial
// reopens it.
type Breaker struct {
	mu       sync.Mutex
	cfg      config.CircuitBreakerConfig
	state    State
	gen      uint64 // bumped on every transition; stale releases are dropped
	streak   int    // failures while closed, successes while half-open
	trials   int    // half-open calls in flight
	openedAt time.Time

	notify func(from, to State)
	clock  func() time.Time
}

// NewBreaker creates a closed breaker. notify, when set, is called after
// every state change outside the breaker's lock.
func NewBreaker(cfg config.CircuitBreakerConfig, notify func(from, to State)) *Breaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = config.DefaultClientCircuitMaxFailures
	}
	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = config.DefaultClientCircuitHalfOpenLimit
	}

	return &Breaker{cfg: cfg, notify: notify, clock: time.Now}
}

// Acquire admits a call or returns ErrCircuitOpen. The returned release must
// be called with the call's outcome; extra calls are no-ops.
func (b *Breaker) Acquire() (func(Outcome), error) {
	b.mu.Lock()

	var moved *transition

	switch b.state {
	case StateClosed:
	case StateOpen:
		if b.clock().Sub(b.openedAt) < b.cfg.Timeout {
			b.mu.Unlock()
			return nil, ErrCircuitOpen
		}

		moved = b.moveTo(StateHalfOpen)

		fallthrough
	case StateHalfOpen:
		if b.trials >= b.cfg.HalfOpenLimit {
			b.mu.Unlock()
			b.announce(moved)
			return nil, ErrCircuitOpen
		}

		b.trials++
	}

	gen := b.gen
	b.mu.Unlock()
	b.announce(moved)

	var once sync.Once

	return func(o Outcome) {
		once.Do(func() { b.finish(gen, o) })
	}, nil
}

// State returns the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

func (b *Breaker) finish(gen uint64, o Outcome) {
	b.mu.Lock()

	if gen != b.gen {
		b.mu.Unlock()
		return
	}

	var moved *transition

	switch b.state {
	case StateClosed:
		switch o {
		case OutcomeSuccess:
			b.streak = 0
		case OutcomeFailure:
			b.streak++
			if b.streak >= b.cfg.MaxFailures {
				moved = b.moveTo(StateOpen)
			}
		}

	case StateHalfOpen:
		b.trials--

		switch o {
		case OutcomeSuccess:
			b.streak++
			if b.streak >= b.cfg.HalfOpenLimit {
				moved = b.moveTo(StateClosed)
			}
		case OutcomeFailure:
			moved = b.moveTo(StateOpen)
		}
	}

	b.mu.Unlock()
	b.announce(moved)
}

// moveTo changes state with the lock held.
func (b *Breaker) moveTo(to State) *transition {
	t := &transition{from: b.state, to: to}

	b.state = to
	b.gen++
	b.streak = 0
	b.trials = 0

	if to == StateOpen {
		b.openedAt = b.clock()
	}

	return t
}

func (b *Breaker) announce(t *transition) {
	if t != nil && b.notify != nil {
		b.notify(t.from, t.to)
	}
}
