package clients

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

// backoff is the retry schedule: exponential growth from the initial interval,
// capped, with symmetric jitter.
type backoff struct {
	attempts   int
	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64
	random     func() float64
}

func newBackoff(rc config.RetryConfig) backoff {
	b := backoff{
		attempts:   rc.MaxAttempts,
		initial:    rc.InitialInterval,
		max:        rc.MaxInterval,
		multiplier: rc.Multiplier,
		jitter:     rc.JitterFactor,
		random:     rand.Float64,
	}

	if b.attempts < 1 {
		b.attempts = 1
	}
	if b.multiplier < 1 {
		b.multiplier = config.DefaultClientRetryMultiplier
	}
	if b.max < b.initial {
		b.max = b.initial
	}

	return b
}

// delay is the wait before retry number n (1 for the first retry).
func (b backoff) delay(n int) time.Duration {
	d := float64(b.initial) * math.Pow(b.multiplier, float64(n-1))
	d = math.Min(d, float64(b.max))

	// random() in [0,1) maps to a factor in [-jitter, +jitter).
	d += d * b.jitter * (2*b.random() - 1)

	return time.Duration(d)
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryableStatus reports whether a response status is worth another attempt.
func retryableStatus(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests
}

// retryableError reports whether a transport error is worth another attempt.
// Nothing is retried once the caller's context has ended.
func retryableError(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
