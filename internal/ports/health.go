package ports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// ErrDuplicateChecker is returned when a check name is registered twice.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// DefaultCheckTimeout bounds a single check when the caller's context has no
// earlier deadline.
const DefaultCheckTimeout = 2 * time.Second

// HealthChecker is implemented by components that can report their health.
// The durable store and the posts client register themselves at startup.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthRegistry aggregates component checks into one readiness verdict.
type HealthRegistry interface {
	// Register adds a checker. Returns ErrDuplicateChecker on a name clash.
	Register(checker HealthChecker) error

	// CheckAll runs every registered check concurrently.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the verdict of one check or of the whole registry.
type HealthStatus string

const (
	HealthStatusHealthy HealthStatus = "healthy"

	// HealthStatusDegraded means only advisory checks failed. The service
	// keeps answering; quotes stay local until the remote side recovers.
	HealthStatusDegraded HealthStatus = "degraded"

	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Ready reports whether traffic should be routed to the service.
func (s HealthStatus) Ready() bool {
	return s != HealthStatusUnhealthy
}

// HealthResult is the aggregated outcome of CheckAll.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Advisory  bool         `json:"advisory,omitempty"`
	LatencyMS float64      `json:"latency_ms"`
}

// Advisory wraps a checker whose failure degrades the service instead of
// taking it out of rotation.
func Advisory(checker HealthChecker) HealthChecker {
	return advisory{checker}
}

type advisory struct {
	HealthChecker
}

// Registry is the concurrent HealthRegistry used by both binaries.
type Registry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
	timeout  time.Duration
}

// NewHealthRegistry creates a registry bounding each check by timeout. A
// non-positive timeout leaves checks bounded only by the caller's context.
func NewHealthRegistry(timeout time.Duration) *Registry {
	return &Registry{timeout: timeout}
}

// Register implements HealthRegistry.
func (r *Registry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if slices.ContainsFunc(r.checkers, func(c HealthChecker) bool { return c.Name() == name }) {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// Names returns the registered check names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.checkers))
	for i, c := range r.checkers {
		names[i] = c.Name()
	}
	return names
}

// CheckAll implements HealthRegistry. The overall status is unhealthy if any
// required check fails, degraded if only advisory checks fail.
func (r *Registry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Go(func() { results[i] = r.run(ctx, checker) })
	}
	wg.Wait()

	out := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now().UTC(),
	}

	for i, checker := range checkers {
		res := results[i]
		out.Checks[checker.Name()] = res
		out.Status = worse(out.Status, res.Status)
	}

	return out
}

func (r *Registry) run(ctx context.Context, checker HealthChecker) *CheckResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	_, optional := checker.(advisory)

	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{
		Status:    HealthStatusHealthy,
		Advisory:  optional,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}

	switch {
	case err == nil:
	case optional:
		res.Status = HealthStatusDegraded
		res.Message = err.Error()
	default:
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	return res
}

var severity = map[HealthStatus]int{
	HealthStatusHealthy:   0,
	HealthStatusDegraded:  1,
	HealthStatusUnhealthy: 2,
}

func worse(a, b HealthStatus) HealthStatus {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
