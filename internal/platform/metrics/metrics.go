// Package metrics exposes Prometheus collectors for the quote store and sync loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quotekeeper"

// Sync outcome labels.
const (
	OutcomeReplaced = "replaced"
	OutcomeKept     = "kept"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	syncCycles   *prometheus.CounterVec
	syncDuration prometheus.Histogram
	pushes       *prometheus.CounterVec
	storeWrites  *prometheus.CounterVec
	quotes       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		syncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Sync cycles by outcome.",
		}, []string{"outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of completed sync cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pushes_total",
			Help:      "Quotes pushed to the remote by result.",
		}, []string{"result"}),
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Collection writes by operation and result.",
		}, []string{"operation", "result"}),
		quotes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "quotes",
			Help:      "Quotes currently held in the collection.",
		}),
	}

	for _, c := range []prometheus.Collector{m.syncCycles, m.syncDuration, m.pushes, m.storeWrites, m.quotes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveSync records one sync cycle.
func (m *Metrics) ObserveSync(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.syncCycles.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		m.syncDuration.Observe(elapsed.Seconds())
	}
}

// ObservePush records one push attempt.
func (m *Metrics) ObservePush(err error) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(result(err)).Inc()
}

// ObserveWrite records a collection write and the resulting size.
func (m *Metrics) ObserveWrite(operation string, size int, err error) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(operation, result(err)).Inc()
	if err == nil {
		m.quotes.Set(float64(size))
	}
}

// SetQuotes sets the collection size gauge.
func (m *Metrics) SetQuotes(size int) {
	if m == nil {
		return
	}
	m.quotes.Set(float64(size))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
