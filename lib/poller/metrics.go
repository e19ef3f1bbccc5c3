package poller

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleetwatch",
		Name:      "poll_cycles_total",
		Help:      "Completed poll cycles.",
	})
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetwatch",
		Name:      "feed_fetches_total",
		Help:      "Feed fetch attempts by outcome.",
	}, []string{"outcome"})
	transitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fleetwatch",
		Name:      "status_transitions_total",
		Help:      "Vehicle status transitions persisted.",
	})
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fleetwatch",
		Name:      "notifications_total",
		Help:      "Notification deliveries by kind and outcome.",
	}, []string{"kind", "outcome"})
)

// cycleMetrics accumulates one cycle's counts for the summary log line.
// Worker goroutines share it, hence the lock.
type cycleMetrics struct {
	mu sync.Mutex

	total     int
	updated   int
	unchanged int
	skipped   int
	errored   int
	notified  int
}

func (m *cycleMetrics) add(other tickResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	switch {
	case other.errored:
		m.errored++
	case other.skipped:
		m.skipped++
	case other.changed:
		m.updated++
	default:
		m.unchanged++
	}
	m.notified += other.notified
}

func (m *cycleMetrics) logArgs() []any {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := make([]any, 0, 10)
	if m.updated != 0 {
		args = append(args, "updated", m.updated)
	}
	if m.unchanged != 0 {
		args = append(args, "unchanged", m.unchanged)
	}
	if m.skipped != 0 {
		args = append(args, "skipped", m.skipped)
	}
	if m.errored != 0 {
		args = append(args, "errored", m.errored)
	}
	if m.notified != 0 {
		args = append(args, "notified", m.notified)
	}
	return args
}
