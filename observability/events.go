package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"presalechain/core/events"
)

type ledgerMetrics struct {
	operations *prometheus.CounterVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics
)

// Ledger returns the metrics registry tracking presale ledger events.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "presale",
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Count of ledger events segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(ledgerRegistry.operations)
	})
	return ledgerRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *ledgerMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.operations.WithLabelValues(normalized).Inc()
}

// MeteredEmitter counts every emitted event before forwarding it to the next
// emitter in the chain. A nil next emitter only counts.
type MeteredEmitter struct {
	next events.Emitter
}

// NewMeteredEmitter wraps next with event counting.
func NewMeteredEmitter(next events.Emitter) *MeteredEmitter {
	return &MeteredEmitter{next: next}
}

// Emit implements events.Emitter.
func (m *MeteredEmitter) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	Ledger().RecordEvent(evt.EventType())
	if m.next != nil {
		m.next.Emit(evt)
	}
}
