package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics aggregates per-outcome turn counters for the assistant.
type Metrics struct {
	mu sync.Mutex

	turnTotal  atomic.Int64
	turnFailed atomic.Int64

	outcomeMetrics map[string]*OutcomeMetrics
}

// OutcomeMetrics holds the counters for one turn outcome.
type OutcomeMetrics struct {
	count         atomic.Int64
	totalDuration atomic.Int64 // milliseconds
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		outcomeMetrics: make(map[string]*OutcomeMetrics),
	}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordTurn records a handled turn with its outcome and duration.
func (m *Metrics) RecordTurn(outcome string, duration time.Duration) {
	m.turnTotal.Add(1)
	om := m.getOutcomeMetrics(outcome)
	om.count.Add(1)
	om.totalDuration.Add(duration.Milliseconds())
}

// RecordFailure records a turn that ended with an error response.
func (m *Metrics) RecordFailure() {
	m.turnFailed.Add(1)
}

// GetTurnTotal returns the total number of handled turns.
func (m *Metrics) GetTurnTotal() int64 {
	return m.turnTotal.Load()
}

// GetTurnFailed returns the total number of failed turns.
func (m *Metrics) GetTurnFailed() int64 {
	return m.turnFailed.Load()
}

func (m *Metrics) getOutcomeMetrics(outcome string) *OutcomeMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.outcomeMetrics[outcome]
	if !ok {
		om = &OutcomeMetrics{}
		m.outcomeMetrics[outcome] = om
	}
	return om
}

// Reset clears all counters. Useful in tests.
func (m *Metrics) Reset() {
	m.turnTotal.Store(0)
	m.turnFailed.Store(0)

	m.mu.Lock()
	m.outcomeMetrics = make(map[string]*OutcomeMetrics)
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcomes := make(map[string]OutcomeSnapshot, len(m.outcomeMetrics))
	for outcome, om := range m.outcomeMetrics {
		count := om.count.Load()
		snap := OutcomeSnapshot{
			Count:         count,
			TotalDuration: om.totalDuration.Load(),
		}
		if count > 0 {
			snap.AverageDuration = snap.TotalDuration / count
		}
		outcomes[outcome] = snap
	}

	return &MetricsSnapshot{
		TurnTotal:  m.turnTotal.Load(),
		TurnFailed: m.turnFailed.Load(),
		Outcomes:   outcomes,
	}
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	TurnTotal  int64                      `json:"turn_total"`
	TurnFailed int64                      `json:"turn_failed"`
	Outcomes   map[string]OutcomeSnapshot `json:"outcomes"`
}

// OutcomeSnapshot is the per-outcome view.
type OutcomeSnapshot struct {
	Count           int64 `json:"count"`
	TotalDuration   int64 `json:"total_duration_ms"`
	AverageDuration int64 `json:"average_duration_ms"`
}
