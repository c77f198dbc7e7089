package recovery

import (
	"sync"
	"time"
)

const errorHistoryLimit = 100

// Metrics tallies recovery outcomes for one workflow run. Safe for concurrent
// use, although the run loop is the only writer in practice.
type Metrics struct {
	mu         sync.Mutex
	successful int
	failed     int
	degraded   int
	history    []HistoryEntry
}

// HistoryEntry records one classified failure for later inspection.
type HistoryEntry struct {
	Stage     string
	Severity  Severity
	Strategy  Strategy
	Message   string
	Timestamp time.Time
}

// Snapshot is a point-in-time copy of the recovery counters.
type Snapshot struct {
	SuccessfulRecoveries int
	FailedRecoveries     int
	DegradedExecutions   int
	SuccessRate          float64
	ErrorHistoryCount    int
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record notes the outcome of one recovery attempt.
func (m *Metrics) Record(entry HistoryEntry, recovered bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case entry.Strategy == StrategyGracefulDegradation:
		m.degraded++
		m.successful++
	case recovered:
		m.successful++
	default:
		m.failed++
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	m.history = append(m.history, entry)
	if len(m.history) > errorHistoryLimit {
		m.history = m.history[len(m.history)-errorHistoryLimit:]
	}
}

// RecoveryMetrics returns the current counters and derived success rate.
func (m *Metrics) RecoveryMetrics() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.successful + m.failed
	rate := 0.0
	if total > 0 {
		rate = float64(m.successful) / float64(total)
	}
	return Snapshot{
		SuccessfulRecoveries: m.successful,
		FailedRecoveries:     m.failed,
		DegradedExecutions:   m.degraded,
		SuccessRate:          rate,
		ErrorHistoryCount:    len(m.history),
	}
}

// History returns a copy of the bounded error history.
func (m *Metrics) History() []HistoryEntry {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}

// ResetMetrics clears all counters and the error history.
func (m *Metrics) ResetMetrics() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successful = 0
	m.failed = 0
	m.degraded = 0
	m.history = nil
}
