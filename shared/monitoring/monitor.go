package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Monitor tracks the outcome of the most recent validation run for the
// health endpoint.
type Monitor struct {
	logger         *slog.Logger
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
}

func NewMonitor(logger *slog.Logger) *Monitor {
	return &Monitor{logger: logger}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	m.logger.Info("validation run completed", "summary", summary, "duration", duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Partial failures do not change health status.
	m.logger.Warn("validation run partially failed", "error", err, "duration", duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	m.logger.Error("validation run failed", "error", err, "duration", duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No validation runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last validation run succeeded: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last validation run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}
