package orchestrator

import (
	"sync"
	"time"
)

// Metrics aggregates run counters for the lifetime of the orchestrator.
type Metrics struct {
	mu              sync.Mutex
	totalRuns       int
	completed       int
	rejected        int
	failed          int
	totalSteps      int
	agentCalls      map[string]int
	totalDurationMS int64
}

func NewMetrics() *Metrics {
	return &Metrics{agentCalls: make(map[string]int)}
}

func (m *Metrics) RecordRun(env ResponseEnvelope, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRuns++
	switch env.Status {
	case StatusCompleted:
		m.completed++
	case StatusRejected:
		m.rejected++
	case StatusFailed:
		m.failed++
	}
	if env.Results != nil {
		m.totalSteps += len(env.Results.StepsCompleted)
		for _, o := range env.Results.StepsCompleted {
			m.agentCalls[o.Agent]++
		}
	}
	m.totalDurationMS += elapsed.Milliseconds()
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	successRate := 0.0
	avgDuration := int64(0)
	if m.totalRuns > 0 {
		successRate = float64(m.completed) / float64(m.totalRuns)
		avgDuration = m.totalDurationMS / int64(m.totalRuns)
	}

	calls := make(map[string]int, len(m.agentCalls))
	for k, v := range m.agentCalls {
		calls[k] = v
	}

	return map[string]interface{}{
		"total_runs":      m.totalRuns,
		"completed":       m.completed,
		"rejected":        m.rejected,
		"failed":          m.failed,
		"success_rate":    successRate,
		"steps_executed":  m.totalSteps,
		"agent_calls":     calls,
		"avg_duration_ms": avgDuration,
	}
}
