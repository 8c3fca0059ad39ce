package cli

import (
	"sync"
	"time"
)

// Metrics tracks aggregate statistics for CLI invocations.
type Metrics interface {
	// RecordRequest records an invocation attempt
	RecordRequest(tool, model string)

	// RecordRetry records a retried attempt
	RecordRetry(tool, model string)

	// RecordDuration records invocation duration
	RecordDuration(tool, model string, duration time.Duration)

	// RecordTokens records token usage
	RecordTokens(tool, model string, tokensIn, tokensOut int)

	// RecordError records an error
	RecordError(tool, model string, errType ErrorType)

	// GetStats returns current statistics
	GetStats() Stats
}

// Stats contains aggregate statistics.
type Stats struct {
	TotalRequests  int
	TotalRetries   int
	TotalTokensIn  int
	TotalTokensOut int
	TotalDuration  time.Duration
	ErrorCount     int
	ByTool         map[string]ToolStats
}

// ToolStats contains per-tool statistics.
type ToolStats struct {
	Requests  int
	Retries   int
	TokensIn  int
	TokensOut int
	Duration  time.Duration
	Errors    int
}

// DefaultMetrics provides in-memory metrics tracking.
type DefaultMetrics struct {
	mu    sync.RWMutex
	stats Stats
}

// NewDefaultMetrics creates a metrics tracker.
func NewDefaultMetrics() *DefaultMetrics {
	return &DefaultMetrics{
		stats: Stats{
			ByTool: make(map[string]ToolStats),
		},
	}
}

// RecordRequest increments request counters.
func (m *DefaultMetrics) RecordRequest(tool, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRequests++

	ts := m.stats.ByTool[tool]
	ts.Requests++
	m.stats.ByTool[tool] = ts
}

// RecordRetry increments retry counters.
func (m *DefaultMetrics) RecordRetry(tool, model string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalRetries++

	ts := m.stats.ByTool[tool]
	ts.Retries++
	m.stats.ByTool[tool] = ts
}

// RecordDuration records invocation duration.
func (m *DefaultMetrics) RecordDuration(tool, model string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalDuration += duration

	ts := m.stats.ByTool[tool]
	ts.Duration += duration
	m.stats.ByTool[tool] = ts
}

// RecordTokens records token usage.
func (m *DefaultMetrics) RecordTokens(tool, model string, tokensIn, tokensOut int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalTokensIn += tokensIn
	m.stats.TotalTokensOut += tokensOut

	ts := m.stats.ByTool[tool]
	ts.TokensIn += tokensIn
	ts.TokensOut += tokensOut
	m.stats.ByTool[tool] = ts
}

// RecordError records an error.
func (m *DefaultMetrics) RecordError(tool, model string, errType ErrorType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.ErrorCount++

	ts := m.stats.ByTool[tool]
	ts.Errors++
	m.stats.ByTool[tool] = ts
}

// GetStats returns a copy of current statistics.
func (m *DefaultMetrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statsCopy := Stats{
		TotalRequests:  m.stats.TotalRequests,
		TotalRetries:   m.stats.TotalRetries,
		TotalTokensIn:  m.stats.TotalTokensIn,
		TotalTokensOut: m.stats.TotalTokensOut,
		TotalDuration:  m.stats.TotalDuration,
		ErrorCount:     m.stats.ErrorCount,
		ByTool:         make(map[string]ToolStats),
	}

	for k, v := range m.stats.ByTool {
		statsCopy.ByTool[k] = v
	}

	return statsCopy
}
