package cli_test

import (
	"sync"
	"testing"
	"time"

	llmcli "github.com/bkyoung/doc-analyzer/internal/adapter/llm/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMetrics_Records(t *testing.T) {
	m := llmcli.NewDefaultMetrics()

	m.RecordRequest("claude", "sonnet")
	m.RecordRequest("claude", "sonnet")
	m.RecordRetry("claude", "sonnet")
	m.RecordDuration("claude", "sonnet", 2*time.Second)
	m.RecordTokens("claude", "sonnet", 100, 40)
	m.RecordError("claude", "sonnet", llmcli.ErrTypeTimeout)

	stats := m.GetStats()
	assert.Equal(t, 2, stats.TotalRequests)
	assert.Equal(t, 1, stats.TotalRetries)
	assert.Equal(t, 100, stats.TotalTokensIn)
	assert.Equal(t, 40, stats.TotalTokensOut)
	assert.Equal(t, 2*time.Second, stats.TotalDuration)
	assert.Equal(t, 1, stats.ErrorCount)

	ts, ok := stats.ByTool["claude"]
	require.True(t, ok)
	assert.Equal(t, 2, ts.Requests)
	assert.Equal(t, 1, ts.Retries)
	assert.Equal(t, 1, ts.Errors)
}

func TestDefaultMetrics_GetStatsReturnsCopy(t *testing.T) {
	m := llmcli.NewDefaultMetrics()
	m.RecordRequest("claude", "sonnet")

	stats := m.GetStats()
	stats.ByTool["claude"] = llmcli.ToolStats{Requests: 99}

	assert.Equal(t, 1, m.GetStats().ByTool["claude"].Requests)
}

func TestDefaultMetrics_ConcurrentAccess(t *testing.T) {
	m := llmcli.NewDefaultMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordRequest("claude", "sonnet")
				m.RecordTokens("claude", "sonnet", 1, 1)
				_ = m.GetStats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, m.GetStats().TotalRequests)
}

func TestTruncateForLogging(t *testing.T) {
	t.Run("short strings pass through", func(t *testing.T) {
		assert.Equal(t, "short", llmcli.TruncateForLogging("short"))
	})

	t.Run("long strings are truncated with an indicator", func(t *testing.T) {
		long := make([]byte, 500)
		for i := range long {
			long[i] = 'x'
		}
		out := llmcli.TruncateForLogging(string(long))
		assert.Contains(t, out, "truncated")
		assert.Less(t, len(out), 300)
	})
}
