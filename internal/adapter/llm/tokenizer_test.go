package llm_test

import (
	"strings"
	"testing"

	"github.com/bkyoung/doc-analyzer/internal/adapter/llm"
	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	t.Run("empty string", func(t *testing.T) {
		assert.Equal(t, 0, llm.EstimateTokens(""))
	})

	t.Run("short text", func(t *testing.T) {
		count := llm.EstimateTokens("extract the table from this page")
		assert.Greater(t, count, 0)
		assert.Less(t, count, 20)
	})

	t.Run("scales with input size", func(t *testing.T) {
		small := llm.EstimateTokens("word ")
		large := llm.EstimateTokens(strings.Repeat("word ", 1000))
		assert.Greater(t, large, small*100)
	})
}
