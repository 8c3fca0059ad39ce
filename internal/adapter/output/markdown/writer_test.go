package markdown_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/doc-analyzer/internal/adapter/output/markdown"
	"github.com/bkyoung/doc-analyzer/internal/domain"
)

func testArtifact(dir string) domain.MarkdownArtifact {
	return domain.MarkdownArtifact{
		OutputDir: dir,
		Document:  "Quarterly Report.pdf",
		Tool:      "claude",
		Schema: domain.Schema{
			Title: "DocumentAnalysis",
			Properties: map[string]domain.Property{
				"summary":    {Type: "string"},
				"key_points": {Type: "array", Items: &domain.Property{Type: "string"}},
				"sentiment":  {Type: "string"},
			},
			Required: []string{"summary"},
		},
		Analysis: domain.Analysis{
			Payload: map[string]any{
				"summary":    "Revenue grew.",
				"key_points": []any{"growth", "margin pressure"},
				"confidence": 0.9,
			},
			Usage:    domain.Usage{InputTokens: 10, OutputTokens: 5},
			Model:    "claude-sonnet",
			Attempts: 2,
		},
	}
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	writer := markdown.NewWriter(func() string { return "20260830T120000Z" })

	path, err := writer.Write(context.Background(), testArtifact(dir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "quarterly-report.pdf_claude_20260830T120000Z.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	assert.Contains(t, content, "# Document Analysis Report")
	assert.Contains(t, content, "- Document: Quarterly Report.pdf")
	assert.Contains(t, content, "- Tool: claude (claude-sonnet)")
	assert.Contains(t, content, "- Attempts: 2")
	assert.Contains(t, content, "- Tokens: 15")
}

func TestWriter_SchemaFieldsInStableOrder(t *testing.T) {
	writer := markdown.NewWriter(func() string { return "ts" })

	path, err := writer.Write(context.Background(), testArtifact(t.TempDir()))
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	// Underscores become spaces and headings are title-cased
	keyPoints := strings.Index(content, "## Key Points")
	sentiment := strings.Index(content, "## Sentiment")
	summary := strings.Index(content, "## Summary")
	require.NotEqual(t, -1, keyPoints)
	require.NotEqual(t, -1, sentiment)
	require.NotEqual(t, -1, summary)
	assert.Less(t, keyPoints, sentiment)
	assert.Less(t, sentiment, summary)

	// Array values render as list items
	assert.Contains(t, content, "- growth\n- margin pressure")

	// A declared field the tool skipped is marked, not dropped
	assert.Contains(t, content, "## Sentiment\n\nNot provided.")

	// Fields beyond the schema are still reported
	assert.Contains(t, content, "## Additional Fields")
	assert.Contains(t, content, "- confidence: 0.9")
}

func TestWriter_EmptyAnalysis(t *testing.T) {
	writer := markdown.NewWriter(func() string { return "ts" })

	artifact := testArtifact(t.TempDir())
	artifact.Analysis.Payload = nil

	path, err := writer.Write(context.Background(), artifact)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "No analysis produced.")
}
