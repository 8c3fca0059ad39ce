package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/doc-analyzer/internal/adapter/cli"
	"github.com/bkyoung/doc-analyzer/internal/domain"
	"github.com/bkyoung/doc-analyzer/internal/store"
	"github.com/bkyoung/doc-analyzer/internal/usecase/analyze"
)

type stubAnalyzer struct {
	req    analyze.DocumentRequest
	result analyze.Result
	err    error
	called bool
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req analyze.DocumentRequest) (analyze.Result, error) {
	s.called = true
	s.req = req
	return s.result, s.err
}

type stubHistory struct {
	runs []store.Run
	invs map[string][]store.InvocationRecord
}

func (s *stubHistory) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func (s *stubHistory) GetInvocationsByRun(ctx context.Context, runID string) ([]store.InvocationRecord, error) {
	return s.invs[runID], nil
}

func writeSchemaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	schema := `{"title":"DocumentAnalysis","type":"object","properties":{"summary":{"type":"string"}},"required":["summary"]}`
	require.NoError(t, os.WriteFile(path, []byte(schema), 0o644))
	return path
}

func runCommand(t *testing.T, deps cli.Dependencies, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Args = cli.Arguments{OutWriter: &out, ErrWriter: &errOut}
	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	t.Run("passes flags through to the analyzer", func(t *testing.T) {
		analyzer := &stubAnalyzer{result: analyze.Result{
			Analysis: domain.Analysis{
				Payload:  map[string]any{"summary": "fine"},
				Usage:    domain.Usage{InputTokens: 10, OutputTokens: 5},
				Attempts: 1,
			},
			JSONPath:     "/tmp/out/analysis-claude.json",
			MarkdownPath: "/tmp/out/report.md",
		}}

		out, _, err := runCommand(t, cli.Dependencies{Analyzer: analyzer},
			"analyze", "report.pdf",
			"--prompt", "Summarize this document.",
			"--schema", writeSchemaFile(t),
			"--image", "/tmp/page1.png",
			"--image", "/tmp/page2.png",
			"--output", "/tmp/out",
			"--model", "opus",
			"--max-retries", "4",
			"--timeout", "90s",
		)
		require.NoError(t, err)

		require.True(t, analyzer.called)
		assert.Equal(t, "report.pdf", analyzer.req.Document)
		assert.Equal(t, "Summarize this document.", analyzer.req.Prompt)
		assert.Equal(t, []string{"/tmp/page1.png", "/tmp/page2.png"}, analyzer.req.ImagePaths)
		assert.Equal(t, "/tmp/out", analyzer.req.OutputDir)
		assert.Contains(t, analyzer.req.Schema.Required, "summary")
		assert.Equal(t, "opus", analyzer.req.Model)
		require.NotNil(t, analyzer.req.MaxRetries)
		assert.Equal(t, 4, *analyzer.req.MaxRetries)
		require.NotNil(t, analyzer.req.Timeout)
		assert.Equal(t, 90*time.Second, *analyzer.req.Timeout)

		assert.Contains(t, out, "analysis complete (15 tokens, 1 attempt(s))")
		assert.Contains(t, out, "json: /tmp/out/analysis-claude.json")
		assert.Contains(t, out, "markdown: /tmp/out/report.md")
	})

	t.Run("overrides stay nil when flags are not set", func(t *testing.T) {
		analyzer := &stubAnalyzer{result: analyze.Result{
			Analysis: domain.Analysis{Payload: map[string]any{"summary": "x"}, Attempts: 1},
		}}

		_, _, err := runCommand(t, cli.Dependencies{Analyzer: analyzer},
			"analyze", "report.pdf",
			"--prompt", "Summarize this document.",
			"--schema", writeSchemaFile(t),
		)
		require.NoError(t, err)

		assert.Nil(t, analyzer.req.MaxRetries)
		assert.Nil(t, analyzer.req.Timeout)
		assert.Empty(t, analyzer.req.Model)
	})

	t.Run("reads the prompt from a file", func(t *testing.T) {
		promptPath := filepath.Join(t.TempDir(), "prompt.txt")
		require.NoError(t, os.WriteFile(promptPath, []byte("Extract the key points."), 0o644))

		analyzer := &stubAnalyzer{result: analyze.Result{
			Analysis: domain.Analysis{Payload: map[string]any{"summary": "x"}, Attempts: 1},
		}}

		_, _, err := runCommand(t, cli.Dependencies{Analyzer: analyzer},
			"analyze",
			"--prompt-file", promptPath,
			"--schema", writeSchemaFile(t),
		)
		require.NoError(t, err)
		assert.Equal(t, "Extract the key points.", analyzer.req.Prompt)
		assert.Equal(t, "document", analyzer.req.Document)
	})

	t.Run("rejects prompt and prompt-file together", func(t *testing.T) {
		_, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}},
			"analyze",
			"--prompt", "a",
			"--prompt-file", "b",
			"--schema", writeSchemaFile(t),
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})

	t.Run("requires a schema", func(t *testing.T) {
		_, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}},
			"analyze", "--prompt", "Summarize this document.",
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--schema is required")
	})

	t.Run("rejects an invalid schema file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "schema.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"type":"string"}`), 0o644))

		_, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}},
			"analyze", "--prompt", "p", "--schema", path,
		)
		require.Error(t, err)
	})

	t.Run("rejects a negative max-retries", func(t *testing.T) {
		_, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}},
			"analyze", "--prompt", "p", "--schema", writeSchemaFile(t),
			"--max-retries", "-1",
		)
		require.Error(t, err)
	})

	t.Run("reports unavailable analyses", func(t *testing.T) {
		analyzer := &stubAnalyzer{result: analyze.Result{
			Analysis:    domain.Analysis{Attempts: 3},
			Unavailable: true,
		}}

		out, _, err := runCommand(t, cli.Dependencies{Analyzer: analyzer},
			"analyze", "report.pdf",
			"--prompt", "Summarize this document.",
			"--schema", writeSchemaFile(t),
		)
		require.NoError(t, err)
		assert.Contains(t, out, "analysis unavailable after 3 attempt(s)")
	})
}

func TestRunsCommand(t *testing.T) {
	t.Run("lists recent runs", func(t *testing.T) {
		history := &stubHistory{
			runs: []store.Run{
				{
					RunID:        "run-1",
					Timestamp:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
					Tool:         "claude",
					Model:        "sonnet",
					Document:     "report.pdf",
					TokensUsed:   15,
					RequestCount: 1,
				},
			},
			invs: map[string][]store.InvocationRecord{
				"run-1": {{InvocationID: "inv-run-1-0001", Attempts: 2, Usage: domain.Usage{InputTokens: 10, OutputTokens: 5}}},
			},
		}

		out, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}, History: history},
			"runs", "--invocations",
		)
		require.NoError(t, err)
		assert.Contains(t, out, "run-1")
		assert.Contains(t, out, "claude/sonnet")
		assert.Contains(t, out, "tokens=15 requests=1")
		assert.Contains(t, out, "inv-run-1-0001  attempts=2 tokens=15")
	})

	t.Run("errors when the store is disabled", func(t *testing.T) {
		_, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}}, "runs")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store")
	})

	t.Run("reports empty history", func(t *testing.T) {
		out, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}, History: &stubHistory{}}, "runs")
		require.NoError(t, err)
		assert.Contains(t, out, "no runs recorded")
	})
}

func TestVersionFlag(t *testing.T) {
	out, _, err := runCommand(t, cli.Dependencies{Analyzer: &stubAnalyzer{}, Version: "v1.2.3"}, "--version")
	require.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}
