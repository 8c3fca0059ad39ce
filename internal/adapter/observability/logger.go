package observability

import (
	"context"

	llmcli "github.com/bkyoung/doc-analyzer/internal/adapter/llm/cli"
	"github.com/bkyoung/doc-analyzer/internal/usecase/analyze"
)

// AnalyzeLogger adapts llmcli.Logger to the analyze.Logger interface.
// This allows the analyze orchestrator to use the same structured logging
// infrastructure as the CLI invocation clients.
type AnalyzeLogger struct {
	logger llmcli.Logger
}

// NewAnalyzeLogger creates a new analyze logger adapter.
func NewAnalyzeLogger(logger llmcli.Logger) analyze.Logger {
	return &AnalyzeLogger{logger: logger}
}

// LogWarning logs a warning message with structured fields.
// Delegates to the underlying llmcli.Logger for consistent structured logging.
func (l *AnalyzeLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
// Delegates to the underlying llmcli.Logger for consistent structured logging.
func (l *AnalyzeLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}
