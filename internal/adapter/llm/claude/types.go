package claude

import (
	"time"

	"github.com/bkyoung/doc-analyzer/internal/domain"
)

// InvokeRequest is the outbound payload for one CLI invocation.
type InvokeRequest struct {
	Prompt     string
	SchemaJSON string
	Model      string
	Timeout    time.Duration

	// Attempt is 1-indexed and only used for logging.
	Attempt int
}

// Envelope is the JSON object the CLI prints on stdout.
type Envelope struct {
	IsError          bool           `json:"is_error"`
	StructuredOutput map[string]any `json:"structured_output"`
	Usage            domain.Usage   `json:"usage"`
}

// EmptyPayload reports whether the envelope carries no structured output.
func (e Envelope) EmptyPayload() bool {
	return len(e.StructuredOutput) == 0
}
