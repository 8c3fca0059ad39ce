package domain

// Usage is the token breakdown reported by the external tool for one call.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	OutputTokens             int `json:"output_tokens"`
}

// Total sums all four counters.
func (u Usage) Total() int {
	return u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens + u.OutputTokens
}

// Analysis is the result of one document-analysis invocation.
//
// An empty payload is the failure sentinel: the adapter absorbs every
// classified error internally and callers must check Empty() rather than
// expect an error.
type Analysis struct {
	Payload  map[string]any `json:"payload"`
	Usage    Usage          `json:"usage"`
	Model    string         `json:"model"`
	Attempts int            `json:"attempts"`
}

// Empty reports whether the analysis carries no structured payload.
func (a Analysis) Empty() bool {
	return len(a.Payload) == 0
}

// JSONArtifact encapsulates the JSON generation inputs.
type JSONArtifact struct {
	OutputDir string
	Document  string
	Tool      string
	Analysis  Analysis
}

// MarkdownArtifact encapsulates the Markdown report generation inputs.
type MarkdownArtifact struct {
	OutputDir string
	Document  string
	Tool      string
	Schema    Schema
	Analysis  Analysis
}
