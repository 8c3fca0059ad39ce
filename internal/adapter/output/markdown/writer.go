package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/doc-analyzer/internal/domain"
)

type clock func() string

// Writer renders analyses into Markdown reports.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk.
func (w *Writer) Write(ctx context.Context, artifact domain.MarkdownArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s.md",
		sanitise(artifact.Document),
		sanitise(artifact.Tool),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact domain.MarkdownArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)
	builder.WriteString("# Document Analysis Report\n\n")
	builder.WriteString(fmt.Sprintf("- Document: %s\n", artifact.Document))
	builder.WriteString(fmt.Sprintf("- Tool: %s (%s)\n", artifact.Tool, artifact.Analysis.Model))
	builder.WriteString(fmt.Sprintf("- Attempts: %d\n", artifact.Analysis.Attempts))
	builder.WriteString(fmt.Sprintf("- Tokens: %d\n\n", artifact.Analysis.Usage.Total()))

	if artifact.Analysis.Empty() {
		builder.WriteString("No analysis produced.\n")
		return builder.String()
	}

	// Schema-declared fields first, in stable order, then anything the
	// tool returned beyond the schema.
	declared := make([]string, 0, len(artifact.Schema.Properties))
	for name := range artifact.Schema.Properties {
		declared = append(declared, name)
	}
	sort.Strings(declared)

	for _, name := range declared {
		value, ok := artifact.Analysis.Payload[name]
		builder.WriteString(fmt.Sprintf("## %s\n\n", caser.String(headingFor(name))))
		if !ok {
			builder.WriteString("Not provided.\n\n")
			continue
		}
		builder.WriteString(renderValue(value))
		builder.WriteString("\n")
	}

	extras := make([]string, 0)
	for name := range artifact.Analysis.Payload {
		if _, ok := artifact.Schema.Properties[name]; !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)

	if len(extras) > 0 {
		builder.WriteString("## Additional Fields\n\n")
		for _, name := range extras {
			builder.WriteString(fmt.Sprintf("- %s: %s", name, renderValue(artifact.Analysis.Payload[name])))
		}
	}

	return builder.String()
}

func renderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v + "\n"
	case []any:
		var b strings.Builder
		for _, item := range v {
			b.WriteString(fmt.Sprintf("- %v\n", item))
		}
		return b.String()
	default:
		return fmt.Sprintf("%v\n", v)
	}
}

func headingFor(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
