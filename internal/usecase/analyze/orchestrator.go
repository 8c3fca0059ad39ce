package analyze

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bkyoung/doc-analyzer/internal/domain"
)

// Service is the outbound port for a structured-analysis backend.
//
// Invoke never fails with an error: every classified failure (timeout, tool
// error, malformed output, exhausted retries) is absorbed by the adapter and
// surfaces as an empty analysis. Callers check Analysis.Empty().
type Service interface {
	Invoke(ctx context.Context, req Request) domain.Analysis
}

// MetadataSink receives usage accounting from successful invocations.
// The adapter reports at most one usage event per non-empty result.
type MetadataSink interface {
	AddUsage(tokensUsed, requestCount int)
}

// Request is the payload handed to the analysis service.
type Request struct {
	Prompt string
	Images []image.Image
	Schema domain.Schema

	// Sink is optional; when nil no usage is reported.
	Sink MetadataSink

	// Per-request overrides. Zero values mean use the adapter-wide defaults.
	Model      string
	MaxRetries *int
	Timeout    *time.Duration
}

// ImageLoader decodes image files into in-memory bitmaps.
type ImageLoader interface {
	Load(paths []string) ([]image.Image, error)
}

// JSONWriter persists analysis output to disk.
type JSONWriter interface {
	Write(ctx context.Context, artifact domain.JSONArtifact) (string, error)
}

// MarkdownWriter persists a human-readable analysis report to disk.
type MarkdownWriter interface {
	Write(ctx context.Context, artifact domain.MarkdownArtifact) (string, error)
}

// Ledger records invocation usage for accounting.
type Ledger interface {
	CreateRun(ctx context.Context, run LedgerRun) error
	RecordInvocation(ctx context.Context, inv LedgerInvocation) error
	UpdateRunUsage(ctx context.Context, runID string, tokensUsed, requestCount int) error
}

// LedgerRun identifies one analysis execution.
type LedgerRun struct {
	RunID     string
	Timestamp time.Time
	Tool      string
	Model     string
	Document  string
}

// LedgerInvocation records the outcome of one service invocation.
type LedgerInvocation struct {
	InvocationID string
	RunID        string
	Attempts     int
	Usage        domain.Usage
	CreatedAt    time.Time
}

// Logger provides structured logging for the analyze use case.
type Logger interface {
	// LogWarning logs a warning message with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// OrchestratorDeps captures the collaborators for the analyze use case.
type OrchestratorDeps struct {
	Service  Service
	Images   ImageLoader
	JSON     JSONWriter
	Markdown MarkdownWriter
	Ledger   Ledger // optional
	Logger   Logger // optional
	Tool     string
	Model    string

	// RunID derives a run identifier from the run timestamp and document
	// label. When nil, a random UUID is used.
	RunID func(timestamp time.Time, document string) string
}

// Orchestrator coordinates one document analysis end to end: load images,
// invoke the backend, validate the payload shape, write artifacts, and
// account usage.
type Orchestrator struct {
	deps OrchestratorDeps
	now  func() time.Time
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps, now: time.Now}
}

// DocumentRequest describes one analysis job.
type DocumentRequest struct {
	Document   string // label used in artifacts and the ledger
	Prompt     string
	ImagePaths []string
	Schema     domain.Schema
	OutputDir  string
	Model      string // optional model override
	MaxRetries *int
	Timeout    *time.Duration
}

// Result is the outcome of one analysis job.
type Result struct {
	Analysis     domain.Analysis
	JSONPath     string
	MarkdownPath string

	// Unavailable is set when the backend produced no payload. This is the
	// expected failure mode, not an error.
	Unavailable bool
}

// usageTally accumulates sink reports for one request.
type usageTally struct {
	tokens   int
	requests int
}

func (t *usageTally) AddUsage(tokensUsed, requestCount int) {
	t.tokens += tokensUsed
	t.requests += requestCount
}

// Analyze runs one document analysis.
func (o *Orchestrator) Analyze(ctx context.Context, req DocumentRequest) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, fmt.Errorf("prompt must not be empty")
	}
	if o.deps.Service == nil {
		return Result{}, fmt.Errorf("analysis service missing")
	}

	var images []image.Image
	if len(req.ImagePaths) > 0 {
		if o.deps.Images == nil {
			return Result{}, fmt.Errorf("image loader missing")
		}
		loaded, err := o.deps.Images.Load(req.ImagePaths)
		if err != nil {
			return Result{}, fmt.Errorf("load images: %w", err)
		}
		images = loaded
	}

	tally := &usageTally{}
	analysis := o.deps.Service.Invoke(ctx, Request{
		Prompt:     req.Prompt,
		Images:     images,
		Schema:     req.Schema,
		Sink:       tally,
		Model:      req.Model,
		MaxRetries: req.MaxRetries,
		Timeout:    req.Timeout,
	})

	if err := o.record(ctx, req, analysis, tally); err != nil {
		return Result{}, err
	}

	if analysis.Empty() {
		o.logWarning(ctx, "analysis unavailable", map[string]interface{}{
			"document": req.Document,
			"attempts": analysis.Attempts,
		})
		return Result{Analysis: analysis, Unavailable: true}, nil
	}

	if missing := req.Schema.MissingRequired(analysis.Payload); len(missing) > 0 {
		o.logWarning(ctx, "payload missing required fields", map[string]interface{}{
			"document": req.Document,
			"fields":   strings.Join(missing, ","),
		})
	}

	result := Result{Analysis: analysis}

	if o.deps.JSON != nil {
		path, err := o.deps.JSON.Write(ctx, domain.JSONArtifact{
			OutputDir: req.OutputDir,
			Document:  req.Document,
			Tool:      o.deps.Tool,
			Analysis:  analysis,
		})
		if err != nil {
			return Result{}, fmt.Errorf("write json artifact: %w", err)
		}
		result.JSONPath = path
	}

	if o.deps.Markdown != nil {
		path, err := o.deps.Markdown.Write(ctx, domain.MarkdownArtifact{
			OutputDir: req.OutputDir,
			Document:  req.Document,
			Tool:      o.deps.Tool,
			Schema:    req.Schema,
			Analysis:  analysis,
		})
		if err != nil {
			return Result{}, fmt.Errorf("write markdown artifact: %w", err)
		}
		result.MarkdownPath = path
	}

	o.logInfo(ctx, "analysis complete", map[string]interface{}{
		"document":    req.Document,
		"attempts":    analysis.Attempts,
		"tokens_used": tally.tokens,
	})

	return result, nil
}

func (o *Orchestrator) record(ctx context.Context, req DocumentRequest, analysis domain.Analysis, tally *usageTally) error {
	if o.deps.Ledger == nil {
		return nil
	}

	now := o.now()
	runID := uuid.NewString()
	if o.deps.RunID != nil {
		runID = o.deps.RunID(now, req.Document)
	}

	model := analysis.Model
	if model == "" {
		model = o.deps.Model
	}

	if err := o.deps.Ledger.CreateRun(ctx, LedgerRun{
		RunID:     runID,
		Timestamp: now,
		Tool:      o.deps.Tool,
		Model:     model,
		Document:  req.Document,
	}); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	// InvocationID is left blank; the ledger derives one from the run ID.
	if err := o.deps.Ledger.RecordInvocation(ctx, LedgerInvocation{
		RunID:     runID,
		Attempts:  analysis.Attempts,
		Usage:     analysis.Usage,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}

	if tally.tokens > 0 {
		if err := o.deps.Ledger.UpdateRunUsage(ctx, runID, tally.tokens, tally.requests); err != nil {
			return fmt.Errorf("record usage: %w", err)
		}
	}

	return nil
}

func (o *Orchestrator) logWarning(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
	}
}

func (o *Orchestrator) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
	}
}
