package claude

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/bkyoung/doc-analyzer/internal/adapter/llm"
	llmcli "github.com/bkyoung/doc-analyzer/internal/adapter/llm/cli"
	"github.com/bkyoung/doc-analyzer/internal/domain"
	"github.com/bkyoung/doc-analyzer/internal/usecase/analyze"
)

// Compile-time interface check
var _ analyze.Service = (*Provider)(nil)

// ImageStore persists in-memory bitmaps to addressable temp files for the
// duration of one invocation.
type ImageStore interface {
	// Save writes each image to a uniquely named file and returns the paths
	// in input order. On failure it returns the paths written so far.
	Save(images []image.Image) ([]string, error)

	// Cleanup removes the files best-effort; failures are logged, not raised.
	Cleanup(paths []string)
}

// Provider implements the analyze Service port on top of the claude CLI.
//
// Every classified failure is absorbed here: the retry loop runs bounded
// sequential attempts, and when they are exhausted or a terminal error is
// hit the caller gets an empty analysis, never an error.
type Provider struct {
	model      string
	client     Client
	images     ImageStore
	retry      llmcli.RetryConfig
	timeout    time.Duration
	classifier llmcli.Classifier
	logger     llmcli.Logger
	metrics    llmcli.Metrics
}

// NewProvider constructs a Provider for the supplied model.
func NewProvider(model string, client Client, images ImageStore) *Provider {
	return &Provider{
		model:      model,
		client:     client,
		images:     images,
		retry:      llmcli.DefaultRetryConfig(),
		timeout:    defaultTimeout,
		classifier: llmcli.DefaultClassifier,
	}
}

// SetRetryConfig overrides the adapter-wide retry defaults.
func (p *Provider) SetRetryConfig(cfg llmcli.RetryConfig) {
	p.retry = cfg
}

// SetTimeout overrides the adapter-wide per-call timeout.
func (p *Provider) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		p.timeout = timeout
	}
}

// SetClassifier replaces the transient-error classifier.
func (p *Provider) SetClassifier(classifier llmcli.Classifier) {
	if classifier != nil {
		p.classifier = classifier
	}
}

// SetLogger attaches a structured logger.
func (p *Provider) SetLogger(logger llmcli.Logger) {
	p.logger = logger
}

// SetMetrics attaches a metrics tracker.
func (p *Provider) SetMetrics(metrics llmcli.Metrics) {
	p.metrics = metrics
}

// Invoke runs the bounded retry loop around the CLI call.
func (p *Provider) Invoke(ctx context.Context, req analyze.Request) domain.Analysis {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	empty := domain.Analysis{Model: model}

	if p.client == nil {
		p.logFailure(ctx, model, 0, 0, llmcli.NewUnknownError(toolName, "client missing"), true)
		return empty
	}

	schemaJSON, err := req.Schema.Document()
	if err != nil {
		p.logFailure(ctx, model, 0, 0, llmcli.NewUnknownError(toolName, err.Error()), true)
		return empty
	}

	maxRetries := p.retry.MaxRetries
	if req.MaxRetries != nil && *req.MaxRetries >= 0 {
		maxRetries = *req.MaxRetries
	}
	timeout := p.timeout
	if req.Timeout != nil && *req.Timeout > 0 {
		timeout = *req.Timeout
	}

	var tempPaths []string
	if len(req.Images) > 0 {
		if p.images == nil {
			p.logFailure(ctx, model, 0, 0, llmcli.NewUnknownError(toolName, "image store missing"), true)
			return empty
		}
		paths, saveErr := p.images.Save(req.Images)
		tempPaths = paths
		// Scoped cleanup: runs on every exit path below.
		defer p.images.Cleanup(tempPaths)
		if saveErr != nil {
			p.logFailure(ctx, model, 0, 0, llmcli.NewUnknownError(toolName, fmt.Sprintf("save images: %v", saveErr)), true)
			return empty
		}
	}

	prompt := promptWithImages(req.Prompt, tempPaths)
	promptTokens := llm.EstimateTokens(prompt)

	totalAttempts := maxRetries + 1
	attemptsMade := 0

	for attempt := 1; attempt <= totalAttempts; attempt++ {
		attemptsMade = attempt
		p.recordAttempt(model, attempt)
		if p.logger != nil {
			p.logger.LogRequest(ctx, llmcli.RequestLog{
				Tool:         toolName,
				Model:        model,
				Timestamp:    time.Now(),
				Attempt:      attempt,
				PromptChars:  len(prompt),
				PromptTokens: promptTokens,
				ImageFiles:   len(tempPaths),
			})
		}

		start := time.Now()
		envelope, invokeErr := p.client.Invoke(ctx, InvokeRequest{
			Prompt:     prompt,
			SchemaJSON: string(schemaJSON),
			Model:      model,
			Timeout:    timeout,
			Attempt:    attempt,
		})
		duration := time.Since(start)
		if p.metrics != nil {
			p.metrics.RecordDuration(toolName, model, duration)
		}

		if invokeErr != nil {
			classified := p.classify(invokeErr)
			terminal := !classified.IsRetryable() || attempt == totalAttempts
			p.logFailure(ctx, model, attempt, duration, classified, terminal)

			if terminal {
				break
			}

			wait := llmcli.LinearBackoff(attempt, llmcli.RetryConfig{WaitTime: p.retry.WaitTime})
			if werr := llmcli.Wait(ctx, wait); werr != nil {
				break
			}
			continue
		}

		total := envelope.Usage.Total()
		tokensIn := envelope.Usage.InputTokens + envelope.Usage.CacheCreationInputTokens + envelope.Usage.CacheReadInputTokens
		if p.metrics != nil {
			p.metrics.RecordTokens(toolName, model, tokensIn, envelope.Usage.OutputTokens)
		}
		if p.logger != nil {
			p.logger.LogResponse(ctx, llmcli.ResponseLog{
				Tool:        toolName,
				Model:       model,
				Timestamp:   time.Now(),
				Duration:    duration,
				Attempt:     attempt,
				TokensUsed:  total,
				TokensIn:    tokensIn,
				TokensOut:   envelope.Usage.OutputTokens,
				IsError:     envelope.IsError,
				EmptyResult: envelope.EmptyPayload(),
			})
		}

		if !envelope.EmptyPayload() {
			// Exactly one usage report per successful call, never per
			// empty attempt.
			if req.Sink != nil && total > 0 {
				req.Sink.AddUsage(total, 1)
			}
			return domain.Analysis{
				Payload:  envelope.StructuredOutput,
				Usage:    envelope.Usage,
				Model:    model,
				Attempts: attempt,
			}
		}

		// Empty payload: retry immediately, no backoff.
		if attempt < totalAttempts {
			continue
		}
	}

	empty.Attempts = attemptsMade
	return empty
}

// classify maps an invocation error to its retry classification. Tool
// errors are subclassified by message content: rate-limit style messages
// become retryable, everything else stays terminal.
func (p *Provider) classify(err error) *llmcli.Error {
	var cliErr *llmcli.Error
	if !errors.As(err, &cliErr) {
		return llmcli.NewUnknownError(toolName, err.Error())
	}

	if cliErr.Type == llmcli.ErrTypeTool && p.classifier(cliErr.Message) {
		rated := llmcli.NewRateLimitError(toolName, cliErr.Message)
		rated.ExitCode = cliErr.ExitCode
		return rated
	}

	return cliErr
}

func (p *Provider) recordAttempt(model string, attempt int) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordRequest(toolName, model)
	if attempt > 1 {
		p.metrics.RecordRetry(toolName, model)
	}
}

// logFailure records the error metric and logs the failure. An attempt the
// loop will retry logs at warning severity; terminal failures and the final
// exhausted attempt log at error severity.
func (p *Provider) logFailure(ctx context.Context, model string, attempt int, duration time.Duration, err *llmcli.Error, terminal bool) {
	if p.metrics != nil {
		p.metrics.RecordError(toolName, model, err.Type)
	}
	if p.logger == nil {
		return
	}

	if !terminal {
		p.logger.LogWarning(ctx, "invocation failed, retrying", map[string]interface{}{
			"tool":       toolName,
			"model":      model,
			"attempt":    attempt,
			"error":      err.Error(),
			"error_type": err.Type.String(),
		})
		return
	}

	p.logger.LogError(ctx, llmcli.ErrorLog{
		Tool:      toolName,
		Model:     model,
		Timestamp: time.Now(),
		Duration:  duration,
		Attempt:   attempt,
		Error:     err,
		ErrorType: err.Type,
		Retryable: err.IsRetryable(),
	})
}

// promptWithImages prepends an enumerated list of image references
// instructing the tool to read each file by path.
func promptWithImages(prompt string, paths []string) string {
	if len(paths) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString("The following images are provided for analysis. Use the Read tool to view them:\n")
	for i, path := range paths {
		fmt.Fprintf(&b, "- Image %d: %s\n", i+1, path)
	}
	b.WriteString("\n")
	b.WriteString(prompt)
	return b.String()
}
