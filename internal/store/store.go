package store

import (
	"context"
	"time"

	"github.com/bkyoung/doc-analyzer/internal/domain"
)

// Store defines the persistence layer interface for analysis run history
// and token usage accounting.
type Store interface {
	// Run management
	CreateRun(ctx context.Context, run Run) error
	UpdateRunUsage(ctx context.Context, runID string, tokensUsed, requestCount int) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Invocation persistence
	RecordInvocation(ctx context.Context, inv InvocationRecord) error
	GetInvocationsByRun(ctx context.Context, runID string) ([]InvocationRecord, error)

	// Utility
	Close() error
}

// Run represents a single document analysis execution.
type Run struct {
	RunID        string
	Timestamp    time.Time
	Tool         string
	Model        string
	Document     string
	TokensUsed   int
	RequestCount int
}

// InvocationRecord stores the outcome of one backend invocation,
// including its per-category token breakdown.
type InvocationRecord struct {
	InvocationID string
	RunID        string
	Attempts     int
	Usage        domain.Usage
	CreatedAt    time.Time
}
