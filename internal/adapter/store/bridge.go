package store

import (
	"context"

	"github.com/bkyoung/doc-analyzer/internal/store"
	"github.com/bkyoung/doc-analyzer/internal/usecase/analyze"
)

// Bridge adapts store.Store to the analyze.Ledger interface.
// This avoids circular dependencies between packages.
type Bridge struct {
	store store.Store
}

// NewBridge creates a new store adapter.
func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// CreateRun records the start of an analysis run.
func (b *Bridge) CreateRun(ctx context.Context, run analyze.LedgerRun) error {
	return b.store.CreateRun(ctx, store.Run{
		RunID:     run.RunID,
		Timestamp: run.Timestamp,
		Tool:      run.Tool,
		Model:     run.Model,
		Document:  run.Document,
	})
}

// RecordInvocation records one backend invocation outcome.
func (b *Bridge) RecordInvocation(ctx context.Context, inv analyze.LedgerInvocation) error {
	record := store.InvocationRecord{
		InvocationID: inv.InvocationID,
		RunID:        inv.RunID,
		Attempts:     inv.Attempts,
		Usage:        inv.Usage,
		CreatedAt:    inv.CreatedAt,
	}
	if record.InvocationID == "" {
		record.InvocationID = store.GenerateInvocationID(inv.RunID, inv.Attempts)
	}
	return b.store.RecordInvocation(ctx, record)
}

// UpdateRunUsage adds usage totals to a run.
func (b *Bridge) UpdateRunUsage(ctx context.Context, runID string, tokensUsed, requestCount int) error {
	return b.store.UpdateRunUsage(ctx, runID, tokensUsed, requestCount)
}
