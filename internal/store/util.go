package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateRunID creates a unique, time-ordered run ID.
// Format: run-<timestamp>-<hash>
// Example: run-20260830T143052Z-a3f9c2
func GenerateRunID(timestamp time.Time, document string) string {
	// Use UTC timestamp in ISO format for consistent ordering
	ts := timestamp.UTC().Format("20060102T150405Z")

	// Short hash from document name and nanoseconds for uniqueness
	input := fmt.Sprintf("%s|%d", document, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3]) // 6 character hash

	return fmt.Sprintf("run-%s-%s", ts, shortHash)
}

// GenerateInvocationID creates a unique ID for an invocation.
// Format: inv-<run_id>-<index>
// Index is zero-padded to 4 digits for proper sorting.
func GenerateInvocationID(runID string, index int) string {
	return fmt.Sprintf("inv-%s-%04d", runID, index)
}
