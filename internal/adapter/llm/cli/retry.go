package cli

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RetryConfig holds configuration for the invocation retry loop.
type RetryConfig struct {
	MaxRetries int
	WaitTime   time.Duration
}

// DefaultRetryConfig returns the adapter-wide retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		WaitTime:   5 * time.Second,
	}
}

// LinearBackoff returns the wait before the attempt following `attempt`.
// Attempts are 1-indexed, so the delay grows linearly: 1w, 2w, 3w, ...
func LinearBackoff(attempt int, config RetryConfig) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * config.WaitTime
}

// Classifier decides whether a tool-reported error message describes a
// transient failure worth retrying. The default matches on message content
// because the tool exposes no structured error codes; swapping in a
// code-based classifier does not change the loop.
type Classifier func(message string) bool

// DefaultClassifier treats rate-limit style messages as transient.
func DefaultClassifier(message string) bool {
	msg := strings.ToLower(message)
	return strings.Contains(msg, "rate") || strings.Contains(msg, "limit")
}

// ShouldRetry determines if an error is retryable.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr.IsRetryable()
	}

	// Generic errors are not retryable
	return false
}

// Wait sleeps for d with context cancellation support.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
