package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

// Logger provides structured logging for CLI tool invocations.
type Logger interface {
	// LogRequest logs an outgoing invocation attempt
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs a completed invocation with timing and token info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs a failed invocation attempt
	LogError(ctx context.Context, err ErrorLog)

	// LogWarning logs a warning message with structured fields
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational message with structured fields
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains invocation information for logging.
type RequestLog struct {
	Tool         string
	Model        string
	Timestamp    time.Time
	Attempt      int
	PromptChars  int
	PromptTokens int // Estimated, not billed
	ImageFiles   int
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Tool        string
	Model       string
	Timestamp   time.Time
	Duration    time.Duration
	Attempt     int
	TokensUsed  int
	TokensIn    int
	TokensOut   int
	IsError     bool
	EmptyResult bool
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Tool      string
	Model     string
	Timestamp time.Time
	Duration  time.Duration
	Attempt   int
	Error     error
	ErrorType ErrorType
	Retryable bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes logs in structured format to stdout.
type DefaultLogger struct {
	level  LogLevel
	format LogFormat
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		format: format,
	}
}

// LogRequest logs an invocation attempt.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"debug","type":"request","tool":"%s","model":"%s","timestamp":"%s","attempt":%d,"prompt_chars":%d,"prompt_tokens":%d,"image_files":%d}`,
			req.Tool, req.Model, req.Timestamp.Format(time.RFC3339),
			req.Attempt, req.PromptChars, req.PromptTokens, req.ImageFiles)
	} else {
		log.Printf("[DEBUG] %s/%s: invoking (attempt=%d, prompt=%d chars ~%d tokens, images=%d)",
			req.Tool, req.Model, req.Attempt, req.PromptChars, req.PromptTokens, req.ImageFiles)
	}
}

// LogResponse logs a completed invocation.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"info","type":"response","tool":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"attempt":%d,"tokens_used":%d,"tokens_in":%d,"tokens_out":%d,"is_error":%t,"empty_result":%t}`,
			resp.Tool, resp.Model, resp.Timestamp.Format(time.RFC3339),
			resp.Duration.Milliseconds(), resp.Attempt, resp.TokensUsed,
			resp.TokensIn, resp.TokensOut, resp.IsError, resp.EmptyResult)
	} else {
		log.Printf("[INFO] %s/%s: response received (duration=%.1fs, attempt=%d, tokens=%d/%d, empty=%t)",
			resp.Tool, resp.Model, resp.Duration.Seconds(), resp.Attempt,
			resp.TokensIn, resp.TokensOut, resp.EmptyResult)
	}
}

// LogError logs a failed invocation attempt.
func (l *DefaultLogger) LogError(ctx context.Context, err ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	retryableStr := "non-retryable"
	if err.Retryable {
		retryableStr = "retryable"
	}

	if l.format == LogFormatJSON {
		log.Printf(`{"level":"error","type":"error","tool":"%s","model":"%s","timestamp":"%s","duration_ms":%d,"attempt":%d,"error":"%s","error_type":%d,"retryable":%t}`,
			err.Tool, err.Model, err.Timestamp.Format(time.RFC3339),
			err.Duration.Milliseconds(), err.Attempt, err.Error.Error(),
			err.ErrorType, err.Retryable)
	} else {
		log.Printf("[ERROR] %s/%s: invocation failed (attempt=%d, %s, %s): %v",
			err.Tool, err.Model, err.Attempt, err.ErrorType.String(), retryableStr, err.Error)
	}
}

// LogWarning logs a warning message with structured fields.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelError {
		return
	}
	l.logStructured("warning", "WARN", message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.logStructured("info", "INFO", message, fields)
}

func (l *DefaultLogger) logStructured(level, tag, message string, fields map[string]interface{}) {
	if l.format == LogFormatJSON {
		entry := make(map[string]interface{}, len(fields)+3)
		for k, v := range fields {
			entry[k] = v
		}
		entry["level"] = level
		entry["message"] = message
		entry["timestamp"] = time.Now().Format(time.RFC3339)

		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf("[%s] %s", tag, message)
			return
		}
		log.Printf("%s", data)
		return
	}

	if len(fields) == 0 {
		log.Printf("[%s] %s", tag, message)
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, fields[k])
	}
	log.Printf("[%s] %s (%s)", tag, message, b.String())
}
