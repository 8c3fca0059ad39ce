package cli

import "fmt"

const (
	// MaxLoggedResponseLength is the maximum length of tool output to include
	// in logs. Responses longer than this are truncated so document content
	// does not leak into log aggregators wholesale.
	MaxLoggedResponseLength = 200
)

// TruncateForLogging safely truncates tool output for logging purposes.
//
// Returns the first MaxLoggedResponseLength characters plus a truncation
// indicator if truncated.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}
