package analyze

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
// Used to pick the human log format when running interactively and the
// JSON format when output is piped or running under CI.
//
// Example:
//
//	if analyze.IsTTY(os.Stdout.Fd()) {
//	    // human-readable logs
//	}
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// IsOutputTerminal reports whether stdout is attached to a terminal.
func IsOutputTerminal() bool {
	return IsTTY(os.Stdout.Fd())
}
