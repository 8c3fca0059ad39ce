package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	llmcli "github.com/bkyoung/doc-analyzer/internal/adapter/llm/cli"
)

const (
	toolName              = "claude"
	defaultBinary         = "claude"
	defaultTimeout        = 120 * time.Second
	defaultPermissionMode = "bypassPermissions"
)

// defaultTools must include the file-read capability so the tool can open
// the temp image files referenced in the prompt.
const defaultTools = "Read"

// Client abstracts the CLI invocation behaviour the provider needs.
type Client interface {
	Invoke(ctx context.Context, req InvokeRequest) (Envelope, error)
}

// CLIClient invokes the claude binary as a subprocess.
type CLIClient struct {
	binary         string
	permissionMode string
	tools          string
}

// NewCLIClient creates a subprocess-backed client.
func NewCLIClient() *CLIClient {
	return &CLIClient{
		binary:         defaultBinary,
		permissionMode: defaultPermissionMode,
		tools:          defaultTools,
	}
}

// SetBinary overrides the executable name or path (for testing and
// non-standard installs).
func (c *CLIClient) SetBinary(binary string) {
	c.binary = binary
}

// SetPermissionMode overrides the CLI permission mode.
func (c *CLIClient) SetPermissionMode(mode string) {
	c.permissionMode = mode
}

// SetTools overrides the enabled-tools list.
func (c *CLIClient) SetTools(tools string) {
	c.tools = tools
}

// Available checks that the CLI binary is installed and on PATH.
func (c *CLIClient) Available() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("%s CLI not found in PATH: %w", c.binary, err)
	}
	return nil
}

// Invoke runs one blocking CLI call. The timeout is enforced by killing the
// process group when the per-call context deadline passes; no cooperative
// cancellation is signalled to the tool.
func (c *CLIClient) Invoke(ctx context.Context, req InvokeRequest) (Envelope, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{
		"-p", req.Prompt,
		"--output-format", "json",
		"--json-schema", req.SchemaJSON,
		"--tools", c.tools,
		"--permission-mode", c.permissionMode,
		"--model", req.Model,
	}

	// #nosec G204 - the binary is a configured tool name, not user input.
	cmd := exec.CommandContext(cctx, c.binary, args...)

	// Run the CLI in its own process group and kill the whole group
	// (negative PID) on timeout so spawned children die with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if cctx.Err() == context.DeadlineExceeded {
		return Envelope{}, llmcli.NewTimeoutError(toolName,
			fmt.Sprintf("killed after %s", timeout))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return Envelope{}, llmcli.NewUnknownError(toolName, "invocation cancelled")
		}

		message := stderr.String()
		if message == "" {
			message = "unknown CLI error"
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return Envelope{}, llmcli.NewToolError(toolName, message, exitCode)
	}

	var envelope Envelope
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		return Envelope{}, llmcli.NewMalformedResponseError(toolName,
			fmt.Sprintf("parse CLI response: %v: %s", err, llmcli.TruncateForLogging(stdout.String())))
	}

	return envelope, nil
}
