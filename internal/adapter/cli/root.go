package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bkyoung/doc-analyzer/internal/domain"
	"github.com/bkyoung/doc-analyzer/internal/store"
	"github.com/bkyoung/doc-analyzer/internal/usecase/analyze"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// DocumentAnalyzer defines the dependency required to run the analyze command.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req analyze.DocumentRequest) (analyze.Result, error)
}

// RunHistory defines the dependency required to list past runs.
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
	GetInvocationsByRun(ctx context.Context, runID string) ([]store.InvocationRecord, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Analyzer      DocumentAnalyzer
	History       RunHistory // optional; runs command reports absence
	Args          Arguments
	DefaultOutput string
	Version       string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "da",
		Short: "Structured document analysis via a CLI agent",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(analyzeCommand(deps.Analyzer, deps.DefaultOutput))
	root.AddCommand(runsCommand(deps.History))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func analyzeCommand(analyzer DocumentAnalyzer, defaultOutput string) *cobra.Command {
	var prompt string
	var promptFile string
	var imagePaths []string
	var schemaFile string
	var outputDir string
	var documentLabel string
	var model string
	var maxRetries int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "analyze [document]",
		Short: "Analyze a document with a structured output schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if analyzer == nil {
				return fmt.Errorf("analyzer not configured")
			}
			if len(args) > 0 {
				documentLabel = args[0]
			}
			if documentLabel == "" {
				documentLabel = "document"
			}

			resolvedPrompt, err := resolvePrompt(prompt, promptFile)
			if err != nil {
				return err
			}

			if schemaFile == "" {
				return fmt.Errorf("--schema is required")
			}
			schemaBytes, err := os.ReadFile(schemaFile)
			if err != nil {
				return fmt.Errorf("read schema %s: %w", schemaFile, err)
			}
			schema, err := domain.ParseSchema(schemaBytes)
			if err != nil {
				return fmt.Errorf("parse schema %s: %w", schemaFile, err)
			}

			req := analyze.DocumentRequest{
				Document:   documentLabel,
				Prompt:     resolvedPrompt,
				ImagePaths: imagePaths,
				Schema:     schema,
				OutputDir:  outputDir,
				Model:      model,
			}
			if cmd.Flags().Changed("max-retries") {
				if maxRetries < 0 {
					return fmt.Errorf("--max-retries must be non-negative")
				}
				req.MaxRetries = &maxRetries
			}
			if cmd.Flags().Changed("timeout") {
				if timeout <= 0 {
					return fmt.Errorf("--timeout must be positive")
				}
				req.Timeout = &timeout
			}

			result, err := analyzer.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			if result.Unavailable {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "analysis unavailable after %d attempt(s)\n", result.Analysis.Attempts)
				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "analysis complete (%d tokens, %d attempt(s))\n",
				result.Analysis.Usage.Total(), result.Analysis.Attempts)
			if result.JSONPath != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "json: %s\n", result.JSONPath)
			}
			if result.MarkdownPath != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "markdown: %s\n", result.MarkdownPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Analysis prompt text")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "File containing the analysis prompt")
	cmd.Flags().StringSliceVar(&imagePaths, "image", []string{}, "Image file to include (can be repeated)")
	cmd.Flags().StringVar(&schemaFile, "schema", "", "JSON schema file describing the expected structured output")
	if defaultOutput == "" {
		defaultOutput = "out"
	}
	cmd.Flags().StringVar(&outputDir, "output", defaultOutput, "Directory to write analysis artifacts")
	cmd.Flags().StringVar(&documentLabel, "document", "", "Document label used in artifacts (overrides positional)")
	cmd.Flags().StringVar(&model, "model", "", "Model to invoke (overrides config)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "Retries after the first attempt (overrides config)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Per-invocation timeout (overrides config)")

	return cmd
}

func runsCommand(history RunHistory) *cobra.Command {
	var limit int
	var showInvocations bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent analysis runs and their token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if history == nil {
				return fmt.Errorf("run history is disabled; enable the store in configuration")
			}
			if limit <= 0 {
				limit = 10
			}

			runs, err := history.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			for _, run := range runs {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s/%s  %s  tokens=%d requests=%d\n",
					run.RunID,
					run.Timestamp.Format(time.RFC3339),
					run.Tool, run.Model,
					run.Document,
					run.TokensUsed, run.RequestCount,
				)
				if !showInvocations {
					continue
				}
				invs, err := history.GetInvocationsByRun(cmd.Context(), run.RunID)
				if err != nil {
					return fmt.Errorf("list invocations for %s: %w", run.RunID, err)
				}
				for _, inv := range invs {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s  attempts=%d tokens=%d\n",
						inv.InvocationID, inv.Attempts, inv.Usage.Total())
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&showInvocations, "invocations", false, "Show individual invocations per run")

	return cmd
}

// resolvePrompt returns the prompt from the flag or file, requiring exactly one source.
func resolvePrompt(prompt, promptFile string) (string, error) {
	if prompt != "" && promptFile != "" {
		return "", fmt.Errorf("--prompt and --prompt-file are mutually exclusive")
	}
	if promptFile != "" {
		data, err := os.ReadFile(promptFile)
		if err != nil {
			return "", fmt.Errorf("read prompt file %s: %w", promptFile, err)
		}
		prompt = string(data)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("a prompt is required; use --prompt or --prompt-file")
	}
	return prompt, nil
}
