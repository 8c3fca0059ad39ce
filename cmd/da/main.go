package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bkyoung/doc-analyzer/internal/adapter/cli"
	"github.com/bkyoung/doc-analyzer/internal/adapter/imagestore"
	llmcli "github.com/bkyoung/doc-analyzer/internal/adapter/llm/cli"
	"github.com/bkyoung/doc-analyzer/internal/adapter/llm/claude"
	"github.com/bkyoung/doc-analyzer/internal/adapter/observability"
	"github.com/bkyoung/doc-analyzer/internal/adapter/output/json"
	"github.com/bkyoung/doc-analyzer/internal/adapter/output/markdown"
	storeAdapter "github.com/bkyoung/doc-analyzer/internal/adapter/store"
	"github.com/bkyoung/doc-analyzer/internal/adapter/store/sqlite"
	"github.com/bkyoung/doc-analyzer/internal/config"
	"github.com/bkyoung/doc-analyzer/internal/store"
	"github.com/bkyoung/doc-analyzer/internal/usecase/analyze"
	"github.com/bkyoung/doc-analyzer/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "da",
		EnvPrefix:   "DA",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	// Local overrides layer on top of the discovered config and environment.
	if overrides, ok, oErr := loadLocalOverrides(); oErr != nil {
		return fmt.Errorf("config load failed: %w", oErr)
	} else if ok {
		cfg = config.Merge(cfg, overrides)
	}

	// Timestamp function for deterministic output file naming
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	// Build observability components
	obs := buildObservability(cfg.Observability)

	// Create analyze logger adapter if logging is enabled
	var analyzeLogger analyze.Logger
	if obs.logger != nil {
		analyzeLogger = observability.NewAnalyzeLogger(obs.logger)
	}

	service, err := buildService(cfg, obs)
	if err != nil {
		return err
	}

	// Initialize store if enabled
	var ledger analyze.Ledger
	var history cli.RunHistory
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				ledger = storeAdapter.NewBridge(sqliteStore)
				history = sqliteStore
				defer sqliteStore.Close()
			}
		}
	}

	var jsonWriter analyze.JSONWriter
	if cfg.Output.JSON {
		jsonWriter = json.NewWriter(nowFunc)
	}
	var markdownWriter analyze.MarkdownWriter
	if cfg.Output.Markdown {
		markdownWriter = markdown.NewWriter(nowFunc)
	}

	orchestrator := analyze.NewOrchestrator(analyze.OrchestratorDeps{
		Service:  service,
		Images:   imagestore.NewFileLoader(),
		JSON:     jsonWriter,
		Markdown: markdownWriter,
		Ledger:   ledger,
		Logger:   analyzeLogger,
		Tool:     "claude",
		Model:    cfg.Agent.Model,
		RunID:    store.GenerateRunID,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Analyzer:      orchestrator,
		History:       history,
		DefaultOutput: cfg.Output.Directory,
		Version:       version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildService wires the claude CLI client and provider from configuration.
func buildService(cfg config.Config, obs observabilityComponents) (analyze.Service, error) {
	client := claude.NewCLIClient()
	if cfg.Agent.Binary != "" {
		client.SetBinary(cfg.Agent.Binary)
	}
	if cfg.Agent.PermissionMode != "" {
		client.SetPermissionMode(cfg.Agent.PermissionMode)
	}
	if cfg.Agent.Tools != "" {
		client.SetTools(cfg.Agent.Tools)
	}

	images := imagestore.NewTempStore(cfg.Images.Directory)
	if cfg.Images.Quality != 0 {
		images.SetQuality(cfg.Images.Quality)
	}

	provider := claude.NewProvider(cfg.Agent.Model, client, images)

	retry := llmcli.DefaultRetryConfig()
	if cfg.Agent.MaxRetries >= 0 {
		retry.MaxRetries = cfg.Agent.MaxRetries
	}
	if cfg.Agent.RetryWaitTime != "" {
		wait, err := time.ParseDuration(cfg.Agent.RetryWaitTime)
		if err != nil {
			return nil, fmt.Errorf("invalid agent.retryWaitTime %q: %w", cfg.Agent.RetryWaitTime, err)
		}
		retry.WaitTime = wait
	}
	provider.SetRetryConfig(retry)

	if cfg.Agent.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Agent.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid agent.timeout %q: %w", cfg.Agent.Timeout, err)
		}
		provider.SetTimeout(timeout)
	}

	if obs.logger != nil {
		provider.SetLogger(obs.logger)
	}
	if obs.metrics != nil {
		provider.SetMetrics(obs.metrics)
	}

	return provider, nil
}

// localOverrideFile is an uncommitted per-checkout override read from the
// working directory.
const localOverrideFile = "da.local.yaml"

// loadLocalOverrides returns the sparse override config when the local
// override file exists.
func loadLocalOverrides() (config.Config, bool, error) {
	if _, err := os.Stat(localOverrideFile); err != nil {
		return config.Config{}, false, nil
	}
	overrides, err := config.LoadFile(localOverrideFile)
	if err != nil {
		return config.Config{}, false, err
	}
	return overrides, true, nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "da"))
	}
	return paths
}

// observabilityComponents holds shared observability instances
type observabilityComponents struct {
	logger  llmcli.Logger
	metrics llmcli.Metrics
}

// buildObservability creates observability components based on configuration
func buildObservability(cfg config.ObservabilityConfig) observabilityComponents {
	var logger llmcli.Logger
	var metrics llmcli.Metrics

	// Create logger if enabled
	if cfg.Logging.Enabled {
		logLevel := llmcli.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = llmcli.LogLevelDebug
		case "error":
			logLevel = llmcli.LogLevelError
		}

		format := cfg.Logging.Format
		if format == "auto" {
			// Human-readable on a terminal, JSON when piped or under CI
			if analyze.IsOutputTerminal() {
				format = "human"
			} else {
				format = "json"
			}
		}
		logFormat := llmcli.LogFormatHuman
		if format == "json" {
			logFormat = llmcli.LogFormatJSON
		}

		logger = llmcli.NewDefaultLogger(logLevel, logFormat)
	}

	// Create metrics tracker if enabled
	if cfg.Metrics.Enabled {
		metrics = llmcli.NewDefaultMetrics()
	}

	return observabilityComponents{
		logger:  logger,
		metrics: metrics,
	}
}

// Compile-time interface compliance checks
var _ analyze.Service = (*claude.Provider)(nil)
var _ claude.ImageStore = (*imagestore.TempStore)(nil)
var _ analyze.ImageLoader = (*imagestore.FileLoader)(nil)
var _ analyze.MarkdownWriter = (*markdown.Writer)(nil)
var _ analyze.JSONWriter = (*json.Writer)(nil)
var _ analyze.Ledger = (*storeAdapter.Bridge)(nil)
var _ cli.RunHistory = (*sqlite.Store)(nil)
var _ cli.DocumentAnalyzer = (*analyze.Orchestrator)(nil)
