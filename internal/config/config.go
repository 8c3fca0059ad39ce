package config

// Config represents the full application configuration.
type Config struct {
	Agent         AgentConfig         `yaml:"agent"`
	Images        ImagesConfig        `yaml:"images"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// AgentConfig configures the CLI agent backend.
type AgentConfig struct {
	// Binary is the agent executable name or path.
	Binary string `yaml:"binary"`

	// Model identifies which model the agent should run (e.g. "sonnet").
	Model string `yaml:"model"`

	// PermissionMode controls the agent's confirmation behavior.
	PermissionMode string `yaml:"permissionMode"`

	// Tools is the comma-separated enabled-tools list. Must include a
	// file-read capability for image analysis to work.
	Tools string `yaml:"tools"`

	// Timeout is the per-invocation deadline (e.g. "120s").
	Timeout string `yaml:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"maxRetries"`

	// RetryWaitTime is the base backoff duration; attempt N waits N times
	// this long (e.g. "5s").
	RetryWaitTime string `yaml:"retryWaitTime"`
}

// ImagesConfig configures temp image persistence.
type ImagesConfig struct {
	// Directory receives temp image files; empty means the system temp dir.
	Directory string `yaml:"directory"`

	// Quality is the JPEG encode quality (1-100).
	Quality int `yaml:"quality"`
}

// OutputConfig configures artifact output.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	JSON      bool   `yaml:"json"`
	Markdown  bool   `yaml:"markdown"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // debug, info, error
	Format  string `yaml:"format"` // json, human, or auto (by terminal)
}

// MetricsConfig configures performance metrics tracking.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Agent = chooseAgent(base.Agent, overlay.Agent)
	result.Images = chooseImages(base.Images, overlay.Images)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseAgent(base, overlay AgentConfig) AgentConfig {
	result := base
	if overlay.Binary != "" {
		result.Binary = overlay.Binary
	}
	if overlay.Model != "" {
		result.Model = overlay.Model
	}
	if overlay.PermissionMode != "" {
		result.PermissionMode = overlay.PermissionMode
	}
	if overlay.Tools != "" {
		result.Tools = overlay.Tools
	}
	if overlay.Timeout != "" {
		result.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		result.MaxRetries = overlay.MaxRetries
	}
	if overlay.RetryWaitTime != "" {
		result.RetryWaitTime = overlay.RetryWaitTime
	}
	return result
}

func chooseImages(base, overlay ImagesConfig) ImagesConfig {
	if overlay.Directory != "" || overlay.Quality != 0 {
		result := base
		if overlay.Directory != "" {
			result.Directory = overlay.Directory
		}
		if overlay.Quality != 0 {
			result.Quality = overlay.Quality
		}
		return result
	}
	return base
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" || overlay.JSON || overlay.Markdown {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base

	// Merge logging config
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}

	// Merge metrics config
	if overlay.Metrics.Enabled {
		result.Metrics = overlay.Metrics
	}

	return result
}
