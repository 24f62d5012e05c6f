// Package config loads e2egen configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all e2egen configuration.
type Config struct {
	// LLM provider used by the refinement fallback
	LLM LLMConfig `yaml:"llm"`

	// Template selection
	Selector SelectorConfig `yaml:"selector"`

	// Model tier routing heuristic
	Routing RoutingConfig `yaml:"routing"`

	// Batch generation policy
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Per-caller credential store
	Settings SettingsConfig `yaml:"settings"`

	// Usage accounting
	Usage UsageConfig `yaml:"usage"`

	// Generated files
	Output OutputConfig `yaml:"output"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the provider client.
type LLMConfig struct {
	Provider     string `yaml:"provider"` // anthropic, gemini
	BaseURL      string `yaml:"base_url,omitempty"`
	Timeout      string `yaml:"timeout"`
	MaxTokens    int    `yaml:"max_tokens"`
	FastModel    string `yaml:"fast_model,omitempty"`    // empty uses the provider default
	CapableModel string `yaml:"capable_model,omitempty"` // empty uses the provider default
}

// SelectorConfig configures template selection.
type SelectorConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// RoutingConfig tunes which tests go to the fast model.
type RoutingConfig struct {
	MaxFastSteps      int      `yaml:"max_fast_steps"`
	ComplexitySignals []string `yaml:"complexity_signals"`
}

// PipelineConfig configures concurrency and retry around refinement.
type PipelineConfig struct {
	Concurrency       int     `yaml:"concurrency"`
	MaxAttempts       int     `yaml:"max_attempts"`
	BackoffBase       string  `yaml:"backoff_base"`
	BackoffMax        string  `yaml:"backoff_max"`
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 disables pacing
	Burst             int     `yaml:"burst"`
	ForceLLM          bool    `yaml:"force_llm"`
}

// SettingsConfig locates the caller settings file.
type SettingsConfig struct {
	Path   string `yaml:"path"`
	Secret string `yaml:"secret,omitempty"` // opens sealed keys; prefer E2EGEN_SETTINGS_SECRET
}

// UsageConfig locates the usage ledger.
type UsageConfig struct {
	Path string `yaml:"path"` // empty keeps usage in memory
}

// OutputConfig configures where generated specs go.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "anthropic",
			Timeout:   "120s",
			MaxTokens: 4096,
		},

		Selector: SelectorConfig{
			Threshold: 0.7,
		},

		Routing: RoutingConfig{
			MaxFastSteps:      3,
			ComplexitySignals: []string{"if", "conditional", "optional", "depending"},
		},

		Pipeline: PipelineConfig{
			Concurrency: 4,
			MaxAttempts: 3,
			BackoffBase: "1s",
			BackoffMax:  "30s",
		},

		Settings: SettingsConfig{
			Path: ".e2egen/settings.yaml",
		},

		Usage: UsageConfig{
			Path: ".e2egen/usage.json",
		},

		Output: OutputConfig{
			Dir: "e2e",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	// A lone provider key picks the provider when the file left it unset.
	if c.LLM.Provider == "" {
		switch {
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			c.LLM.Provider = "anthropic"
		case os.Getenv("GEMINI_API_KEY") != "":
			c.LLM.Provider = "gemini"
		}
	}
	if p := os.Getenv("E2EGEN_PROVIDER"); p != "" {
		c.LLM.Provider = strings.ToLower(strings.TrimSpace(p))
	}

	if secret := os.Getenv("E2EGEN_SETTINGS_SECRET"); secret != "" {
		c.Settings.Secret = secret
	}

	if v := os.Getenv("E2EGEN_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("E2EGEN_THRESHOLD: %w", err)
		}
		c.Selector.Threshold = f
	}

	if v := os.Getenv("E2EGEN_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("E2EGEN_CONCURRENCY: %w", err)
		}
		c.Pipeline.Concurrency = n
	}
	return nil
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetLLMTimeout returns the provider request timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 120*time.Second)
}

// GetBackoffBase returns the first rate-limit retry delay.
func (c *Config) GetBackoffBase() time.Duration {
	return parseDuration(c.Pipeline.BackoffBase, time.Second)
}

// GetBackoffMax returns the cap on computed retry delays.
func (c *Config) GetBackoffMax() time.Duration {
	return parseDuration(c.Pipeline.BackoffMax, 30*time.Second)
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"anthropic", "gemini"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.Selector.Threshold <= 0 || c.Selector.Threshold > 1 {
		return fmt.Errorf("selector.threshold must be in (0,1], got %v", c.Selector.Threshold)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("pipeline.max_attempts must be at least 1, got %d", c.Pipeline.MaxAttempts)
	}
	if c.Routing.MaxFastSteps < 0 {
		return fmt.Errorf("routing.max_fast_steps must not be negative, got %d", c.Routing.MaxFastSteps)
	}
	if c.Pipeline.RequestsPerSecond < 0 {
		return fmt.Errorf("pipeline.requests_per_second must not be negative")
	}

	for name, v := range map[string]string{
		"llm.timeout":           c.LLM.Timeout,
		"pipeline.backoff_base": c.Pipeline.BackoffBase,
		"pipeline.backoff_max":  c.Pipeline.BackoffMax,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}
