package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all gocgen configuration.
type Config struct {
	// Output shaping of generated regions
	Output OutputConfig `yaml:"output"`

	// Snippet interpreter settings
	Execution ExecutionConfig `yaml:"execution"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// watch subcommand
	Watch WatchConfig `yaml:"watch"`

	// batch subcommand
	Batch BatchConfig `yaml:"batch"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// BatchConfig configures in-place regeneration of many files.
type BatchConfig struct {
	Jobs int `yaml:"jobs"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Indent:     IndentSnippet,
			LineEnding: LineEndingAuto,
		},

		Execution: ExecutionConfig{
			Timeout:       "",
			SlowThreshold: "1s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: LogFormatConsole,
		},

		Watch: WatchConfig{
			Debounce: "200ms",
		},

		Batch: BatchConfig{
			Jobs: 4,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// ExecTimeout returns the snippet timeout. Zero means no timeout.
func (c *Config) ExecTimeout() time.Duration {
	if c.Execution.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// SlowThreshold returns the duration above which a block is logged as slow.
// Zero disables the warning.
func (c *Config) SlowThreshold() time.Duration {
	if c.Execution.SlowThreshold == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Execution.SlowThreshold)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Debounce returns the watch debounce interval as a duration.
func (c *Config) Debounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 200 * time.Millisecond
	}
	return d
}

// Jobs returns the batch concurrency limit.
func (c *Config) Jobs() int {
	if c.Batch.Jobs <= 0 {
		return 1
	}
	return c.Batch.Jobs
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Output.Indent {
	case IndentSnippet, IndentMarker:
	default:
		return fmt.Errorf("invalid output.indent: %q (valid: %v)", c.Output.Indent, ValidIndents)
	}

	switch c.Output.LineEnding {
	case LineEndingAuto, LineEndingLF, LineEndingCRLF:
	default:
		return fmt.Errorf("invalid output.line_ending: %q (valid: %v)", c.Output.LineEnding, ValidLineEndings)
	}

	if c.Execution.Timeout != "" {
		d, err := time.ParseDuration(c.Execution.Timeout)
		if err != nil {
			return fmt.Errorf("invalid execution.timeout: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("invalid execution.timeout: %s is negative", c.Execution.Timeout)
		}
	}

	if c.Execution.SlowThreshold != "" {
		if _, err := time.ParseDuration(c.Execution.SlowThreshold); err != nil {
			return fmt.Errorf("invalid execution.slow_threshold: %w", err)
		}
	}

	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("invalid watch.debounce: %w", err)
		}
	}

	return c.Logging.Validate()
}
