package config

import "fmt"

// Log encodings.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// ValidLogLevels are the level names accepted in logging.level.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// LoggingConfig configures the zap logger behind the category loggers.
// Logs go to stderr and, when File is set, also to that file.
type LoggingConfig struct {
	// Nothing is logged unless DebugMode is on (--verbose turns it on)
	DebugMode bool `yaml:"debug_mode" json:"debug_mode,omitempty"`

	Level  string `yaml:"level" json:"level,omitempty"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format,omitempty"` // console, json
	File   string `yaml:"file" json:"file,omitempty"`

	// Per-category switches keyed by category name (scan, exec, driver, ...).
	// Categories not listed are on.
	Categories map[string]bool `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// Encoding returns the zap encoding for Format.
func (c *LoggingConfig) Encoding() string {
	if c.Format == LogFormatJSON {
		return LogFormatJSON
	}
	return LogFormatConsole
}

// Validate checks Level and Format.
func (c *LoggingConfig) Validate() error {
	switch c.Format {
	case "", LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("invalid logging.format: %q (valid: %s, %s)", c.Format, LogFormatConsole, LogFormatJSON)
	}
	if c.Level == "" {
		return nil
	}
	for _, l := range ValidLogLevels {
		if c.Level == l {
			return nil
		}
	}
	return fmt.Errorf("invalid logging.level: %q (valid: %v)", c.Level, ValidLogLevels)
}

// IsCategoryEnabled reports whether category logs anything: debug mode must be
// on and the category must not be switched off.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	enabled, listed := c.Categories[category]
	return !listed || enabled
}
