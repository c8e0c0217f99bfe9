// Package logging provides config-driven categorized logging for gocgen.
// Every category is a named child of one zap logger that writes to stderr
// (plus an optional file), keeping stdout free for diagnostics and snippet output.
// Logging is controlled by logging.debug_mode - when false, nothing is written.
package logging

import (
	"fmt"
	"sync"
	"time"

	"gocgen/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Config and logger initialization
	CategoryScan   Category = "scan"   // Document scanner: blocks and output regions
	CategoryExec   Category = "exec"   // Snippet execution in the interpreter
	CategoryDriver Category = "driver" // Per-file read/generate/write
	CategoryWatch  Category = "watch"  // File watcher events
	CategoryBatch  Category = "batch"  // Concurrent in-place regeneration
)

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	cfg     config.LoggingConfig
	loggers = make(map[Category]*zap.Logger)
)

// Initialize builds the root logger from config.
// verbose forces debug mode on at debug level, as the --verbose flag does.
func Initialize(lc config.LoggingConfig, verbose bool) error {
	if verbose {
		lc.DebugMode = true
		lc.Level = "debug"
	}

	mu.Lock()
	defer mu.Unlock()

	cfg = lc
	loggers = make(map[Category]*zap.Logger)

	if !lc.DebugMode {
		base = zap.NewNop()
		return nil
	}

	zc := zap.NewProductionConfig()
	if lc.Encoding() == config.LogFormatConsole {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zc.Encoding = lc.Encoding()

	level := zapcore.InfoLevel
	if lc.Level != "" {
		if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", lc.Level, err)
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	if lc.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, lc.File)
	}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	base = l

	base.Named(string(CategoryBoot)).Debug("logging initialized",
		zap.String("level", level.String()),
		zap.String("format", zc.Encoding),
		zap.Int("categories", len(lc.Categories)))
	return nil
}

// Use installs an already-built logger with every category enabled.
// Tests use it with zaptest/observer cores.
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	cfg = config.LoggingConfig{DebugMode: true}
	loggers = make(map[Category]*zap.Logger)
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *zap.Logger {
	if !IsCategoryEnabled(category) {
		return zap.NewNop()
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := base.Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// CloseAll flushes and resets to the no-op logger.
func CloseAll() {
	Sync()
	mu.Lock()
	defer mu.Unlock()
	base = zap.NewNop()
	cfg = config.LoggingConfig{}
	loggers = make(map[Category]*zap.Logger)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop(fields ...zap.Field) time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug(t.op+" completed", append(fields, zap.Duration("elapsed", elapsed))...)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration, fields ...zap.Field) time.Duration {
	elapsed := time.Since(t.start)
	fields = append(fields, zap.Duration("elapsed", elapsed))
	if elapsed > threshold {
		Get(t.category).Warn(t.op+" was slow", append(fields, zap.Duration("threshold", threshold))...)
	} else {
		Get(t.category).Debug(t.op+" completed", fields...)
	}
	return elapsed
}
