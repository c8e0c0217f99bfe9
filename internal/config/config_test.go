package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Output.Indent != IndentSnippet {
		t.Errorf("expected Indent=snippet, got %s", cfg.Output.Indent)
	}
	if cfg.Output.LineEnding != LineEndingAuto {
		t.Errorf("expected LineEnding=auto, got %s", cfg.Output.LineEnding)
	}
	if cfg.SlowThreshold() != time.Second {
		t.Errorf("expected 1s slow threshold by default, got %v", cfg.SlowThreshold())
	}
	if cfg.ExecTimeout() != 0 {
		t.Errorf("expected no exec timeout by default, got %v", cfg.ExecTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "gocgen.yaml")

	cfg := DefaultConfig()
	cfg.Output.Indent = IndentMarker
	cfg.Execution.Timeout = "2s"
	cfg.Batch.Jobs = 8

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, IndentMarker, loaded.Output.Indent)
	assert.Equal(t, 2*time.Second, loaded.ExecTimeout())
	assert.Equal(t, 8, loaded.Jobs())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gocgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  line_ending: crlf\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "\r\n", cfg.Output.LineSeparator())
	assert.Equal(t, IndentSnippet, cfg.Output.Indent)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gocgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	t.Run("bad indent", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output.Indent = "tabs"
		assert.ErrorContains(t, cfg.Validate(), "output.indent")
	})

	t.Run("bad line ending", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output.LineEnding = "cr"
		assert.ErrorContains(t, cfg.Validate(), "output.line_ending")
	})

	t.Run("bad timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Execution.Timeout = "soon"
		assert.ErrorContains(t, cfg.Validate(), "execution.timeout")
	})

	t.Run("negative timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Execution.Timeout = "-1s"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad slow threshold", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Execution.SlowThreshold = "later"
		assert.ErrorContains(t, cfg.Validate(), "execution.slow_threshold")
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "loud"
		assert.ErrorContains(t, cfg.Validate(), "logging.level")
	})

	t.Run("bad log format", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Format = "xml"
		assert.ErrorContains(t, cfg.Validate(), "logging.format")
	})
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Watch.Debounce = "garbage"
	if cfg.Debounce() != 200*time.Millisecond {
		t.Error("Debounce should fall back to 200ms")
	}

	cfg.Batch.Jobs = 0
	if cfg.Jobs() != 1 {
		t.Error("Jobs should never be below 1")
	}

	cfg.Output.LineEnding = LineEndingLF
	if cfg.Output.LineSeparator() != "\n" {
		t.Error("lf should map to \\n")
	}

	cfg.Output.LineEnding = LineEndingAuto
	want := "\n"
	if runtime.GOOS == "windows" {
		want = "\r\n"
	}
	if got := cfg.Output.LineSeparator(); got != want {
		t.Errorf("auto separator = %q, want %q", got, want)
	}

	cfg.Output.Indent = IndentMarker
	if !cfg.Output.UseMarkerIndent() {
		t.Error("UseMarkerIndent should be true for marker")
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	assert.False(t, lc.IsCategoryEnabled("scan"), "debug mode off disables everything")

	lc.DebugMode = true
	assert.True(t, lc.IsCategoryEnabled("scan"))

	lc.Categories = map[string]bool{"scan": false}
	assert.False(t, lc.IsCategoryEnabled("scan"))
	assert.True(t, lc.IsCategoryEnabled("exec"))
}

func TestLoggingConfig_Encoding(t *testing.T) {
	lc := LoggingConfig{}
	assert.Equal(t, LogFormatConsole, lc.Encoding())

	lc.Format = LogFormatJSON
	assert.Equal(t, LogFormatJSON, lc.Encoding())
}
