package config

// ExecutionConfig configures the snippet interpreter.
type ExecutionConfig struct {
	// Per-block evaluation timeout (Go duration). Empty disables it.
	Timeout string `yaml:"timeout" json:"timeout,omitempty"`

	// Blocks running longer than this are logged as slow. Empty disables it.
	SlowThreshold string `yaml:"slow_threshold" json:"slow_threshold,omitempty"`

	// Load the unrestricted stdlib symbols (os/exec, os.Exit, ...) in addition to the default set
	Unrestricted bool `yaml:"unrestricted" json:"unrestricted,omitempty"`

	// GOPATH used to resolve non-stdlib imports in snippets
	GoPath string `yaml:"gopath" json:"gopath,omitempty"`
}
