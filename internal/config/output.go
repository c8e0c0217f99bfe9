package config

import "runtime"

// Where generated lines take their indentation from.
const (
	IndentSnippet = "snippet" // leading whitespace of the block's first snippet line
	IndentMarker  = "marker"  // leading whitespace of the /*$pycgen line
)

// Line separators used for generated text.
const (
	LineEndingAuto = "auto"
	LineEndingLF   = "lf"
	LineEndingCRLF = "crlf"
)

var (
	ValidIndents     = []string{IndentSnippet, IndentMarker}
	ValidLineEndings = []string{LineEndingAuto, LineEndingLF, LineEndingCRLF}
)

// OutputConfig configures generated output regions.
type OutputConfig struct {
	Indent     string `yaml:"indent" json:"indent,omitempty"`           // snippet, marker
	LineEnding string `yaml:"line_ending" json:"line_ending,omitempty"` // auto, lf, crlf

	// Leave the output file alone when the regenerated bytes are identical
	SkipUnchanged bool `yaml:"skip_unchanged" json:"skip_unchanged,omitempty"`
}

// LineSeparator returns the separator appended by EmitLn and used around markers.
func (c *OutputConfig) LineSeparator() string {
	switch c.LineEnding {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	}
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// UseMarkerIndent reports whether output lines are indented like the block marker.
func (c *OutputConfig) UseMarkerIndent() bool {
	return c.Indent == IndentMarker
}
