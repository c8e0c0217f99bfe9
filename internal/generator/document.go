// Package generator scans a text document for /*$pycgen code blocks, runs
// each block through an Evaluator and splices the emitted text back into the
// document between //$pycgen-begin and //$pycgen-end markers.
//
// The host document is treated as opaque lines. Output regions from a previous
// run are dropped and regenerated, so running the generator over its own output
// reproduces it byte for byte.
package generator

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Marker vocabulary. Markers are matched as prefixes of a line after its
// leading whitespace; whatever follows the marker on that line is ignored.
const (
	MarkerOutputBegin = "//$pycgen-begin"
	MarkerOutputEnd   = "//$pycgen-end"
	MarkerCodeBegin   = "/*$pycgen"
	MarkerCodeEnd     = "*/"
)

// Document is an ordered sequence of lines. Each line keeps its terminator;
// only the last line may lack one.
type Document struct {
	Lines []string
}

// ParseDocument splits data after every '\n'.
func ParseDocument(data []byte) *Document {
	return &Document{Lines: splitAfterNewline(string(data))}
}

// ReadDocument reads path into a Document.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data), nil
}

// Bytes concatenates the lines.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

func (d *Document) String() string {
	return strings.Join(d.Lines, "")
}

// WriteFile writes the document to path, creating or truncating it.
// A failed write may leave a partial file behind.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, line := range d.Lines {
		if _, err := w.WriteString(line); err != nil {
			_ = f.Close()
			return fmt.Errorf("write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	return f.Close()
}

func splitAfterNewline(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitLines breaks s at "\r\n", "\n" or "\r" without keeping terminators.
// A trailing terminator does not produce an extra empty line.
func splitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}

// trimLeft strips leading whitespace, line terminators included.
func trimLeft(line string) string {
	return strings.TrimLeft(line, " \t\v\f\r\n")
}

// indentOf returns the leading blanks of line, never including line terminators.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t\v\f"))]
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
