// Package diff computes line diffs between an output file on disk and its
// regenerated text, and renders them in unified format.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota // Unchanged context line
	LineAdded                   // Added line
	LineRemoved                 // Removed line
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Line represents a single line in the diff
type Line struct {
	Content string
	Type    LineType
}

// Hunk represents a group of changes
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff represents the changes between two versions of one file
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
}

// Changed reports whether the two versions differ.
func (f *FileDiff) Changed() bool {
	return len(f.Hunks) > 0
}

// Stats returns the number of added and removed lines.
func (f *FileDiff) Stats() (added, removed int) {
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			switch l.Type {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Engine computes line diffs.
type Engine struct {
	dmp     *diffmatchpatch.DiffMatchPatch
	context int
}

// NewEngine creates an engine showing context unchanged lines around each
// change. A negative context means DefaultContext.
func NewEngine(context int) *Engine {
	if context < 0 {
		context = DefaultContext
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp, context: context}
}

// Compute diffs oldContent against newContent line by line.
func (e *Engine) Compute(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{OldPath: oldPath, NewPath: newPath}
	if oldContent == newContent {
		return fd
	}

	// Reduce to one rune per line so the diff never splits a line.
	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	fd.Hunks = group(toOps(diffs), e.context)
	return fd
}

// op is one line of either side with its 0-based positions.
type op struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func toOps(diffs []diffmatchpatch.Diff) []op {
	var ops []op
	oldLine, newLine := 0, 0

	for _, d := range diffs {
		for _, line := range splitKeep(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, op{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, op{LineRemoved, oldLine, newLine, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, op{LineAdded, oldLine, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

// splitKeep splits text into lines keeping their terminators, so a change
// of line ending alone still shows up.
func splitKeep(text string) []string {
	var lines []string
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// group collects changed ops into hunks with up to context lines around them.
// Hunks whose context would overlap are merged.
func group(ops []op, context int) []Hunk {
	var hunks []Hunk

	i := 0
	for i < len(ops) {
		if ops[i].typ == LineContext {
			i++
			continue
		}

		start := max(i-context, 0)
		// Extend over changes separated by at most 2*context unchanged lines.
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].typ != LineContext {
				end = j
				continue
			}
			if j-end > 2*context {
				break
			}
		}
		stop := min(end+context+1, len(ops))

		h := Hunk{
			OldStart: ops[start].oldLine + 1,
			NewStart: ops[start].newLine + 1,
		}
		for _, o := range ops[start:stop] {
			h.Lines = append(h.Lines, Line{Content: o.content, Type: o.typ})
			if o.typ != LineAdded {
				h.OldCount++
			}
			if o.typ != LineRemoved {
				h.NewCount++
			}
		}
		// Unified format numbers an empty side by the line before it.
		if h.OldCount == 0 {
			h.OldStart--
		}
		if h.NewCount == 0 {
			h.NewStart--
		}
		hunks = append(hunks, h)
		i = stop
	}
	return hunks
}

var (
	addColor  = color.New(color.FgGreen)
	delColor  = color.New(color.FgRed)
	hunkColor = color.New(color.FgCyan)
)

// WriteUnified writes fd to w in unified diff format. Colors follow
// color.NoColor.
func WriteUnified(w io.Writer, fd *FileDiff) error {
	if !fd.Changed() {
		return nil
	}
	if _, err := fmt.Fprintf(w, "--- %s\n+++ %s\n", fd.OldPath, fd.NewPath); err != nil {
		return err
	}
	for _, h := range fd.Hunks {
		if _, err := hunkColor.Fprintf(w, "@@ -%s +%s @@\n", span(h.OldStart, h.OldCount), span(h.NewStart, h.NewCount)); err != nil {
			return err
		}
		for _, l := range h.Lines {
			if err := writeLine(w, l); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeLine(w io.Writer, l Line) error {
	content := strings.TrimSuffix(l.Content, "\n")
	content = strings.TrimSuffix(content, "\r")
	var err error
	switch l.Type {
	case LineAdded:
		_, err = addColor.Fprintln(w, "+"+content)
	case LineRemoved:
		_, err = delColor.Fprintln(w, "-"+content)
	default:
		_, err = fmt.Fprintln(w, " "+content)
	}
	if err != nil {
		return err
	}
	if !strings.HasSuffix(l.Content, "\n") {
		_, err = fmt.Fprintln(w, `\ No newline at end of file`)
	}
	return err
}

func span(start, count int) string {
	if count == 1 {
		return fmt.Sprint(start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
