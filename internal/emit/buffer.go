// Package emit implements the emission primitives available to snippets:
// EmitStr, EmitLn, EmitRepl and EmitFmt all append to one Buffer, which the
// session resets before each code block runs and reads back after.
package emit

import (
	"fmt"
	"strings"
)

// Buffer accumulates the text emitted by one code block.
type Buffer struct {
	sb  strings.Builder
	sep string
}

// NewBuffer returns an empty buffer whose Ln appends sep.
func NewBuffer(sep string) *Buffer {
	if sep == "" {
		sep = "\n"
	}
	return &Buffer{sep: sep}
}

// Reset empties the buffer.
func (b *Buffer) Reset() { b.sb.Reset() }

// String returns everything emitted since the last Reset.
func (b *Buffer) String() string { return b.sb.String() }

// Str appends text verbatim.
func (b *Buffer) Str(text string) {
	b.sb.WriteString(text)
}

// Ln appends text followed by the line separator.
func (b *Buffer) Ln(text string) {
	b.sb.WriteString(text)
	b.sb.WriteString(b.sep)
}

// Repl emits template once per value in spec, with the placeholder replaced.
// spec has the form "<placeholder>:<v1>,<v2>,...". Everything after the
// first colon is the value list, so values may themselves contain colons.
// Malformed specs panic; inside the interpreter that surfaces as a snippet error.
func (b *Buffer) Repl(template, spec string) {
	placeholder, values, err := ParseReplSpec(spec)
	if err != nil {
		panic(err)
	}
	generic := trimLineBreaks(template)
	for _, v := range values {
		b.Ln(strings.ReplaceAll(generic, placeholder, v))
	}
}

// Fmt interpolates {expr} placeholders in line against ctx and appends the result.
// See Format for the placeholder syntax. Evaluation errors panic.
func (b *Buffer) Fmt(line string, ctx map[string]any) {
	s, err := Format(trimLineBreaks(line), ctx)
	if err != nil {
		panic(err)
	}
	b.Str(s)
}

// ParseReplSpec splits an EmitRepl spec into its placeholder and values.
func ParseReplSpec(spec string) (string, []string, error) {
	placeholder, list, ok := strings.Cut(spec, ":")
	if !ok {
		return "", nil, fmt.Errorf("EmitRepl: spec %q is not of the form <placeholder>:<values>", spec)
	}
	if placeholder == "" {
		return "", nil, fmt.Errorf("EmitRepl: spec %q has an empty placeholder", spec)
	}
	return placeholder, strings.Split(list, ","), nil
}

// trimLineBreaks drops leading and trailing CR/LF characters, leaving other
// whitespace alone.
func trimLineBreaks(s string) string {
	return strings.Trim(s, "\r\n")
}
