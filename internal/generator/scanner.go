package generator

import (
	"context"
	"strings"

	"gocgen/internal/logging"

	"go.uber.org/zap"
)

// Stats counts what one scan saw.
type Stats struct {
	Blocks       int  // code blocks closed by */
	Rendered     int  // blocks that produced an output region
	Empty        int  // blocks that emitted nothing
	Skipped      int  // blocks rejected for bad indentation
	StaleRegions int  // output regions dropped from the input
	Unclosed     bool // input ended inside a code block
}

func (s *Stats) count(o Outcome) {
	s.Blocks++
	switch o {
	case Rendered:
		s.Rendered++
	case NoOutput:
		s.Empty++
	case BadIndent:
		s.Skipped++
	}
}

// Scanner makes the single pass over a document: it drops stale output
// regions, copies every other line, and appends a fresh output region after
// each code block's end marker.
type Scanner struct {
	exec *Executor
	sep  string
}

// NewScanner returns a Scanner that renders blocks with exec and terminates
// marker lines with sep.
func NewScanner(exec *Executor, sep string) *Scanner {
	if sep == "" {
		sep = "\n"
	}
	return &Scanner{exec: exec, sep: sep}
}

// Scan returns the regenerated lines of doc. Blocks run in document order.
// The first snippet execution error stops the scan and is returned.
func (s *Scanner) Scan(ctx context.Context, filename string, lines []string) ([]string, Stats, error) {
	log := logging.Get(logging.CategoryScan).With(zap.String("file", filename))

	var (
		kept     = make([]string, 0, len(lines))
		stats    Stats
		inOutput bool
		inCode   bool
		block    Block
	)

	for i, line := range lines {
		trimmed := trimLeft(line)

		// Output regions from a previous run are never copied forward.
		if strings.HasPrefix(trimmed, MarkerOutputBegin) {
			inOutput = true
			stats.StaleRegions++
			continue
		}
		if inOutput && strings.HasPrefix(trimmed, MarkerOutputEnd) {
			inOutput = false
			continue
		}

		if !inOutput {
			kept = append(kept, line)
		}

		if strings.HasPrefix(trimmed, MarkerCodeBegin) {
			inCode = true
			// +1 to skip the marker line, +1 for 1-based numbering
			block = Block{StartLine: i + 2, Indent: indentOf(line)}
			log.Debug("code block opened", zap.Int("line", i+1))
			continue
		}

		if inCode && strings.HasPrefix(trimmed, MarkerCodeEnd) {
			inCode = false

			r, err := s.exec.Render(ctx, filename, block)
			if err != nil {
				return nil, stats, err
			}
			stats.count(r.Outcome)
			if r.Outcome == Rendered {
				// An end marker on the last line may lack a terminator.
				if last := len(kept) - 1; last >= 0 && !strings.HasSuffix(kept[last], "\n") {
					kept[last] += s.sep
				}
				kept = append(kept, block.Indent+MarkerOutputBegin+s.sep)
				kept = append(kept, splitAfterNewline(r.Text)...)
				kept = append(kept, block.Indent+MarkerOutputEnd+s.sep)
			}
			log.Debug("code block closed",
				zap.Int("start", block.StartLine),
				zap.Stringer("outcome", r.Outcome))
		}

		if inCode {
			block.Lines = append(block.Lines, line)
		}
	}

	if inCode {
		stats.Unclosed = true
		log.Warn("input ended inside a code block; block not executed", zap.Int("start", block.StartLine))
	}

	return kept, stats, nil
}
