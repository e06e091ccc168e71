package grepkit

import (
	"github.com/localrivet/grepkit/internal/searcher"
)

// collector is the searcher.Sink that applies offset, max count and
// truncation to one stream. After-context arrives in separate callbacks once
// a match has been appended, so it is attached to the tail of matches.
type collector struct {
	mode       OutputMode
	maxCount   int
	offset     int
	maxColumns int

	matchCount   int
	collected    int
	skipped      int
	limitReached bool

	before  []ContextLine
	matches []Match
}

func newCollector(mode OutputMode, maxCount, offset, maxColumns int) *collector {
	return &collector{
		mode:       mode,
		maxCount:   maxCount,
		offset:     offset,
		maxColumns: maxColumns,
	}
}

// Matched implements searcher.Sink.
func (c *collector) Matched(lineNumber int, line []byte) (bool, error) {
	c.matchCount++

	// The previous match already filled the quota and has had its chance at
	// after-context.
	if c.limitReached {
		return false, nil
	}

	if c.skipped < c.offset {
		c.skipped++
		c.before = nil
		return true, nil
	}

	if c.mode == ModeContent {
		text, truncated := c.render(line)
		c.matches = append(c.matches, Match{
			LineNumber:    lineNumber,
			Line:          text,
			ContextBefore: c.before,
			Truncated:     truncated,
		})
	}
	c.before = nil

	c.collected++
	if c.maxCount > 0 && c.collected >= c.maxCount {
		c.limitReached = true
	}
	return true, nil
}

// Context implements searcher.Sink.
func (c *collector) Context(kind searcher.ContextKind, lineNumber int, line []byte) (bool, error) {
	if c.mode != ModeContent {
		return true, nil
	}

	switch kind {
	case searcher.Before:
		text, _ := c.render(line)
		c.before = append(c.before, ContextLine{LineNumber: lineNumber, Line: text})
	case searcher.After:
		if len(c.matches) == 0 {
			return true, nil
		}
		text, _ := c.render(line)
		last := &c.matches[len(c.matches)-1]
		last.ContextAfter = append(last.ContextAfter, ContextLine{LineNumber: lineNumber, Line: text})
	}
	return true, nil
}

func (c *collector) render(line []byte) (string, bool) {
	return truncateLine(decodeLine(line), c.maxColumns)
}

// fileResult is the collector state for one searched file.
type fileResult struct {
	relPath      string
	matches      []Match
	matchCount   int
	collected    int
	limitReached bool
}

func (c *collector) result() *fileResult {
	return &fileResult{
		matches:      c.matches,
		matchCount:   c.matchCount,
		collected:    c.collected,
		limitReached: c.limitReached,
	}
}

// records converts a file result into Grep records under the given path.
func (r *fileResult) records(mode OutputMode, path string) []GrepMatch {
	if mode == ModeCount {
		return []GrepMatch{{Path: path, MatchCount: r.matchCount}}
	}
	out := make([]GrepMatch, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, GrepMatch{
			Path:          path,
			LineNumber:    m.LineNumber,
			Line:          m.Line,
			ContextBefore: m.ContextBefore,
			ContextAfter:  m.ContextAfter,
			Truncated:     m.Truncated,
		})
	}
	return out
}
