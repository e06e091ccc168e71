package grepkit

import (
	"fmt"
	"strings"
)

// OutputMode selects between collecting matching lines and counting them.
type OutputMode int

const (
	// ModeContent collects each matching line with its context.
	ModeContent OutputMode = iota
	// ModeCount only counts matches. Grep reports one record per file.
	ModeCount
)

// ParseOutputMode maps a mode name to an OutputMode. "count" and the
// files-with-matches spellings select ModeCount; anything else is content.
func ParseOutputMode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count", "fileswithmatches", "files_with_matches", "files-with-matches":
		return ModeCount
	default:
		return ModeContent
	}
}

// String returns the name of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeCount:
		return "count"
	default:
		return "content"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m OutputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *OutputMode) UnmarshalText(text []byte) error {
	*m = ParseOutputMode(string(text))
	return nil
}

// ContextLine is a line surrounding a match.
type ContextLine struct {
	LineNumber int    `json:"lineNumber"`
	Line       string `json:"line"`
}

// Match is a single matching line from an in-memory search.
type Match struct {
	LineNumber    int           `json:"lineNumber"`
	Line          string        `json:"line"`
	ContextBefore []ContextLine `json:"contextBefore,omitempty"`
	ContextAfter  []ContextLine `json:"contextAfter,omitempty"`
	Truncated     bool          `json:"truncated,omitempty"`
}

// SearchResult is the outcome of Search. Error is set instead of returning a
// Go error so callers can tell "no matches" from "pattern did not compile".
type SearchResult struct {
	Matches      []Match `json:"matches"`
	MatchCount   int     `json:"matchCount"`
	LimitReached bool    `json:"limitReached"`
	Error        string  `json:"error,omitempty"`
}

// HasMatches returns true if any matches were collected.
func (r *SearchResult) HasMatches() bool {
	return len(r.Matches) > 0
}

// GrepMatch is one record of a file tree search. In count mode LineNumber is
// zero, Line is empty and MatchCount holds the file's total.
type GrepMatch struct {
	Path          string        `json:"path"`
	LineNumber    int           `json:"lineNumber"`
	Line          string        `json:"line"`
	ContextBefore []ContextLine `json:"contextBefore,omitempty"`
	ContextAfter  []ContextLine `json:"contextAfter,omitempty"`
	Truncated     bool          `json:"truncated,omitempty"`
	MatchCount    int           `json:"matchCount,omitempty"`
}

// String formats the record the way grep prints it.
func (m GrepMatch) String() string {
	if m.LineNumber == 0 {
		return fmt.Sprintf("%s:%d", m.Path, m.MatchCount)
	}
	return fmt.Sprintf("%s:%d:%s", m.Path, m.LineNumber, m.Line)
}

// GrepResult is the merged outcome of a file tree search.
type GrepResult struct {
	Matches          []GrepMatch `json:"matches"`
	TotalMatches     int         `json:"totalMatches"`
	FilesWithMatches int         `json:"filesWithMatches"`
	FilesSearched    int         `json:"filesSearched"`
	LimitReached     bool        `json:"limitReached,omitempty"`
}

// HasMatches returns true if any records were produced.
func (r *GrepResult) HasMatches() bool {
	return len(r.Matches) > 0
}

// Files returns the distinct paths of the records, in result order.
func (r *GrepResult) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, m := range r.Matches {
		if !seen[m.Path] {
			seen[m.Path] = true
			files = append(files, m.Path)
		}
	}
	return files
}

// FuzzyMatch is one path found by FuzzyFind. Directory paths end in "/".
type FuzzyMatch struct {
	Path        string `json:"path"`
	IsDirectory bool   `json:"isDirectory"`
	Score       int    `json:"score,omitempty"`
}

// FuzzyResult holds the kept matches and the number found before capping.
type FuzzyResult struct {
	Matches      []FuzzyMatch `json:"matches"`
	TotalMatches int          `json:"totalMatches"`
}
