package grepkit

import (
	"fmt"
	"regexp"
)

// Pattern is a compiled search pattern. It is immutable and safe to share
// between goroutines.
type Pattern struct {
	re         *regexp.Regexp
	source     string
	ignoreCase bool
	multiline  bool
}

// Compile builds a Pattern. ignoreCase adds (?i); multiline adds (?m) so ^ and
// $ match at line boundaries. Searches still run line by line, so "." never
// crosses a newline. Compiled patterns are memoized in a process-wide cache.
func Compile(pattern string, ignoreCase, multiline bool) (*Pattern, error) {
	return globalPatternCache().getOrCompile(pattern, ignoreCase, multiline)
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, ignoreCase, multiline bool) *Pattern {
	p, err := Compile(pattern, ignoreCase, multiline)
	if err != nil {
		panic(err)
	}
	return p
}

func compilePattern(pattern string, ignoreCase, multiline bool) (*Pattern, error) {
	re, err := regexp.Compile(patternFlags(ignoreCase, multiline) + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return &Pattern{
		re:         re,
		source:     pattern,
		ignoreCase: ignoreCase,
		multiline:  multiline,
	}, nil
}

func patternFlags(ignoreCase, multiline bool) string {
	flags := ""
	if ignoreCase {
		flags += "(?i)"
	}
	if multiline {
		flags += "(?m)"
	}
	return flags
}

// Match reports whether b contains any match.
func (p *Pattern) Match(b []byte) bool {
	return p.re.Match(b)
}

// FindAllIndex returns the byte ranges of up to n matches in b.
func (p *Pattern) FindAllIndex(b []byte, n int) [][]int {
	return p.re.FindAllIndex(b, n)
}

// Multiline reports whether ^ and $ match at line boundaries.
func (p *Pattern) Multiline() bool {
	return p.multiline
}

// Regexp returns the underlying regular expression.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// String returns the pattern as given to Compile.
func (p *Pattern) String() string {
	return p.source
}
