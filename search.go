package grepkit

import (
	"bytes"
)

// Search scans an in-memory buffer. Compile and read failures are reported in
// SearchResult.Error with an otherwise empty result. Glob, type and tree
// options are ignored.
func Search(content []byte, pattern string, opts ...Option) *SearchResult {
	o, err := buildOptions(opts)
	if err != nil {
		return emptySearchResult(err)
	}
	p, err := Compile(pattern, o.ignoreCase, o.multiline)
	if err != nil {
		return emptySearchResult(err)
	}

	res, err := newEngine(p, o).searchReader(bytes.NewReader(content), o.maxCount, o.offset)
	if err != nil {
		return emptySearchResult(err)
	}

	matches := res.matches
	if matches == nil {
		matches = []Match{}
	}
	return &SearchResult{
		Matches:      matches,
		MatchCount:   res.matchCount,
		LimitReached: res.limitReached,
	}
}

// SearchString is Search over a string.
func SearchString(content, pattern string, opts ...Option) *SearchResult {
	return Search([]byte(content), pattern, opts...)
}

// HasMatch reports whether content contains a match for pattern. It collects
// nothing and ignores line structure.
func HasMatch(content []byte, pattern string, ignoreCase, multiline bool) (bool, error) {
	p, err := Compile(pattern, ignoreCase, multiline)
	if err != nil {
		return false, err
	}
	return p.Match(content), nil
}

func emptySearchResult(err error) *SearchResult {
	return &SearchResult{
		Matches: []Match{},
		Error:   err.Error(),
	}
}
