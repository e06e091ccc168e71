package grepkit

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/localrivet/grepkit/internal/walk"
)

// DefaultFindResults is the result cap used when FindMaxResults is not given.
const DefaultFindResults = 100

// FindOption configures FuzzyFind.
type FindOption func(*findOptions)

type findOptions struct {
	hidden     bool
	gitignore  bool
	maxResults int
	ranked     bool
}

// FindHidden includes hidden entries. They are excluded by default.
func FindHidden(enabled bool) FindOption {
	return func(o *findOptions) {
		o.hidden = enabled
	}
}

// FindGitignore controls whether ignore files are honored. They are by default.
func FindGitignore(enabled bool) FindOption {
	return func(o *findOptions) {
		o.gitignore = enabled
	}
}

// FindMaxResults caps the number of returned matches. TotalMatches still
// counts every match.
func FindMaxResults(n int) FindOption {
	return func(o *findOptions) {
		if n >= 0 {
			o.maxResults = n
		}
	}
}

// FindRanked orders matches by fuzzy score instead of path, and lets the query
// characters appear anywhere in order rather than as a substring.
func FindRanked() FindOption {
	return func(o *findOptions) {
		o.ranked = true
	}
}

// FuzzyFind lists the files and directories under root whose relative path
// contains query, compared case-insensitively. An empty query matches every
// entry. Directory paths end in "/".
func FuzzyFind(ctx context.Context, query, root string, opts ...FindOption) (*FuzzyResult, error) {
	o := &findOptions{gitignore: true, maxResults: DefaultFindResults}
	for _, opt := range opts {
		opt(o)
	}

	dir, err := resolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathNotFound, err)
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	entries, err := walk.Collect(ctx, dir, walk.Options{
		Hidden:      o.hidden,
		Ignore:      o.gitignore,
		IncludeDirs: true,
	})
	if err != nil {
		return nil, err
	}

	if o.ranked && query != "" {
		return rankedFind(query, entries, o.maxResults), nil
	}

	folded := foldString(query)
	res := &FuzzyResult{Matches: []FuzzyMatch{}}
	for _, e := range entries {
		if folded != "" && !strings.Contains(foldString(e.RelPath), folded) {
			continue
		}
		res.TotalMatches++
		if len(res.Matches) < o.maxResults {
			res.Matches = append(res.Matches, toFuzzyMatch(e, 0))
		}
	}
	return res, nil
}

// entrySource exposes relative paths to the fuzzy ranker.
type entrySource []walk.Entry

func (s entrySource) String(i int) string { return s[i].RelPath }
func (s entrySource) Len() int            { return len(s) }

func rankedFind(query string, entries []walk.Entry, maxResults int) *FuzzyResult {
	ranked := fuzzy.FindFrom(query, entrySource(entries))
	res := &FuzzyResult{
		Matches:      make([]FuzzyMatch, 0, min(len(ranked), maxResults)),
		TotalMatches: len(ranked),
	}
	for _, m := range ranked {
		if len(res.Matches) >= maxResults {
			break
		}
		res.Matches = append(res.Matches, toFuzzyMatch(entries[m.Index], m.Score))
	}
	return res
}

func toFuzzyMatch(e walk.Entry, score int) FuzzyMatch {
	p := e.RelPath
	if e.IsDir {
		p += "/"
	}
	return FuzzyMatch{Path: p, IsDirectory: e.IsDir, Score: score}
}
