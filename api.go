package grepkit

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/text/encoding"
)

// Option represents a functional option for configuring searches
type Option func(*searchOptions)

// searchOptions holds the configuration for Search and Grep
type searchOptions struct {
	ignoreCase   bool
	multiline    bool
	maxCount     int
	offset       int
	contextLines int
	maxColumns   int
	mode         OutputMode

	// File tree options
	glob      string
	typeName  string
	hidden    bool
	gitignore bool
	workers   int
	timeout   time.Duration
	searchZip bool
	onMatch   func(GrepMatch)
	stats     *Stats

	encodingName string
	encoding     encoding.Encoding
}

// defaultOptions returns the default search options
func defaultOptions() *searchOptions {
	return &searchOptions{
		mode:      ModeContent,
		hidden:    true,
		gitignore: true,
		workers:   runtime.GOMAXPROCS(0),
	}
}

func buildOptions(opts []Option) (*searchOptions, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.encodingName != "" {
		o.encoding = lookupEncoding(o.encodingName)
		if o.encoding == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, o.encodingName)
		}
	}
	return o, nil
}

// Search Behavior Options

// WithIgnoreCase enables case-insensitive search
func WithIgnoreCase() Option {
	return func(opts *searchOptions) {
		opts.ignoreCase = true
	}
}

// WithCaseSensitive enables case-sensitive search (default)
func WithCaseSensitive() Option {
	return func(opts *searchOptions) {
		opts.ignoreCase = false
	}
}

// WithMultiline makes ^ and $ match at line boundaries. Matching stays line
// by line.
func WithMultiline() Option {
	return func(opts *searchOptions) {
		opts.multiline = true
	}
}

// WithMaxCount caps the number of collected matches across the whole search.
// Zero or a negative value means no cap.
func WithMaxCount(max int) Option {
	return func(opts *searchOptions) {
		if max > 0 {
			opts.maxCount = max
		} else {
			opts.maxCount = 0
		}
	}
}

// WithOffset skips the first n matches of the search.
func WithOffset(n int) Option {
	return func(opts *searchOptions) {
		if n >= 0 {
			opts.offset = n
		}
	}
}

// WithContextLines sets the number of context lines around matches
func WithContextLines(lines int) Option {
	return func(opts *searchOptions) {
		if lines >= 0 {
			opts.contextLines = lines
		}
	}
}

// WithMaxColumns truncates match and context lines longer than max bytes.
func WithMaxColumns(max int) Option {
	return func(opts *searchOptions) {
		if max >= 0 {
			opts.maxColumns = max
		}
	}
}

// WithMode selects content or count output.
func WithMode(mode OutputMode) Option {
	return func(opts *searchOptions) {
		opts.mode = mode
	}
}

// WithEncoding decodes input from the named encoding instead of UTF-8.
// See SupportedEncodings.
func WithEncoding(name string) Option {
	return func(opts *searchOptions) {
		opts.encodingName = strings.TrimSpace(name)
	}
}

// File Filtering Options

// WithGlob restricts Grep to paths matching the glob. A glob without a slash
// matches at any depth.
func WithGlob(pattern string) Option {
	return func(opts *searchOptions) {
		opts.glob = strings.TrimSpace(pattern)
	}
}

// WithType restricts Grep to a file type such as "go" or "py".
func WithType(name string) Option {
	return func(opts *searchOptions) {
		opts.typeName = name
	}
}

// WithHidden controls whether hidden files and directories are searched.
// They are searched by default.
func WithHidden(enabled bool) Option {
	return func(opts *searchOptions) {
		opts.hidden = enabled
	}
}

// WithGitignore enables or disables .gitignore and .ignore processing
func WithGitignore(enabled bool) Option {
	return func(opts *searchOptions) {
		opts.gitignore = enabled
	}
}

// WithSearchZip searches inside gzip, bzip2, zstd and xz files.
func WithSearchZip(enabled bool) Option {
	return func(opts *searchOptions) {
		opts.searchZip = enabled
	}
}

// Performance Options

// WithWorkers sets the number of files searched concurrently
func WithWorkers(count int) Option {
	return func(opts *searchOptions) {
		if count > 0 {
			opts.workers = count
		}
	}
}

// WithTimeout bounds the whole Grep call. When it expires Grep returns the
// context error.
func WithTimeout(duration time.Duration) Option {
	return func(opts *searchOptions) {
		if duration > 0 {
			opts.timeout = duration
		}
	}
}

// WithStats stores the engine counters for the call in dst when Grep returns.
func WithStats(dst *Stats) Option {
	return func(opts *searchOptions) {
		opts.stats = dst
	}
}

// Callbacks

// WithOnMatch registers a callback invoked once per produced record, in
// result order. It runs on its own goroutine and never blocks the search;
// Grep may return before every callback has run.
func WithOnMatch(fn func(GrepMatch)) Option {
	return func(opts *searchOptions) {
		opts.onMatch = fn
	}
}
