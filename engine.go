package grepkit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/text/encoding"

	"github.com/localrivet/grepkit/internal/log"
	"github.com/localrivet/grepkit/internal/searcher"
)

// MaxFileBytes bounds how much of any single file is scanned. Compressed files
// are bounded on their decompressed output.
const MaxFileBytes = 4 << 20

// errSkipFile marks a file that could not be opened. Such files are left out
// of the searched count.
var errSkipFile = errors.New("skip file")

// Engine runs one compiled pattern over individual files and keeps running
// totals for the search it belongs to.
type Engine struct {
	pattern    *Pattern
	mode       OutputMode
	context    int
	maxColumns int
	searchZip  bool
	encoding   encoding.Encoding
	searcher   *searcher.Searcher

	// Statistics
	filesScanned atomic.Int64
	bytesScanned atomic.Int64
	matchesFound atomic.Int64
}

// newEngine builds the per-search engine. Count mode never reports context,
// so the searcher is configured without it.
func newEngine(p *Pattern, o *searchOptions) *Engine {
	ctxLines := o.contextLines
	if o.mode == ModeCount {
		ctxLines = 0
	}
	return &Engine{
		pattern:    p,
		mode:       o.mode,
		context:    ctxLines,
		maxColumns: o.maxColumns,
		searchZip:  o.searchZip,
		encoding:   o.encoding,
		searcher: searcher.New(searcher.Config{
			Before:     ctxLines,
			After:      ctxLines,
			BinaryQuit: true,
		}),
	}
}

// searchReader runs the collector over r with the given per-stream limits.
func (e *Engine) searchReader(r io.Reader, maxCount, offset int) (*fileResult, error) {
	c := newCollector(e.mode, maxCount, offset, e.maxColumns)
	if err := e.searcher.SearchReader(e.pattern, decodeReader(r, e.encoding), c); err != nil {
		return c.result(), err
	}
	res := c.result()
	e.matchesFound.Add(int64(res.matchCount))
	return res, nil
}

// searchFile opens path and searches at most MaxFileBytes of it. Open
// failures are wrapped in errSkipFile.
func (e *Engine) searchFile(path string, maxCount, offset int) (*fileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errSkipFile, err)
	}
	defer f.Close()

	e.filesScanned.Add(1)
	counted := &countingReader{r: f, n: &e.bytesScanned}

	var r io.Reader = io.LimitReader(counted, MaxFileBytes)
	if e.searchZip {
		dr, ct, closeFn, err := decompress(counted)
		if err != nil {
			log.Debug("decompression failed", "path", path, "error", err)
			return nil, err
		}
		defer closeFn()
		if ct != CompressionNone {
			log.Debug("searching compressed file", "path", path, "compression", ct)
		}
		r = io.LimitReader(dr, MaxFileBytes)
	}

	return e.searchReader(r, maxCount, offset)
}

// Stats is a snapshot of an engine's counters.
type Stats struct {
	FilesScanned int64 `json:"filesScanned"`
	BytesScanned int64 `json:"bytesScanned"`
	MatchesFound int64 `json:"matchesFound"`
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		FilesScanned: e.filesScanned.Load(),
		BytesScanned: e.bytesScanned.Load(),
		MatchesFound: e.matchesFound.Load(),
	}
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
