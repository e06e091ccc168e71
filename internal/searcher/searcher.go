// Package searcher runs a compiled matcher over a byte stream and reports
// matching lines and their surrounding context to a Sink, in file order.
package searcher

import (
	"bufio"
	"bytes"
	"io"
)

const readBufferSize = 64 * 1024

// ContextKind tells a Sink where a context line sits relative to a match.
type ContextKind int

const (
	// Before lines precede the next reported match.
	Before ContextKind = iota
	// After lines follow the most recently reported match.
	After
	// Break marks a gap between two non-adjacent context groups. It carries
	// no line.
	Break
)

// String returns the name of the context kind.
func (k ContextKind) String() string {
	switch k {
	case Before:
		return "before"
	case After:
		return "after"
	case Break:
		return "break"
	default:
		return "unknown"
	}
}

// Matcher is the regex primitive the searcher drives. *regexp.Regexp
// satisfies it.
type Matcher interface {
	Match(b []byte) bool
	FindAllIndex(b []byte, n int) [][]int
}

// Sink receives search events. Returning false from either method stops the
// search without error. Line slices are only valid for the duration of the
// call.
type Sink interface {
	Matched(lineNumber int, line []byte) (bool, error)
	Context(kind ContextKind, lineNumber int, line []byte) (bool, error)
}

// Config controls how a Searcher reports matches.
type Config struct {
	// Before and After size the context windows around each match.
	Before int
	After  int
	// BinaryQuit stops the search at the first NUL byte. The part of the
	// line before the NUL is still searched.
	BinaryQuit bool
}

// Searcher is stateless between calls and safe for concurrent use.
type Searcher struct {
	cfg Config
}

// New creates a Searcher. Negative context sizes are treated as zero.
func New(cfg Config) *Searcher {
	if cfg.Before < 0 {
		cfg.Before = 0
	}
	if cfg.After < 0 {
		cfg.After = 0
	}
	return &Searcher{cfg: cfg}
}

// Config returns the searcher configuration.
func (s *Searcher) Config() Config {
	return s.cfg
}

// SearchReader searches everything r yields. Callers bound the input with an
// io.LimitReader when they need a byte budget.
func (s *Searcher) SearchReader(m Matcher, r io.Reader, sink Sink) error {
	return s.searchLines(m, r, sink)
}

// SearchSlice searches an in-memory buffer.
func (s *Searcher) SearchSlice(m Matcher, data []byte, sink Sink) error {
	return s.searchLines(m, bytes.NewReader(data), sink)
}

func (s *Searcher) searchLines(m Matcher, r io.Reader, sink Sink) error {
	br := bufio.NewReaderSize(r, readBufferSize)
	em := newEmitter(sink, s.cfg)

	var ring []pendingLine
	if s.cfg.Before > 0 {
		ring = make([]pendingLine, 0, s.cfg.Before)
	}
	afterLeft := 0
	num := 0

	for {
		data, err := br.ReadBytes('\n')
		if len(data) > 0 {
			num++
			data = bytes.TrimSuffix(data, []byte{'\n'})
			if s.cfg.BinaryQuit {
				switch i := bytes.IndexByte(data, 0); {
				case i == 0:
					return nil
				case i > 0:
					data = data[:i]
					err = io.EOF
				}
			}

			switch {
			case m.Match(data):
				first := num
				if len(ring) > 0 {
					first = ring[0].num
				}
				if ok, serr := em.gap(first); serr != nil || !ok {
					return serr
				}
				for _, pl := range ring {
					if ok, serr := em.context(Before, pl.num, pl.data); serr != nil || !ok {
						return serr
					}
				}
				ring = ring[:0]
				if ok, serr := em.matched(num, data); serr != nil || !ok {
					return serr
				}
				afterLeft = s.cfg.After
			case afterLeft > 0:
				if ok, serr := em.context(After, num, data); serr != nil || !ok {
					return serr
				}
				afterLeft--
			case s.cfg.Before > 0:
				if len(ring) == s.cfg.Before {
					copy(ring, ring[1:])
					ring = ring[:len(ring)-1]
				}
				ring = append(ring, pendingLine{num: num, data: data})
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type pendingLine struct {
	num  int
	data []byte
}
