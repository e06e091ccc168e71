package grepkit

import (
	"sync"

	"github.com/localrivet/grepkit/internal/log"
)

// matchEmitter delivers records to a user callback on its own goroutine so a
// slow callback never holds up the search. Records are delivered in the
// order they were emitted. After close the goroutine drains the queue and
// exits on its own. A nil emitter discards everything.
type matchEmitter struct {
	fn func(GrepMatch)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []GrepMatch
	closed bool
}

func newMatchEmitter(fn func(GrepMatch)) *matchEmitter {
	if fn == nil {
		return nil
	}
	e := &matchEmitter{fn: fn}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

func (e *matchEmitter) emit(m GrepMatch) {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.queue = append(e.queue, m)
	e.mu.Unlock()
	e.cond.Signal()
}

// close stops accepting records. It does not wait for delivery.
func (e *matchEmitter) close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *matchEmitter) run() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		batch := e.queue
		e.queue = nil
		closed := e.closed
		e.mu.Unlock()

		for _, m := range batch {
			e.deliver(m)
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}

func (e *matchEmitter) deliver(m GrepMatch) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("match callback panicked", "path", m.Path, "panic", r)
		}
	}()
	e.fn(m)
}
