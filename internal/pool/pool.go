// Package pool runs blocking work on a fixed set of worker goroutines and
// hands results back through single-resolution handles.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/localrivet/grepkit/internal/log"
)

var (
	// ErrTaskPanicked wraps the value recovered from a panicking task.
	ErrTaskPanicked = errors.New("task panicked")
	// ErrTaskCancelled is returned for tasks that never ran because the pool
	// was closed.
	ErrTaskCancelled = errors.New("task cancelled")
)

// Pool executes submitted tasks on a fixed number of workers.
type Pool struct {
	tasks   chan func()
	workers sync.WaitGroup
	pending sync.WaitGroup

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool, creating it on first use with one
// worker per available CPU. It is never closed.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = New(runtime.GOMAXPROCS(0))
	})
	return defaultPool
}

// New starts a pool with the given number of workers.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan func(), workers*4),
	}
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for task := range p.tasks {
		task()
	}
}

// enqueue never blocks the caller. When the queue is full the hand-off
// happens on a short-lived goroutine.
func (p *Pool) enqueue(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
	default:
		p.pending.Add(1)
		go func() {
			defer p.pending.Done()
			p.tasks <- task
		}()
	}
	return true
}

// Close stops accepting work, runs everything already queued and waits for
// the workers to exit.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.pending.Wait()
		close(p.tasks)
		p.workers.Wait()
	})
}

// Handle is the result of a submitted task. It resolves exactly once.
type Handle[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed once the task has resolved.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task resolves or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on p and returns its handle. A panic in fn resolves the
// handle with an error wrapping ErrTaskPanicked.
func Submit[T any](p *Pool, fn func() (T, error)) *Handle[T] {
	h := &Handle[T]{done: make(chan struct{})}

	task := func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				log.Error("task panicked", "panic", r, "stack", string(debug.Stack()))
				var zero T
				h.value = zero
				h.err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()
		h.value, h.err = fn()
	}

	if !p.enqueue(task) {
		h.err = ErrTaskCancelled
		close(h.done)
	}
	return h
}
