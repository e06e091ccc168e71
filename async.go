package grepkit

import (
	"context"

	"github.com/localrivet/grepkit/internal/pool"
)

var (
	// ErrTaskPanicked is returned by Handle.Wait when the work panicked.
	ErrTaskPanicked = pool.ErrTaskPanicked
	// ErrTaskCancelled is returned by Handle.Wait when the work never ran.
	ErrTaskCancelled = pool.ErrTaskCancelled
)

// Handle is the pending result of an asynchronous call. It resolves once.
type Handle[T any] struct {
	h *pool.Handle[T]
}

// Done is closed when the result is ready.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.h.Done()
}

// Wait blocks until the result is ready or ctx ends.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	return h.h.Wait(ctx)
}

func submit[T any](fn func() (T, error)) *Handle[T] {
	return &Handle[T]{h: pool.Submit(pool.Default(), fn)}
}

// GrepAsync runs Grep on the shared worker pool.
func GrepAsync(ctx context.Context, pattern, path string, opts ...Option) *Handle[*GrepResult] {
	return submit(func() (*GrepResult, error) {
		return Grep(ctx, pattern, path, opts...)
	})
}

// SearchAsync runs Search on the shared worker pool.
func SearchAsync(content []byte, pattern string, opts ...Option) *Handle[*SearchResult] {
	return submit(func() (*SearchResult, error) {
		return Search(content, pattern, opts...), nil
	})
}

// FuzzyFindAsync runs FuzzyFind on the shared worker pool.
func FuzzyFindAsync(ctx context.Context, query, root string, opts ...FindOption) *Handle[*FuzzyResult] {
	return submit(func() (*FuzzyResult, error) {
		return FuzzyFind(ctx, query, root, opts...)
	})
}
