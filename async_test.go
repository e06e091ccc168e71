package grepkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrepAsync(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "needle\n", "b.txt": "needle\nneedle\n"})

	h := GrepAsync(context.Background(), "needle", root)
	res, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalMatches)

	select {
	case <-h.Done():
	default:
		t.Fatal("handle should be resolved after Wait returns")
	}

	// Waiting again returns the same value.
	again, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, res, again)
}

func TestGrepAsyncError(t *testing.T) {
	isolateHome(t)
	_, err := GrepAsync(context.Background(), "x", "/definitely/not/here").Wait(context.Background())
	assert.ErrorIs(t, err, ErrPathNotFound)
}

func TestSearchAsync(t *testing.T) {
	res, err := SearchAsync([]byte("a\nb\na\n"), "a").Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.MatchCount)
}

func TestFuzzyFindAsync(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.go": "x"})

	res, err := FuzzyFindAsync(context.Background(), "main", root).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, fuzzyPaths(res))
}

func TestHandleWaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	h := submit(func() (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := h.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestHandlePanic(t *testing.T) {
	h := submit(func() (string, error) {
		panic("boom")
	})
	_, err := h.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTaskPanicked)
}
