package grepkit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/localrivet/grepkit/internal/log"
)

// Grep searches the files under path. A directory root is walked with ignore
// files honored and filtered by WithGlob and WithType; a file root is
// searched directly with only the type filter applied.
//
// Without WithMaxCount and WithOffset files are searched concurrently.
// Otherwise they are searched one at a time in path order so the offset and
// the cap apply across the whole tree. Either way records come back sorted
// by relative path and then line number.
//
// Configuration and path problems fail the call. Files that cannot be opened
// or read are skipped.
func Grep(ctx context.Context, pattern, path string, opts ...Option) (*GrepResult, error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	root, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPathNotFound, err)
	}

	p, err := Compile(pattern, o.ignoreCase, o.multiline)
	if err != nil {
		return nil, err
	}
	glob, err := CompileGlob(o.glob)
	if err != nil {
		return nil, err
	}
	filter := FileFilter{Glob: glob, Type: ResolveTypeFilter(o.typeName)}

	eng := newEngine(p, o)
	if o.stats != nil {
		defer func() { *o.stats = eng.Stats() }()
	}

	emit := newMatchEmitter(o.onMatch)
	defer emit.close()

	if !info.IsDir() {
		return grepSingleFile(eng, root, filter.Type, o, emit)
	}

	entries, err := discover(ctx, root, filter, o)
	if err != nil {
		return nil, err
	}
	log.Debug("discovered files", "root", root, "count", len(entries))

	if len(entries) == 0 {
		return emptyGrepResult(0), nil
	}
	if o.maxCount == 0 && o.offset == 0 {
		return grepParallel(ctx, eng, entries, o, emit)
	}
	return grepSequential(ctx, eng, entries, o, emit)
}

func grepSingleFile(eng *Engine, path string, typeFilter *TypeFilter, o *searchOptions, emit *matchEmitter) (*GrepResult, error) {
	if !typeFilter.Match(path) {
		return emptyGrepResult(0), nil
	}

	res, err := eng.searchFile(path, o.maxCount, o.offset)
	if errors.Is(err, errSkipFile) {
		log.Debug("skipping file", "path", path, "error", err)
		return emptyGrepResult(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if res.matchCount == 0 {
		return emptyGrepResult(1), nil
	}

	records := res.records(o.mode, path)
	for _, m := range records {
		emit.emit(m)
	}
	return &GrepResult{
		Matches:          records,
		TotalMatches:     res.matchCount,
		FilesWithMatches: 1,
		FilesSearched:    1,
		LimitReached:     res.limitReached || (o.maxCount > 0 && res.collected >= o.maxCount),
	}, nil
}

// grepParallel searches every entry concurrently. Results land in the slot of
// their entry, so merging in slot order keeps the path order.
func grepParallel(ctx context.Context, eng *Engine, entries []fileEntry, o *searchOptions, emit *matchEmitter) (*GrepResult, error) {
	results := make([]*fileResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := eng.searchFile(e.path, 0, 0)
			switch {
			case errors.Is(err, errSkipFile):
				log.Debug("skipping file", "path", e.path, "error", err)
				return nil
			case err != nil:
				log.Debug("search failed", "path", e.path, "error", err)
				return nil
			}
			res.relPath = e.relPath
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := emptyGrepResult(0)
	for _, res := range results {
		if res == nil {
			continue
		}
		out.FilesSearched++
		if res.matchCount == 0 {
			continue
		}
		out.FilesWithMatches++
		out.TotalMatches += res.matchCount
		for _, m := range res.records(o.mode, res.relPath) {
			emit.emit(m)
			out.Matches = append(out.Matches, m)
		}
	}
	return out, nil
}

// grepSequential searches entries in order, carrying the global offset and
// cap from file to file.
func grepSequential(ctx context.Context, eng *Engine, entries []fileEntry, o *searchOptions, emit *matchEmitter) (*GrepResult, error) {
	out := emptyGrepResult(0)
	collected := 0

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileOffset := max(0, o.offset-out.TotalMatches)
		remaining := 0
		if o.maxCount > 0 {
			remaining = o.maxCount - collected
			if remaining <= 0 {
				out.LimitReached = true
				break
			}
		}

		res, err := eng.searchFile(e.path, remaining, fileOffset)
		if errors.Is(err, errSkipFile) {
			log.Debug("skipping file", "path", e.path, "error", err)
			continue
		}
		if err != nil {
			log.Debug("search failed", "path", e.path, "error", err)
			continue
		}
		out.FilesSearched++
		if res.matchCount == 0 {
			continue
		}

		out.FilesWithMatches++
		out.TotalMatches += res.matchCount
		collected += res.collected
		out.Matches = append(out.Matches, res.records(o.mode, e.relPath)...)

		if res.limitReached || (o.maxCount > 0 && collected >= o.maxCount) {
			out.LimitReached = true
			break
		}
	}

	for _, m := range out.Matches {
		emit.emit(m)
	}
	return out, nil
}

func emptyGrepResult(filesSearched int) *GrepResult {
	return &GrepResult{
		Matches:       []GrepMatch{},
		FilesSearched: filesSearched,
	}
}
