package grepkit

import (
	"context"
	"os"
	"path/filepath"

	"github.com/localrivet/grepkit/internal/walk"
)

// fileEntry is a candidate file for Grep.
type fileEntry struct {
	path    string
	relPath string
}

// discover lists the regular files under root that pass the filter, sorted by
// relative path.
func discover(ctx context.Context, root string, filter FileFilter, o *searchOptions) ([]fileEntry, error) {
	entries, err := walk.Collect(ctx, root, walk.Options{
		Hidden: o.hidden,
		Ignore: o.gitignore,
	})
	if err != nil {
		return nil, err
	}

	files := make([]fileEntry, 0, len(entries))
	for _, e := range entries {
		if !filter.Match(e.RelPath, e.Path) {
			continue
		}
		files = append(files, fileEntry{path: e.Path, relPath: e.RelPath})
	}
	return files, nil
}

// resolvePath makes path absolute against the working directory. An empty
// path means the working directory itself.
func resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, path), nil
}
