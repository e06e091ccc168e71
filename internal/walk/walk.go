// Package walk lists the files under a directory the way git sees them:
// ignore files are honored, hidden entries are optional, symlinks are never
// followed, and the result comes back in a stable path order.
package walk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/localrivet/grepkit/internal/log"
)

// Options controls which entries Collect yields.
type Options struct {
	// Hidden includes dot files and directories.
	Hidden bool
	// Ignore honors .gitignore, .git/info/exclude, the global git excludes
	// file and .ignore files. Git rules only apply inside a git work tree.
	Ignore bool
	// IncludeDirs yields directories as well as regular files.
	IncludeDirs bool
}

// Entry is one walked path.
type Entry struct {
	Path    string
	RelPath string
	IsDir   bool
}

// Walker walks a single root.
type Walker struct {
	root   string
	opts   Options
	inRepo bool

	// Rules in increasing precedence. .ignore rules beat git rules.
	git    []*IgnoreFile
	ignore []*IgnoreFile
}

// New prepares a walker for root, loading the ignore files that apply from
// outside the tree.
func New(root string, opts Options) (*Walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	w := &Walker{root: abs, opts: opts}
	if opts.Ignore {
		w.loadOuterRules()
	}
	return w, nil
}

func (w *Walker) loadOuterRules() {
	var ancestors []string
	for dir := filepath.Dir(w.root); ; dir = filepath.Dir(dir) {
		ancestors = append([]string{dir}, ancestors...)
		if filepath.Dir(dir) == dir {
			break
		}
	}
	if w.root == filepath.Dir(w.root) {
		ancestors = nil
	}

	repo := findRepoRoot(w.root)
	if repo != "" {
		w.inRepo = true
		if global := globalExcludesFile(); global != "" {
			w.git = appendRules(w.git, repo, global)
		}
		w.git = appendRules(w.git, repo, filepath.Join(repo, ".git", "info", "exclude"))
		for _, dir := range ancestors {
			if isWithin(repo, dir) {
				w.git = appendRules(w.git, dir, filepath.Join(dir, ".gitignore"))
			}
		}
	}
	for _, dir := range ancestors {
		w.ignore = appendRules(w.ignore, dir, filepath.Join(dir, ".ignore"))
	}
}

// Collect walks the tree and returns its entries sorted by relative path.
func (w *Walker) Collect(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := w.walkDir(ctx, w.root, "", w.git, w.ignore, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RelPath < out[j].RelPath
	})
	return out, nil
}

// Collect is a shorthand for New followed by Walker.Collect.
func Collect(ctx context.Context, root string, opts Options) ([]Entry, error) {
	w, err := New(root, opts)
	if err != nil {
		return nil, err
	}
	return w.Collect(ctx)
}

func (w *Walker) walkDir(ctx context.Context, dir, rel string, git, ign []*IgnoreFile, out *[]Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if w.opts.Ignore {
		if w.inRepo {
			git = appendRules(git[:len(git):len(git)], dir, filepath.Join(dir, ".gitignore"))
		}
		ign = appendRules(ign[:len(ign):len(ign)], dir, filepath.Join(dir, ".ignore"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debug("skipping unreadable directory", "dir", dir, "error", err)
		return nil
	}

	for _, d := range entries {
		name := d.Name()
		abs := filepath.Join(dir, name)
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}

		typ := d.Type()
		if typ&fs.ModeSymlink != 0 {
			continue
		}
		isDir := d.IsDir()
		if isDir && name == ".git" {
			continue
		}
		if !w.opts.Hidden && isHidden(abs, name) {
			continue
		}
		if w.opts.Ignore && isIgnored(abs, isDir, git, ign) {
			continue
		}

		if isDir {
			if w.opts.IncludeDirs {
				*out = append(*out, Entry{Path: abs, RelPath: childRel, IsDir: true})
			}
			if err := w.walkDir(ctx, abs, childRel, git, ign, out); err != nil {
				return err
			}
			continue
		}
		if !typ.IsRegular() {
			continue
		}
		*out = append(*out, Entry{Path: abs, RelPath: childRel})
	}
	return nil
}

func isIgnored(abs string, isDir bool, git, ign []*IgnoreFile) bool {
	for i := len(ign) - 1; i >= 0; i-- {
		if ignored, ok := ign[i].match(abs, isDir); ok {
			return ignored
		}
	}
	for i := len(git) - 1; i >= 0; i-- {
		if ignored, ok := git[i].match(abs, isDir); ok {
			return ignored
		}
	}
	return false
}

func appendRules(rules []*IgnoreFile, dir, path string) []*IgnoreFile {
	ig, err := LoadIgnoreFile(dir, path)
	if err != nil {
		log.Debug("skipping ignore file", "path", path, "error", err)
		return rules
	}
	if ig == nil || len(ig.Patterns) == 0 {
		return rules
	}
	return append(rules, ig)
}

func isWithin(parent, dir string) bool {
	rel, err := filepath.Rel(parent, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithDotDot(rel))
}

func startsWithDotDot(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}
