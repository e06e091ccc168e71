package grepkit

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// TypeFilter matches files by extension or by exact base name. Both sets hold
// lowercase values.
type TypeFilter struct {
	Extensions map[string]struct{}
	Names      map[string]struct{}
}

type typeDef struct {
	exts  []string
	names []string
}

var typeTable = map[string]typeDef{
	"js":         {exts: []string{"js", "jsx", "mjs", "cjs"}},
	"javascript": {exts: []string{"js", "jsx", "mjs", "cjs"}},
	"ts":         {exts: []string{"ts", "tsx", "mts", "cts"}},
	"typescript": {exts: []string{"ts", "tsx", "mts", "cts"}},
	"json":       {exts: []string{"json", "jsonc", "json5"}},
	"yaml":       {exts: []string{"yaml", "yml"}},
	"yml":        {exts: []string{"yaml", "yml"}},
	"toml":       {exts: []string{"toml"}},
	"md":         {exts: []string{"md", "markdown", "mdx"}},
	"markdown":   {exts: []string{"md", "markdown", "mdx"}},
	"py":         {exts: []string{"py", "pyi"}},
	"python":     {exts: []string{"py", "pyi"}},
	"rs":         {exts: []string{"rs"}},
	"rust":       {exts: []string{"rs"}},
	"go":         {exts: []string{"go"}},
	"java":       {exts: []string{"java"}},
	"kt":         {exts: []string{"kt", "kts"}},
	"kotlin":     {exts: []string{"kt", "kts"}},
	"c":          {exts: []string{"c", "h"}},
	"cpp":        {exts: []string{"cpp", "cc", "cxx", "hpp", "hxx", "hh"}},
	"cxx":        {exts: []string{"cpp", "cc", "cxx", "hpp", "hxx", "hh"}},
	"cs":         {exts: []string{"cs", "csx"}},
	"csharp":     {exts: []string{"cs", "csx"}},
	"php":        {exts: []string{"php", "phtml"}},
	"rb":         {exts: []string{"rb", "rake", "gemspec"}},
	"ruby":       {exts: []string{"rb", "rake", "gemspec"}},
	"sh":         {exts: []string{"sh", "bash", "zsh"}},
	"bash":       {exts: []string{"sh", "bash", "zsh"}},
	"zsh":        {exts: []string{"zsh"}},
	"fish":       {exts: []string{"fish"}},
	"html":       {exts: []string{"html", "htm"}},
	"css":        {exts: []string{"css"}},
	"scss":       {exts: []string{"scss"}},
	"sass":       {exts: []string{"sass"}},
	"less":       {exts: []string{"less"}},
	"xml":        {exts: []string{"xml"}},
	"docker":     {names: []string{"dockerfile"}},
	"dockerfile": {names: []string{"dockerfile"}},
	"make":       {names: []string{"makefile"}},
	"makefile":   {names: []string{"makefile"}},
}

// ResolveTypeFilter maps a type shorthand such as "py" or "ts" to a filter.
// Unknown names are treated as a bare extension. An empty name means no
// filter and returns nil.
func ResolveTypeFilter(name string) *TypeFilter {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if name == "" {
		return nil
	}

	def, ok := typeTable[name]
	if !ok {
		def = typeDef{exts: []string{name}}
	}

	f := &TypeFilter{
		Extensions: make(map[string]struct{}, len(def.exts)),
		Names:      make(map[string]struct{}, len(def.names)),
	}
	for _, ext := range def.exts {
		f.Extensions[ext] = struct{}{}
	}
	for _, n := range def.names {
		f.Names[n] = struct{}{}
	}
	return f
}

// Match reports whether the base name or extension of p is in the filter.
func (f *TypeFilter) Match(p string) bool {
	if f == nil {
		return true
	}
	base := strings.ToLower(filepath.Base(p))
	if _, ok := f.Names[base]; ok {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	if ext == "" {
		return false
	}
	_, ok := f.Extensions[ext]
	return ok
}

// Glob matches slash-separated paths relative to the search root.
type Glob struct {
	pattern string
}

// CompileGlob validates a glob. Backslashes become slashes, and a pattern with
// no slash is rewritten to match at any depth. An empty pattern returns nil.
func CompileGlob(pattern string) (*Glob, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	normalized := strings.ReplaceAll(pattern, `\`, "/")
	if !strings.Contains(normalized, "/") && !strings.HasPrefix(normalized, "**/") {
		normalized = "**/" + normalized
	}
	if !doublestar.ValidatePattern(normalized) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGlob, pattern)
	}
	return &Glob{pattern: normalized}, nil
}

// Match reports whether rel, a path relative to the search root, matches.
func (g *Glob) Match(rel string) bool {
	if g == nil {
		return true
	}
	ok, err := doublestar.Match(g.pattern, path.Clean(filepath.ToSlash(rel)))
	return err == nil && ok
}

// String returns the normalized pattern.
func (g *Glob) String() string {
	return g.pattern
}

// FileFilter combines a glob and a type filter. A file must satisfy both.
type FileFilter struct {
	Glob *Glob
	Type *TypeFilter
}

// Match tests rel against the glob and p against the type filter.
func (f FileFilter) Match(rel, p string) bool {
	return f.Glob.Match(rel) && f.Type.Match(p)
}
