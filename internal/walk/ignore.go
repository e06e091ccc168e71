package walk

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Pattern is a single rule from an ignore file.
type Pattern struct {
	Pattern   string
	Regex     *regexp.Regexp
	Negation  bool
	Directory bool
	Anchored  bool
}

// IgnoreFile holds the rules of one ignore file. Rules apply to paths
// relative to Dir.
type IgnoreFile struct {
	Dir      string
	Source   string
	Patterns []Pattern
}

// LoadIgnoreFile reads rules from path. A missing file yields nil and no
// error.
func LoadIgnoreFile(dir, path string) (*IgnoreFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	ig, err := ParseIgnore(dir, f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ig.Source = path
	return ig, nil
}

// ParseIgnore parses gitignore syntax from r.
func ParseIgnore(dir string, r io.Reader) (*IgnoreFile, error) {
	ig := &IgnoreFile{Dir: dir}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if p := parsePattern(scanner.Text()); p != nil {
			ig.Patterns = append(ig.Patterns, *p)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ig, nil
}

// AddPattern appends a rule as if it were the last line of the file.
func (ig *IgnoreFile) AddPattern(line string) error {
	p := parsePattern(line)
	if p == nil {
		return fmt.Errorf("invalid pattern: %s", line)
	}
	ig.Patterns = append(ig.Patterns, *p)
	return nil
}

// match reports whether the file's rules decide absPath. The last matching
// rule wins; matched is false when no rule applies.
func (ig *IgnoreFile) match(absPath string, isDir bool) (ignored, matched bool) {
	rel, err := filepath.Rel(ig.Dir, absPath)
	if err != nil || rel == "." || rel == ".." || startsWithDotDot(rel) {
		return false, false
	}
	rel = filepath.ToSlash(rel)

	for i := len(ig.Patterns) - 1; i >= 0; i-- {
		p := &ig.Patterns[i]
		if p.Directory && !isDir {
			continue
		}
		if p.Regex.MatchString(rel) {
			return !p.Negation, true
		}
	}
	return false, false
}

func parsePattern(line string) *Pattern {
	line = strings.TrimRight(line, "\r")
	if trimmed := strings.TrimRight(line, " "); !strings.HasSuffix(trimmed, "\\") {
		line = trimmed
	}
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	p := &Pattern{Pattern: line}
	if strings.HasPrefix(line, "!") {
		p.Negation = true
		line = line[1:]
	} else if strings.HasPrefix(line, `\!`) || strings.HasPrefix(line, `\#`) {
		line = line[1:]
	}

	if strings.HasSuffix(line, "/") {
		p.Directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if line == "" {
		return nil
	}

	// A slash anywhere but the end anchors the rule to the file's directory.
	if strings.Contains(line, "/") {
		p.Anchored = true
		line = strings.TrimPrefix(line, "/")
	}

	expr := globToRegex(line)
	if p.Anchored {
		expr = "^" + expr + "$"
	} else {
		expr = "(^|/)" + expr + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	p.Regex = re
	return p
}

// globToRegex converts gitignore glob syntax into a regular expression body.
func globToRegex(glob string) string {
	var sb strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				atStart := i == 0 || glob[i-1] == '/'
				atEnd := i+2 == len(glob)
				if atStart && atEnd {
					sb.WriteString(".*")
					i++
					continue
				}
				if atStart && glob[i+2] == '/' {
					sb.WriteString("(.*/)?")
					i += 2
					continue
				}
			}
			sb.WriteString("[^/]*")
			for i+1 < len(glob) && glob[i+1] == '*' {
				i++
			}
		case '?':
			sb.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				sb.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				sb.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return sb.String()
}
