package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/localrivet/grepkit"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// printer renders results in grep's line format, colorized when enabled.
type printer struct {
	w       io.Writer
	pattern *grepkit.Pattern

	path    lipgloss.Style
	lineNo  lipgloss.Style
	match   lipgloss.Style
	sep     lipgloss.Style
	dir     lipgloss.Style
	ellipse lipgloss.Style
}

func newPrinter(w io.Writer, colorMode string, p *grepkit.Pattern) *printer {
	r := lipgloss.NewRenderer(w)
	if useColor(w, colorMode) {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &printer{
		w:       w,
		pattern: p,
		path:    r.NewStyle().Foreground(lipgloss.Color("5")),
		lineNo:  r.NewStyle().Foreground(lipgloss.Color("2")),
		match:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).TabWidth(lipgloss.NoTabConversion),
		sep:     r.NewStyle().Foreground(lipgloss.Color("6")),
		dir:     r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		ellipse: r.NewStyle().Faint(true),
	}
}

func useColor(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *printer) grepResult(res *grepkit.GrepResult) error {
	var lastPath string
	lastLine := -1
	for _, m := range res.Matches {
		if m.LineNumber == 0 {
			if _, err := fmt.Fprintf(p.w, "%s%s%d\n", p.path.Render(m.Path), p.sep.Render(":"), m.MatchCount); err != nil {
				return err
			}
			continue
		}

		first := m.LineNumber
		if len(m.ContextBefore) > 0 {
			first = m.ContextBefore[0].LineNumber
		}
		hasContext := len(m.ContextBefore) > 0 || len(m.ContextAfter) > 0
		if hasContext && lastLine >= 0 && (m.Path != lastPath || first > lastLine+1) {
			if _, err := fmt.Fprintln(p.w, p.sep.Render("--")); err != nil {
				return err
			}
		}

		prefix := p.path.Render(m.Path)
		for _, c := range m.ContextBefore {
			p.contextLine(prefix, c)
		}
		p.matchLine(prefix, m.LineNumber, m.Line, m.Truncated)
		for _, c := range m.ContextAfter {
			p.contextLine(prefix, c)
		}

		lastPath = m.Path
		lastLine = m.LineNumber
		if n := len(m.ContextAfter); n > 0 {
			lastLine = m.ContextAfter[n-1].LineNumber
		}
		if !hasContext {
			lastLine = -1
		}
	}
	return nil
}

func (p *printer) searchResult(res *grepkit.SearchResult) error {
	for _, m := range res.Matches {
		for _, c := range m.ContextBefore {
			p.contextLine("", c)
		}
		p.matchLine("", m.LineNumber, m.Line, m.Truncated)
		for _, c := range m.ContextAfter {
			p.contextLine("", c)
		}
	}
	if res.LimitReached {
		_, err := fmt.Fprintln(p.w, p.ellipse.Render("... more matches available"))
		return err
	}
	return nil
}

func (p *printer) fuzzyResult(res *grepkit.FuzzyResult) error {
	for _, m := range res.Matches {
		line := m.Path
		if m.IsDirectory {
			line = p.dir.Render(m.Path)
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) matchLine(prefix string, n int, line string, truncated bool) {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString(p.sep.Render(":"))
	}
	b.WriteString(p.lineNo.Render(strconv.Itoa(n)))
	b.WriteString(p.sep.Render(":"))
	b.WriteString(p.highlight(line, truncated))
	b.WriteByte('\n')
	io.WriteString(p.w, b.String())
}

func (p *printer) contextLine(prefix string, c grepkit.ContextLine) {
	var b strings.Builder
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteString(p.sep.Render("-"))
	}
	b.WriteString(p.lineNo.Render(strconv.Itoa(c.LineNumber)))
	b.WriteString(p.sep.Render("-"))
	b.WriteString(c.Line)
	b.WriteByte('\n')
	io.WriteString(p.w, b.String())
}

// highlight styles every match of the pattern inside line. The ellipsis of a
// truncated line is never highlighted.
func (p *printer) highlight(line string, truncated bool) string {
	if p.pattern == nil {
		return line
	}
	body, tail := line, ""
	if truncated && strings.HasSuffix(line, "...") {
		body, tail = line[:len(line)-3], p.ellipse.Render("...")
	}

	locs := p.pattern.FindAllIndex([]byte(body), -1)
	if len(locs) == 0 {
		return body + tail
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] == loc[1] {
			continue
		}
		b.WriteString(body[last:loc[0]])
		b.WriteString(p.match.Render(body[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(body[last:])
	b.WriteString(tail)
	return b.String()
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
