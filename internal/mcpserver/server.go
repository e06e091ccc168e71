// Package mcpserver exposes grepkit over the Model Context Protocol so agents
// can search files without shelling out.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/localrivet/grepkit"
	"github.com/localrivet/grepkit/internal/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Defaults applied to tool arguments that leave a value unset.
type Defaults struct {
	IgnoreCase     bool
	Context        int
	MaxColumns     int
	Hidden         bool
	Gitignore      bool
	Workers        int
	SearchZip      bool
	FindHidden     bool
	FindGitignore  bool
	FindMaxResults int
}

// Server wraps an MCP server with the grepkit tools registered.
type Server struct {
	server   *mcp.Server
	defaults Defaults
}

// GrepArgs is the input of the grep tool.
type GrepArgs struct {
	Pattern    string `json:"pattern" jsonschema:"regular expression to search for"`
	Path       string `json:"path,omitempty" jsonschema:"file or directory to search (defaults to the working directory)"`
	Glob       string `json:"glob,omitempty" jsonschema:"only search files whose relative path matches this glob"`
	Type       string `json:"type,omitempty" jsonschema:"only search files of this type (e.g. go, py, ts)"`
	OutputMode string `json:"output_mode,omitempty" jsonschema:"content (default) or count"`
	IgnoreCase *bool  `json:"ignore_case,omitempty" jsonschema:"case-insensitive matching"`
	Multiline  bool   `json:"multiline,omitempty" jsonschema:"make ^ and $ match at line boundaries"`
	Context    *int   `json:"context,omitempty" jsonschema:"lines of context before and after each match"`
	MaxCount   int    `json:"max_count,omitempty" jsonschema:"maximum matches to return (0 = unlimited)"`
	Offset     int    `json:"offset,omitempty" jsonschema:"matches to skip before collecting"`
	MaxColumns *int   `json:"max_columns,omitempty" jsonschema:"truncate lines longer than this many bytes (0 = never)"`
	Encoding   string `json:"encoding,omitempty" jsonschema:"text encoding of the files (default utf-8)"`
}

// SearchArgs is the input of the search tool.
type SearchArgs struct {
	Content    string `json:"content" jsonschema:"text to search"`
	Pattern    string `json:"pattern" jsonschema:"regular expression to search for"`
	IgnoreCase bool   `json:"ignore_case,omitempty" jsonschema:"case-insensitive matching"`
	Multiline  bool   `json:"multiline,omitempty" jsonschema:"make ^ and $ match at line boundaries"`
	Context    int    `json:"context,omitempty" jsonschema:"lines of context before and after each match"`
	MaxCount   int    `json:"max_count,omitempty" jsonschema:"maximum matches to return (0 = unlimited)"`
	Offset     int    `json:"offset,omitempty" jsonschema:"matches to skip before collecting"`
	MaxColumns int    `json:"max_columns,omitempty" jsonschema:"truncate lines longer than this many bytes (0 = never)"`
}

// HasMatchArgs is the input of the has_match tool.
type HasMatchArgs struct {
	Content    string `json:"content" jsonschema:"text to test"`
	Pattern    string `json:"pattern" jsonschema:"regular expression to look for"`
	IgnoreCase bool   `json:"ignore_case,omitempty" jsonschema:"case-insensitive matching"`
	Multiline  bool   `json:"multiline,omitempty" jsonschema:"make ^ and $ match at line boundaries"`
}

// FuzzyFindArgs is the input of the fuzzy_find tool.
type FuzzyFindArgs struct {
	Query      string `json:"query" jsonschema:"case-insensitive substring of the relative path"`
	Path       string `json:"path,omitempty" jsonschema:"directory to walk (defaults to the working directory)"`
	MaxResults *int   `json:"max_results,omitempty" jsonschema:"maximum paths to return"`
	Ranked     bool   `json:"ranked,omitempty" jsonschema:"order by fuzzy score instead of walk order"`
	Hidden     *bool  `json:"hidden,omitempty" jsonschema:"include hidden entries"`
}

type hasMatchResult struct {
	Matched bool `json:"matched"`
}

// New creates a server and registers its tools.
func New(version string, defaults Defaults) *Server {
	if defaults.FindMaxResults <= 0 {
		defaults.FindMaxResults = grepkit.DefaultFindResults
	}
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "grepkit",
			Version: version,
		}, nil),
		defaults: defaults,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "grep",
		Description: "Search files under a path for a regular expression. Honors .gitignore, supports glob and type filters, context lines and pagination via offset and max_count.",
	}, s.handleGrep)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search a block of text for a regular expression and return the matching lines.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "has_match",
		Description: "Report whether a block of text contains a match for a regular expression.",
	}, s.handleHasMatch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fuzzy_find",
		Description: "Find files and directories whose relative path contains the query.",
	}, s.handleFuzzyFind)
}

// Run serves over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	log.Info("mcp server starting", "transport", "stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) handleGrep(ctx context.Context, _ *mcp.CallToolRequest, args GrepArgs) (*mcp.CallToolResult, any, error) {
	if args.Pattern == "" {
		return errorResult(grepkit.ErrEmptyPattern), nil, nil
	}

	d := s.defaults
	ignoreCase := d.IgnoreCase
	if args.IgnoreCase != nil {
		ignoreCase = *args.IgnoreCase
	}
	contextLines := d.Context
	if args.Context != nil {
		contextLines = *args.Context
	}
	maxColumns := d.MaxColumns
	if args.MaxColumns != nil {
		maxColumns = *args.MaxColumns
	}

	opts := []grepkit.Option{
		grepkit.WithMode(grepkit.ParseOutputMode(args.OutputMode)),
		grepkit.WithContextLines(contextLines),
		grepkit.WithMaxColumns(maxColumns),
		grepkit.WithMaxCount(args.MaxCount),
		grepkit.WithOffset(args.Offset),
		grepkit.WithGlob(args.Glob),
		grepkit.WithType(args.Type),
		grepkit.WithHidden(d.Hidden),
		grepkit.WithGitignore(d.Gitignore),
		grepkit.WithSearchZip(d.SearchZip),
	}
	if ignoreCase {
		opts = append(opts, grepkit.WithIgnoreCase())
	}
	if args.Multiline {
		opts = append(opts, grepkit.WithMultiline())
	}
	if d.Workers > 0 {
		opts = append(opts, grepkit.WithWorkers(d.Workers))
	}
	if args.Encoding != "" {
		opts = append(opts, grepkit.WithEncoding(args.Encoding))
	}

	res, err := grepkit.Grep(ctx, args.Pattern, args.Path, opts...)
	if err != nil {
		log.Debug("grep tool failed", "pattern", args.Pattern, "path", args.Path, "error", err)
		return errorResult(err), nil, nil
	}
	return jsonResult(res)
}

func (s *Server) handleSearch(_ context.Context, _ *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	if args.Pattern == "" {
		return errorResult(grepkit.ErrEmptyPattern), nil, nil
	}

	opts := []grepkit.Option{
		grepkit.WithContextLines(args.Context),
		grepkit.WithMaxCount(args.MaxCount),
		grepkit.WithOffset(args.Offset),
		grepkit.WithMaxColumns(args.MaxColumns),
	}
	if args.IgnoreCase {
		opts = append(opts, grepkit.WithIgnoreCase())
	}
	if args.Multiline {
		opts = append(opts, grepkit.WithMultiline())
	}

	res := grepkit.SearchString(args.Content, args.Pattern, opts...)
	if res.Error != "" {
		return errorResult(fmt.Errorf("%s", res.Error)), nil, nil
	}
	return jsonResult(res)
}

func (s *Server) handleHasMatch(_ context.Context, _ *mcp.CallToolRequest, args HasMatchArgs) (*mcp.CallToolResult, any, error) {
	if args.Pattern == "" {
		return errorResult(grepkit.ErrEmptyPattern), nil, nil
	}
	ok, err := grepkit.HasMatch([]byte(args.Content), args.Pattern, args.IgnoreCase, args.Multiline)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(hasMatchResult{Matched: ok})
}

func (s *Server) handleFuzzyFind(ctx context.Context, _ *mcp.CallToolRequest, args FuzzyFindArgs) (*mcp.CallToolResult, any, error) {
	d := s.defaults
	hidden := d.FindHidden
	if args.Hidden != nil {
		hidden = *args.Hidden
	}
	maxResults := d.FindMaxResults
	if args.MaxResults != nil {
		maxResults = *args.MaxResults
	}

	opts := []grepkit.FindOption{
		grepkit.FindHidden(hidden),
		grepkit.FindGitignore(d.FindGitignore),
		grepkit.FindMaxResults(maxResults),
	}
	if args.Ranked {
		opts = append(opts, grepkit.FindRanked())
	}

	res, err := grepkit.FuzzyFind(ctx, args.Query, args.Path, opts...)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return jsonResult(res)
}

func jsonResult(data any) (*mcp.CallToolResult, any, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal response data: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}
}
