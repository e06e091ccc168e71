package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/localrivet/grepkit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClientImpl = &mcp.Implementation{Name: "grepkit-test", Version: "1.0.0"}

func connect(t *testing.T, defaults Defaults) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	srv := New("test", defaults)
	serverSession, err := srv.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(testClientImpl, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text, res.IsError
}

func projectDir(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	files := map[string]string{
		"main.go":        "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n",
		"lib/util.go":    "package lib\n\n// hello helper\nfunc Hello() {}\n",
		"docs/README.md": "Say hello\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestListTools(t *testing.T) {
	session := connect(t, Defaults{})
	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, expected := range []string{"grep", "search", "has_match", "fuzzy_find"} {
		assert.True(t, names[expected], "expected tool %q", expected)
	}
}

func TestGrepTool(t *testing.T) {
	dir := projectDir(t)
	session := connect(t, Defaults{Hidden: true, Gitignore: true})

	text, isErr := callTool(t, session, "grep", map[string]any{
		"pattern": "hello",
		"path":    dir,
		"type":    "go",
	})
	require.False(t, isErr, text)

	var res grepkit.GrepResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, 2, res.TotalMatches)
	assert.Equal(t, 2, res.FilesSearched)
	assert.Equal(t, []string{"lib/util.go", "main.go"}, res.Files())
}

func TestGrepToolPagination(t *testing.T) {
	dir := projectDir(t)
	session := connect(t, Defaults{Hidden: true, Gitignore: true})

	text, isErr := callTool(t, session, "grep", map[string]any{
		"pattern":   "(?i)hello",
		"path":      dir,
		"max_count": 1,
		"offset":    1,
	})
	require.False(t, isErr, text)

	var res grepkit.GrepResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "lib/util.go", res.Matches[0].Path)
	assert.True(t, res.LimitReached)
}

func TestGrepToolCountMode(t *testing.T) {
	dir := projectDir(t)
	session := connect(t, Defaults{Hidden: true, Gitignore: true})

	text, isErr := callTool(t, session, "grep", map[string]any{
		"pattern":     "hello",
		"path":        dir,
		"output_mode": "count",
		"ignore_case": true,
	})
	require.False(t, isErr, text)

	var res grepkit.GrepResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	assert.Equal(t, 4, res.TotalMatches)
	require.Len(t, res.Matches, 3)
	counts := make(map[string]int)
	for _, m := range res.Matches {
		assert.Zero(t, m.LineNumber)
		counts[m.Path] = m.MatchCount
	}
	assert.Equal(t, map[string]int{"docs/README.md": 1, "lib/util.go": 2, "main.go": 1}, counts)
}

func TestGrepToolErrors(t *testing.T) {
	dir := projectDir(t)
	session := connect(t, Defaults{})

	text, isErr := callTool(t, session, "grep", map[string]any{"pattern": ""})
	assert.True(t, isErr)
	assert.Contains(t, text, grepkit.ErrEmptyPattern.Error())

	text, isErr = callTool(t, session, "grep", map[string]any{"pattern": "(", "path": dir})
	assert.True(t, isErr)
	assert.Contains(t, text, "regex error")

	text, isErr = callTool(t, session, "grep", map[string]any{"pattern": "x", "path": filepath.Join(dir, "missing")})
	assert.True(t, isErr)
	assert.Contains(t, text, "path not found")

	text, isErr = callTool(t, session, "grep", map[string]any{"pattern": "x", "path": dir, "glob": "[abc"})
	assert.True(t, isErr)
	assert.Contains(t, text, grepkit.ErrInvalidGlob.Error())
}

func TestSearchTool(t *testing.T) {
	session := connect(t, Defaults{})

	text, isErr := callTool(t, session, "search", map[string]any{
		"content": "alpha\nbeta\ngamma\nbeta again\n",
		"pattern": "beta",
		"context": 1,
	})
	require.False(t, isErr, text)

	var res grepkit.SearchResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 2, res.Matches[0].LineNumber)
	assert.Equal(t, []grepkit.ContextLine{{LineNumber: 1, Line: "alpha"}}, res.Matches[0].ContextBefore)
	assert.Equal(t, 4, res.Matches[1].LineNumber)

	text, isErr = callTool(t, session, "search", map[string]any{"content": "x", "pattern": "["})
	assert.True(t, isErr)
	assert.Contains(t, text, "regex error")
}

func TestHasMatchTool(t *testing.T) {
	session := connect(t, Defaults{})

	text, isErr := callTool(t, session, "has_match", map[string]any{
		"content":     "Hello World",
		"pattern":     "hello",
		"ignore_case": true,
	})
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"matched":true}`, text)

	text, isErr = callTool(t, session, "has_match", map[string]any{"content": "Hello", "pattern": "hello"})
	require.False(t, isErr, text)
	assert.JSONEq(t, `{"matched":false}`, text)
}

func TestFuzzyFindTool(t *testing.T) {
	dir := projectDir(t)
	session := connect(t, Defaults{FindGitignore: true})

	text, isErr := callTool(t, session, "fuzzy_find", map[string]any{"query": "LIB", "path": dir})
	require.False(t, isErr, text)

	var res grepkit.FuzzyResult
	require.NoError(t, json.Unmarshal([]byte(text), &res))
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "lib/", res.Matches[0].Path)
	assert.True(t, res.Matches[0].IsDirectory)
	assert.Equal(t, "lib/util.go", res.Matches[1].Path)

	text, isErr = callTool(t, session, "fuzzy_find", map[string]any{"query": "x", "path": filepath.Join(dir, "main.go")})
	assert.True(t, isErr)
	assert.Contains(t, text, grepkit.ErrNotDirectory.Error())
}
