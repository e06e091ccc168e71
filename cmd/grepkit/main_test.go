package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localrivet/grepkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workspace creates a project directory, makes it the working directory and
// points HOME somewhere empty so user config files do not leak in.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "")
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGrepCommand(t *testing.T) {
	workspace(t, map[string]string{
		"a.txt":     "one\nneedle here\nthree\n",
		"sub/b.txt": "needle\nneedle again\n",
	})

	out, _, err := run(t, "", "needle")
	require.NoError(t, err)
	assert.Equal(t, "a.txt:2:needle here\nsub/b.txt:1:needle\nsub/b.txt:2:needle again\n", out)

	out, _, err = run(t, "", "-c", "needle")
	require.NoError(t, err)
	assert.Equal(t, "a.txt:1\nsub/b.txt:2\n", out)

	out, _, err = run(t, "", "--offset", "1", "-m", "1", "needle", ".")
	require.NoError(t, err)
	assert.Equal(t, "sub/b.txt:1:needle\n", out)

	_, _, err = run(t, "", "absent")
	assert.ErrorIs(t, err, errNoMatch)
}

func TestGrepCommandContext(t *testing.T) {
	workspace(t, map[string]string{
		"a.txt": "l1\nhit\nl3\nl4\nl5\nhit\nl7\n",
	})

	out, _, err := run(t, "", "-C", "1", "hit")
	require.NoError(t, err)
	expected := "a.txt-1-l1\na.txt:2:hit\na.txt-3-l3\n--\na.txt-5-l5\na.txt:6:hit\na.txt-7-l7\n"
	assert.Equal(t, expected, out)
}

func TestGrepCommandConfig(t *testing.T) {
	workspace(t, map[string]string{
		"a.txt":         "l1\nHIT\nl3\n",
		".grepkit.toml": "ignore_case = true\ncontext = 1\n",
	})

	out, _, err := run(t, "", "--glob", "*.txt", "hit")
	require.NoError(t, err)
	assert.Equal(t, "a.txt-1-l1\na.txt:2:HIT\na.txt-3-l3\n", out)

	out, _, err = run(t, "", "--glob", "*.txt", "-C", "0", "hit")
	require.NoError(t, err)
	assert.Equal(t, "a.txt:2:HIT\n", out, "flags override the config file")
}

func TestGrepCommandBadConfig(t *testing.T) {
	workspace(t, map[string]string{
		".grepkit.yaml": "context: -2\n",
	})
	_, _, err := run(t, "", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}

func TestGrepCommandJSON(t *testing.T) {
	workspace(t, map[string]string{"a.txt": "needle\n"})

	out, _, err := run(t, "", "--json", "--stats", "needle")
	require.NoError(t, err)

	var res struct {
		grepkit.GrepResult
		Stats grepkit.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.TotalMatches)
	assert.Equal(t, 1, res.FilesSearched)
	assert.Equal(t, int64(1), res.Stats.FilesScanned)
	assert.Equal(t, int64(len("needle\n")), res.Stats.BytesScanned)
}

func TestGrepCommandErrors(t *testing.T) {
	dir := workspace(t, map[string]string{"a.txt": "x\n"})

	_, _, err := run(t, "", "(", dir)
	assert.ErrorIs(t, err, grepkit.ErrInvalidPattern)

	_, _, err = run(t, "", "x", filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, grepkit.ErrPathNotFound)

	_, _, err = run(t, "", "--encoding", "klingon", "x")
	assert.ErrorIs(t, err, grepkit.ErrUnknownEncoding)
}

func TestGrepCommandColor(t *testing.T) {
	workspace(t, map[string]string{"a.txt": "a needle b\n"})

	out, _, err := run(t, "", "--color", "always", "needle")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "needle")
	assert.NotEqual(t, "a.txt:1:a needle b\n", out)
}

func TestSearchCommand(t *testing.T) {
	workspace(t, nil)

	out, _, err := run(t, "alpha\nbeta\ngamma\n", "search", "beta")
	require.NoError(t, err)
	assert.Equal(t, "2:beta\n", out)

	out, _, err = run(t, "a\na\na\n", "search", "-m", "1", "a")
	require.NoError(t, err)
	assert.Equal(t, "1:a\n... more matches available\n", out)

	_, _, err = run(t, "x", "search", "[")
	assert.ErrorContains(t, err, "regex error")

	out, _, err = run(t, "x", "--json", "search", "[")
	require.NoError(t, err)
	var res grepkit.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Contains(t, res.Error, "regex error")
	assert.Empty(t, res.Matches)
}

func TestHasMatchCommand(t *testing.T) {
	dir := workspace(t, map[string]string{"a.txt": "Hello\n"})

	out, _, err := run(t, "", "has-match", "-i", "hello", filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, _, err = run(t, "Hello", "has-match", "-q", "hello")
	assert.ErrorIs(t, err, errNoMatch)
	assert.Empty(t, out)
}

func TestFindCommand(t *testing.T) {
	workspace(t, map[string]string{
		"cmd/tool/main.go": "x",
		"README.md":        "x",
		".env":             "x",
	})

	out, _, err := run(t, "", "find", "main")
	require.NoError(t, err)
	assert.Equal(t, "cmd/tool/main.go\n", out)

	out, _, err = run(t, "", "find", "cmd")
	require.NoError(t, err)
	assert.Equal(t, "cmd/\ncmd/tool/\ncmd/tool/main.go\n", out)

	out, _, err = run(t, "", "find", "env")
	assert.ErrorIs(t, err, errNoMatch)
	assert.Empty(t, out)

	out, _, err = run(t, "", "find", "--find-hidden", "env")
	require.NoError(t, err)
	assert.Equal(t, ".env\n", out)

	_, stderr, err := run(t, "", "find", "-n", "1", "cmd")
	require.NoError(t, err)
	assert.Contains(t, stderr, "2 more")
}

func TestVersionCommand(t *testing.T) {
	workspace(t, nil)
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "grepkit dev")
	assert.Contains(t, out, "gzip, bzip2, zstd, xz")
}
