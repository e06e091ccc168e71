package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Hidden)
	assert.Equal(t, 100, cfg.Find.MaxResults)
}

func TestLoadLayers(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	write(t, home, ".grepkit.toml", `
ignore_case = true
context = 2
color = "never"

[find]
max_results = 20
`)

	project := t.TempDir()
	write(t, project, ".grepkit.yaml", `
context: 5
hidden: false
type: go
log_level: debug
`)

	cfg, err := Load(project)
	require.NoError(t, err)
	assert.True(t, cfg.IgnoreCase, "kept from the home file")
	assert.Equal(t, 5, cfg.Context, "project file wins")
	assert.False(t, cfg.Hidden)
	assert.Equal(t, "go", cfg.Type)
	assert.Equal(t, "never", cfg.Color)
	assert.Equal(t, 20, cfg.Find.MaxResults)
	assert.True(t, cfg.Find.Gitignore, "default kept")

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLocateOrder(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Locate(dir))

	write(t, dir, ".grepkit.yml", "context: 1\n")
	assert.Equal(t, filepath.Join(dir, ".grepkit.yml"), Locate(dir))

	write(t, dir, ".grepkit.toml", "context = 1\n")
	assert.Equal(t, filepath.Join(dir, ".grepkit.toml"), Locate(dir))
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	write(t, dir, "unknown.toml", "no_such_key = 1\n")
	assert.Error(t, Default().LoadFile(filepath.Join(dir, "unknown.toml")))

	write(t, dir, "unknown.yaml", "no_such_key: 1\n")
	assert.Error(t, Default().LoadFile(filepath.Join(dir, "unknown.yaml")))

	write(t, dir, "broken.toml", "context = \n")
	assert.Error(t, Default().LoadFile(filepath.Join(dir, "broken.toml")))

	write(t, dir, "config.json", "{}")
	assert.Error(t, Default().LoadFile(filepath.Join(dir, "config.json")))

	assert.Error(t, Default().LoadFile(filepath.Join(dir, "missing.toml")))

	write(t, dir, "empty.yaml", "")
	cfg := Default()
	require.NoError(t, cfg.LoadFile(filepath.Join(dir, "empty.yaml")))
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"NegativeContext", func(c *Config) { c.Context = -1 }},
		{"NegativeColumns", func(c *Config) { c.MaxColumns = -1 }},
		{"NegativeCount", func(c *Config) { c.MaxCount = -3 }},
		{"NegativeWorkers", func(c *Config) { c.Workers = -1 }},
		{"NegativeFindResults", func(c *Config) { c.Find.MaxResults = -1 }},
		{"BadColor", func(c *Config) { c.Color = "rainbow" }},
		{"BadLevel", func(c *Config) { c.LogLevel = "loud" }},
	}

	require.NoError(t, Default().Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
