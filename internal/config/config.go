// Package config loads grepkit defaults from .grepkit.toml or .grepkit.yaml
// files. Command line flags are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names looked up in a directory, in order.
var FileNames = []string{".grepkit.toml", ".grepkit.yaml", ".grepkit.yml"}

type Config struct {
	IgnoreCase bool   `toml:"ignore_case" yaml:"ignore_case"`
	Context    int    `toml:"context" yaml:"context"`
	MaxColumns int    `toml:"max_columns" yaml:"max_columns"`
	MaxCount   int    `toml:"max_count" yaml:"max_count"`
	Hidden     bool   `toml:"hidden" yaml:"hidden"`
	Gitignore  bool   `toml:"gitignore" yaml:"gitignore"`
	Glob       string `toml:"glob" yaml:"glob"`
	Type       string `toml:"type" yaml:"type"`
	Workers    int    `toml:"workers" yaml:"workers"`
	SearchZip  bool   `toml:"search_zip" yaml:"search_zip"`
	Encoding   string `toml:"encoding" yaml:"encoding"`

	Find Find `toml:"find" yaml:"find"`

	Color    string `toml:"color" yaml:"color"` // "auto", "always", "never"
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Find holds defaults for the find command.
type Find struct {
	Hidden     bool `toml:"hidden" yaml:"hidden"`
	Gitignore  bool `toml:"gitignore" yaml:"gitignore"`
	MaxResults int  `toml:"max_results" yaml:"max_results"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hidden:    true,
		Gitignore: true,
		Find: Find{
			Gitignore:  true,
			MaxResults: 100,
		},
		Color:    "auto",
		LogLevel: "warn",
	}
}

// Load starts from Default, overlays the config file in the home directory
// and then the one in dir. Keys a file does not mention keep their previous
// value.
func Load(dir string) (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if path := Locate(home); path != "" {
			if err := cfg.LoadFile(path); err != nil {
				return nil, err
			}
		}
	}

	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		if path := Locate(abs); path != "" {
			if err := cfg.LoadFile(path); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Locate returns the first config file present in dir, or "".
func Locate(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// LoadFile overlays the file at path onto c. The format follows the
// extension: .toml, or .yaml/.yml.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config format: %s", path)
	}
	return nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Context < 0 {
		return fmt.Errorf("context must not be negative: %d", c.Context)
	}
	if c.MaxColumns < 0 {
		return fmt.Errorf("max_columns must not be negative: %d", c.MaxColumns)
	}
	if c.MaxCount < 0 {
		return fmt.Errorf("max_count must not be negative: %d", c.MaxCount)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Workers)
	}
	if c.Find.MaxResults < 0 {
		return fmt.Errorf("find.max_results must not be negative: %d", c.Find.MaxResults)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color %q (expected auto, always or never)", c.Color)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty value means warn.
func (c *Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
