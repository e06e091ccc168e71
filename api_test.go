package grepkit

import (
	"errors"
	"runtime"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o, err := buildOptions(nil)
	if err != nil {
		t.Fatalf("buildOptions failed: %v", err)
	}

	if o.mode != ModeContent {
		t.Errorf("expected content mode, got %v", o.mode)
	}
	if !o.hidden || !o.gitignore {
		t.Error("hidden files and ignore files should be on by default")
	}
	if o.workers != runtime.GOMAXPROCS(0) {
		t.Errorf("expected %d workers, got %d", runtime.GOMAXPROCS(0), o.workers)
	}
	if o.maxCount != 0 || o.offset != 0 || o.contextLines != 0 || o.maxColumns != 0 {
		t.Errorf("unexpected limits: %+v", o)
	}
	if o.encoding != nil {
		t.Error("no encoding should be set by default")
	}
}

func TestSearchOptions(t *testing.T) {
	t.Run("CaseFlags", func(t *testing.T) {
		o, _ := buildOptions([]Option{WithIgnoreCase()})
		if !o.ignoreCase {
			t.Error("expected ignoreCase")
		}
		o, _ = buildOptions([]Option{WithIgnoreCase(), WithCaseSensitive()})
		if o.ignoreCase {
			t.Error("WithCaseSensitive should win when applied last")
		}
	})

	t.Run("MaxCount", func(t *testing.T) {
		o, _ := buildOptions([]Option{WithMaxCount(5)})
		if o.maxCount != 5 {
			t.Errorf("expected 5, got %d", o.maxCount)
		}
		o, _ = buildOptions([]Option{WithMaxCount(5), WithMaxCount(-1)})
		if o.maxCount != 0 {
			t.Errorf("negative max should mean no limit, got %d", o.maxCount)
		}
	})

	t.Run("IgnoresNegativeValues", func(t *testing.T) {
		o, _ := buildOptions([]Option{
			WithOffset(3), WithOffset(-1),
			WithContextLines(2), WithContextLines(-5),
			WithMaxColumns(80), WithMaxColumns(-1),
			WithWorkers(4), WithWorkers(0),
			WithTimeout(time.Second), WithTimeout(-time.Second),
		})
		if o.offset != 3 || o.contextLines != 2 || o.maxColumns != 80 || o.workers != 4 || o.timeout != time.Second {
			t.Errorf("invalid values should be ignored: %+v", o)
		}
	})

	t.Run("FileOptions", func(t *testing.T) {
		o, _ := buildOptions([]Option{
			WithGlob("  *.go "),
			WithType("go"),
			WithHidden(false),
			WithGitignore(false),
			WithSearchZip(true),
			WithMode(ModeCount),
		})
		if o.glob != "*.go" {
			t.Errorf("glob should be trimmed, got %q", o.glob)
		}
		if o.typeName != "go" || o.hidden || o.gitignore || !o.searchZip || o.mode != ModeCount {
			t.Errorf("unexpected options: %+v", o)
		}
	})

	t.Run("Callbacks", func(t *testing.T) {
		var stats Stats
		called := false
		o, _ := buildOptions([]Option{
			WithStats(&stats),
			WithOnMatch(func(GrepMatch) { called = true }),
		})
		if o.stats != &stats {
			t.Error("stats destination not stored")
		}
		o.onMatch(GrepMatch{})
		if !called {
			t.Error("callback not stored")
		}
	})
}

func TestEncodingOption(t *testing.T) {
	for _, name := range SupportedEncodings() {
		if _, err := buildOptions([]Option{WithEncoding(name)}); err != nil {
			t.Errorf("encoding %q should be accepted: %v", name, err)
		}
	}

	o, err := buildOptions([]Option{WithEncoding(" Latin1 ")})
	if err != nil {
		t.Fatal(err)
	}
	if o.encoding == nil {
		t.Error("expected a resolved encoding")
	}

	_, err = buildOptions([]Option{WithEncoding("klingon")})
	if !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("expected ErrUnknownEncoding, got %v", err)
	}
}
