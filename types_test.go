package grepkit

import (
	"encoding/json"
	"testing"
)

func TestParseOutputMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected OutputMode
	}{
		{"", ModeContent},
		{"content", ModeContent},
		{"count", ModeCount},
		{"COUNT", ModeCount},
		{"filesWithMatches", ModeCount},
		{"files_with_matches", ModeCount},
		{"files-with-matches", ModeCount},
		{"something-else", ModeContent},
	}

	for _, tc := range testCases {
		if got := ParseOutputMode(tc.input); got != tc.expected {
			t.Errorf("ParseOutputMode(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestOutputModeText(t *testing.T) {
	var cfg struct {
		Mode OutputMode `json:"mode"`
	}
	if err := json.Unmarshal([]byte(`{"mode":"files_with_matches"}`), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeCount {
		t.Errorf("expected ModeCount, got %v", cfg.Mode)
	}

	out, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{"mode":"count"}` {
		t.Errorf("unexpected encoding: %s", out)
	}
}

func TestGrepMatchString(t *testing.T) {
	m := GrepMatch{Path: "a/b.go", LineNumber: 12, Line: "func x()"}
	if got := m.String(); got != "a/b.go:12:func x()" {
		t.Errorf("unexpected String(): %q", got)
	}

	c := GrepMatch{Path: "a/b.go", MatchCount: 4}
	if got := c.String(); got != "a/b.go:4" {
		t.Errorf("unexpected String(): %q", got)
	}
}

func TestGrepResultJSON(t *testing.T) {
	res := &GrepResult{
		Matches: []GrepMatch{
			{Path: "a.go", LineNumber: 2, Line: "x", ContextBefore: []ContextLine{{LineNumber: 1, Line: "w"}}},
			{Path: "a.go", LineNumber: 5, Line: "x", Truncated: true},
			{Path: "b.go", LineNumber: 1, Line: "x"},
		},
		TotalMatches:     3,
		FilesWithMatches: 2,
		FilesSearched:    4,
	}

	if !res.HasMatches() {
		t.Error("expected HasMatches")
	}
	files := res.Files()
	if len(files) != 2 || files[0] != "a.go" || files[1] != "b.go" {
		t.Errorf("unexpected Files(): %v", files)
	}

	out, err := json.Marshal(res.Matches[0])
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"path":"a.go","lineNumber":2,"line":"x","contextBefore":[{"lineNumber":1,"line":"w"}]}`
	if string(out) != expected {
		t.Errorf("got %s, expected %s", out, expected)
	}

	out, err = json.Marshal(&GrepResult{Matches: []GrepMatch{}})
	if err != nil {
		t.Fatal(err)
	}
	expected = `{"matches":[],"totalMatches":0,"filesWithMatches":0,"filesSearched":0}`
	if string(out) != expected {
		t.Errorf("got %s, expected %s", out, expected)
	}
}

func TestSearchResultHasMatches(t *testing.T) {
	if (&SearchResult{}).HasMatches() {
		t.Error("empty result should not have matches")
	}
	if !(&SearchResult{Matches: []Match{{LineNumber: 1}}}).HasMatches() {
		t.Error("expected HasMatches")
	}
}
