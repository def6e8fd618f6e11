// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "sample.txt")
	data := []byte("test payload")

	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("unexpected file contents: got %q want %q", got, data)
	}
}

func TestAppendJSONL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results", "model.jsonl")
	for i := 0; i < 2; i++ {
		if err := AppendJSONL(path, map[string]int{"n": i}); err != nil {
			t.Fatalf("AppendJSONL returned error: %v", err)
		}
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(got)), "\n")
	if len(lines) != 2 || lines[0] != `{"n":0}` || lines[1] != `{"n":1}` {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"gpt-4":                    "gpt-4",
		"GPT 3.5 Turbo":            "gpt-3-5-turbo",
		"qwen2.5:7b-instruct":      "qwen2-5_7b-instruct",
		"  --models/llama 3--  ":   "models-llama-3",
		"meta-llama/Llama-3.1-8B":  "meta-llama-llama-3-1-8b",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q)=%q want %q", in, got, want)
		}
	}
}

func TestSuffixPath(t *testing.T) {
	t.Parallel()

	if got := SuffixPath("reports/nutrition_evaluation_report.md", "gpt-4"); got != "reports/nutrition_evaluation_report-gpt-4.md" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := SuffixPath("report", "x"); got != "report-x" {
		t.Fatalf("unexpected path %q", got)
	}
	if got := SuffixPath("report.md", ""); got != "report.md" {
		t.Fatalf("empty suffix should keep path, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "hello", max: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", max: 5, want: "hello…"},
		{name: "multibyte truncation", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestSingleLine(t *testing.T) {
	t.Parallel()

	if got := SingleLine("a\n  b\t c\r\n"); got != "a b c" {
		t.Fatalf("unexpected %q", got)
	}
}
