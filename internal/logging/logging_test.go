package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "nutrieval.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
		SetDebug(false)
	})

	LogEvent("hello %s", "world")
	LogDebug("hidden %s", "line")
	SetDebug(true)
	LogDebug("debug %s", "only")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if strings.Contains(content, "hidden line") {
		t.Fatalf("debug line logged while debug disabled: %s", content)
	}
	if !strings.Contains(content, "[DEBUG] debug only") {
		t.Fatalf("expected LogDebug content, got: %s", content)
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" in ", " ", "", " 2A ", map[string]any{"ok": true})
	if !strings.Contains(msg, "[IN]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "host=unknown") {
		t.Fatalf("expected default host, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "tag=2A") {
		t.Fatalf("expected tag, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestInitWithoutFileWritesStdoutOnly(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	LogEvent("stdout only")
	if buf.Len() != 0 {
		t.Fatalf("expected previous writer replaced, got: %s", buf.String())
	}
}

func TestConsoleLines(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	Success(&buf, "ok %d", 1)
	Warn(&buf, "careful")
	Failure(&buf, "failed: %s", "boom")
	Progress(&buf, "[%d/%d]", 1, 4)
	want := "ok 1\ncareful\nfailed: boom\n[1/4]\n"
	if buf.String() != want {
		t.Fatalf("unexpected console output %q", buf.String())
	}
}

func TestDumpRespectsDebug(t *testing.T) {
	var buf bytes.Buffer
	SetDebug(false)
	Dump(&buf, "cfg", map[string]int{"a": 1})
	if buf.Len() != 0 {
		t.Fatalf("dump printed with debug disabled")
	}
	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	Dump(&buf, "cfg", map[string]int{"a": 1})
	if !strings.HasPrefix(buf.String(), "cfg:\n") {
		t.Fatalf("unexpected dump output %q", buf.String())
	}
}
