package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedupe.log")
	if err := Init(Config{Level: "info", Format: "json", OutputPath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { globalLogger = nil })

	Debug("hidden at info level")
	Info("scan finished", String("root", "/data"), Int("entries", 3))
	if err := Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1:\n%s", len(lines), b)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "scan finished" || rec["root"] != "/data" || rec["entries"] != float64(3) {
		t.Fatalf("unexpected log record: %v", rec)
	}
}

func TestSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dedupe.log")
	if err := Init(Config{Level: "error", Format: "json", OutputPath: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { globalLogger = nil })

	Warn("dropped")
	SetLevel("debug")
	Named("traverse").Debug("kept")
	SetLevel("not-a-level")
	_ = Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected log contents:\n%s", out)
	}
	if !strings.Contains(out, `"logger":"traverse"`) {
		t.Fatalf("named logger missing:\n%s", out)
	}
}

func TestLDefaults(t *testing.T) {
	globalLogger = nil
	t.Cleanup(func() { globalLogger = nil })
	if L() == nil || S() == nil {
		t.Fatal("L() and S() must never return nil")
	}
}
