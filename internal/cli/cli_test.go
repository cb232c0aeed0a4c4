package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/nethoundsh/dedupe/internal/config"
	"github.com/nethoundsh/dedupe/pkg/output"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// execute runs the CLI with an isolated config file, cache and trash.
func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))

	full := append([]string{"--config", filepath.Join(home, "config.yaml")}, args...)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), full, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	old := time.Date(2021, 6, 1, 8, 0, 0, 0, time.Local)
	files := []struct {
		rel     string
		content string
		mod     time.Time
	}{
		{"keep.txt", "duplicate body", old},
		{"copies/copy.txt", "duplicate body", old.Add(time.Hour)},
		{"alone.txt", "only one of these", time.Time{}},
		{"empty", "", time.Time{}},
	}
	for _, f := range files {
		p := filepath.Join(root, f.rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(f.content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
		if !f.mod.IsZero() {
			if err := os.Chtimes(p, f.mod, f.mod); err != nil {
				t.Fatalf("chtimes: %v", err)
			}
		}
	}
	return root
}

func decodeLines(t *testing.T, s string) []map[string]json.RawMessage {
	t.Helper()
	var out []map[string]json.RawMessage
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("not NDJSON: %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestScanJSON(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "", "scan", "--json", "--no-cache", root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}

	lines := decodeLines(t, res.stdout)
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 6 entries and a summary:\n%s", len(lines), res.stdout)
	}
	var first output.JSONEntry
	if err := json.Unmarshal(mustMarshal(t, lines[0]), &first); err != nil {
		t.Fatalf("decoding first entry: %v", err)
	}
	if first.Group == nil || *first.Group != 0 || first.Path != filepath.Join(root, "copies", "copy.txt") {
		t.Fatalf("first entry = %+v, want group 0 copies/copy.txt", first)
	}

	var sum output.JSONSummaryRecord
	if err := json.Unmarshal(mustMarshal(t, lines[len(lines)-1]), &sum); err != nil {
		t.Fatalf("decoding summary: %v", err)
	}
	if sum.Summary.Groups != 1 || sum.Summary.Empty != 1 || sum.Summary.Unique != 1 || sum.Summary.Directories != 2 {
		t.Fatalf("unexpected summary %+v", sum.Summary)
	}
}

func TestScanFilterAndExclude(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "", "scan", "--json", "--no-cache", "--exclude", "directory",
		"--filter", "name=alone,or,result=Empty", root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	lines := decodeLines(t, res.stdout)
	// alone.txt, empty and the summary.
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), res.stdout)
	}
}

func TestScanFailOnDupes(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "", "scan", "--summary", "--no-cache", "--fail-on-dupes", root)
	if res.code != ExitDuplicates {
		t.Fatalf("exit %d, want %d; stderr: %s", res.code, ExitDuplicates, res.stderr)
	}
	if !strings.Contains(res.stdout, "Groups:") {
		t.Fatalf("summary missing:\n%s", res.stdout)
	}
}

func TestScanRejectsOverlappingRoots(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "", "scan", "--no-cache", root, filepath.Join(root, "copies"))
	if res.code != ExitError {
		t.Fatalf("exit %d, want %d", res.code, ExitError)
	}
	if !strings.Contains(res.stderr, "Error:") {
		t.Fatalf("stderr = %q", res.stderr)
	}
}

func TestScanUsesDigestCache(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "", "scan", "--summary", root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	cacheFile := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "dedupe", "digests.json")
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		t.Fatalf("digest cache not written: %v", err)
	}
	if !strings.Contains(string(data), filepath.Join(root, "keep.txt")) {
		t.Fatalf("cache lacks keep.txt:\n%s", data)
	}
}

func TestAutoDryRun(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "", "auto", "--dry-run", "--no-cache", "--preserve", "modified-last", root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Trash  - Group 0000000") || !strings.Contains(res.stdout, "keep.txt") {
		t.Fatalf("plan missing:\n%s", res.stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "keep.txt")); err != nil {
		t.Fatalf("dry run removed a file: %v", err)
	}
}

func TestAutoDeclined(t *testing.T) {
	root := writeTree(t)
	res := execute(t, "n\n", "auto", "--no-cache", root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "Cancelled.") {
		t.Fatalf("stdout = %q", res.stdout)
	}
	if !strings.Contains(res.stderr, "[y/N]") {
		t.Fatalf("no prompt on stderr: %q", res.stderr)
	}
	for _, rel := range []string{"keep.txt", "copies/copy.txt"} {
		if _, err := os.Stat(filepath.Join(root, rel)); err != nil {
			t.Fatalf("declined run removed %s: %v", rel, err)
		}
	}
}

func TestAutoTrashes(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("freedesktop trash only")
	}
	root := writeTree(t)
	res := execute(t, "", "auto", "--yes", "--no-cache", "--preserve", "modified-first", root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	if _, err := os.Stat(filepath.Join(root, "keep.txt")); err != nil {
		t.Fatalf("keeper was removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "copies", "copy.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("copy still present: %v", err)
	}
	trashed, err := filepath.Glob(filepath.Join(os.Getenv("XDG_DATA_HOME"), "Trash", "files", "copy*"))
	if err != nil || len(trashed) != 1 {
		t.Fatalf("copy not in trash: %v %v", trashed, err)
	}
}

func TestAutoNoDuplicates(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "solo"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := execute(t, "", "auto", "--no-cache", root)
	if res.code != ExitOK || !strings.Contains(res.stdout, "No duplicates found.") {
		t.Fatalf("exit %d, stdout %q", res.code, res.stdout)
	}
}

func TestHashCommand(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	if err := os.WriteFile(p, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	const abc = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	res := execute(t, "", "hash", p)
	if res.code != ExitOK || !strings.Contains(res.stdout, abc) {
		t.Fatalf("exit %d, stdout %q, stderr %q", res.code, res.stdout, res.stderr)
	}

	res = execute(t, "", "hash", p, filepath.Join(dir, "missing"))
	if res.code != ExitError {
		t.Fatalf("exit %d with a missing file, want %d", res.code, ExitError)
	}
}

func TestConfigSaveAndShow(t *testing.T) {
	home := t.TempDir()
	cfgPath := filepath.Join(home, "config.yaml")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"--config", cfgPath, "config", "save", "--preserve", "name-descending", "--exclude", "directory", "--auto-prompt=false"},
		strings.NewReader(""), &stdout, &stderr)
	if code != ExitOK {
		t.Fatalf("config save exit %d: %s", code, stderr.String())
	}

	cfg, err := config.LoadFrom(cfgPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if cfg.PreservePolicy != 5 || cfg.Include.Directory || !cfg.Include.Unique || cfg.AutoPrompt {
		t.Fatalf("saved config = %+v", cfg)
	}

	stdout.Reset()
	code = run(context.Background(), []string{"--config", cfgPath, "config", "show"}, strings.NewReader(""), &stdout, &stderr)
	if code != ExitOK || !strings.Contains(stdout.String(), "preserve_policy: 5") {
		t.Fatalf("config show exit %d:\n%s", code, stdout.String())
	}
}

func TestMetricsFile(t *testing.T) {
	root := writeTree(t)
	metricsPath := filepath.Join(t.TempDir(), "dedupe.prom")
	res := execute(t, "", "scan", "--summary", "--no-cache", "--metrics-file", metricsPath, root)
	if res.code != ExitOK {
		t.Fatalf("exit %d, stderr: %s", res.code, res.stderr)
	}
	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), "dedupe_entries_total") {
		t.Fatalf("metrics file lacks dedupe_entries_total:\n%s", data)
	}
}

func TestExitCode(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{name: "nil", ctx: context.Background(), err: nil, want: ExitOK},
		{name: "plain error", ctx: context.Background(), err: errors.New("boom"), want: ExitError},
		{name: "explicit code", ctx: context.Background(), err: withCode(ExitDuplicates, errors.New("dupes")), want: ExitDuplicates},
		{name: "hash cancelled", ctx: context.Background(), err: fmt.Errorf("walking: %w", traverse.ErrCancelled), want: ExitInterrupted},
		{name: "context cancelled", ctx: cancelled, err: errors.New("anything"), want: ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.ctx, tt.err); got != tt.want {
				t.Fatalf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
