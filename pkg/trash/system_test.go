//go:build linux

package trash

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// isolatedTrash points the freedesktop home trash into a temporary
// directory.
func isolatedTrash(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	return home
}

func TestSystemTrashRemovesFile(t *testing.T) {
	home := isolatedTrash(t)
	path := filepath.Join(home, "copy.txt")
	if err := os.WriteFile(path, []byte("duplicate"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := System().Trash(path); err != nil {
		t.Fatalf("Trash() error: %v", err)
	}
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Fatalf("%s still exists after trashing", path)
	}
}

func TestSystemTrashMissingFile(t *testing.T) {
	home := isolatedTrash(t)
	if err := System().Trash(filepath.Join(home, "gone")); !os.IsNotExist(err) {
		t.Fatalf("Trash(missing) error = %v, want not-exist", err)
	}
}

func TestRunWithSystemStopsAtMissingFile(t *testing.T) {
	home := isolatedTrash(t)
	first := filepath.Join(home, "a.txt")
	third := filepath.Join(home, "c.txt")
	for _, p := range []string{first, third} {
		if err := os.WriteFile(p, []byte(p), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	set := record.Set{{Path: first}, {Path: filepath.Join(home, "b.txt")}, {Path: third}}

	out, err := Run(set, All(set), System())
	if err == nil {
		t.Fatal("Run() should fail at the missing file")
	}
	if out.Trashed != 1 || out.FailedAt != 1 {
		t.Fatalf("Run() = %+v, want 1 trashed, failed at 1", out)
	}
	if _, err := os.Lstat(third); err != nil {
		t.Fatalf("entry after the failure was touched: %v", err)
	}
}
