package trash

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Bios-Marcel/wastebasket/v2"
)

// System returns a Trasher backed by the platform trash: the
// freedesktop.org trash on Linux and BSD, Finder on macOS and the
// recycle bin on Windows.
func System() Trasher {
	return Func(systemTrash)
}

// systemTrash fails for a path that no longer exists, so a batch stops
// there instead of counting it as trashed.
func systemTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	if err := wastebasket.Trash(abs); err != nil {
		return fmt.Errorf("moving %s to the trash: %w", abs, err)
	}
	return nil
}
