package traverse

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxRoots is the most roots a single run accepts.
const MaxRoots = 20

var (
	ErrNoRoots       = errors.New("no root directories given")
	ErrTooManyRoots  = errors.New("too many root directories")
	ErrNotAbsolute   = errors.New("root is not an absolute path")
	ErrDuplicateRoot = errors.New("root given more than once")
	ErrOverlap       = errors.New("roots overlap")
)

// CheckRoots validates a root list before any traversal starts and
// returns the cleaned roots in the caller's order. Two roots overlap when
// their separator counts differ by exactly one and the shorter is a
// prefix of the longer.
func CheckRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, ErrNoRoots
	}
	if len(roots) > MaxRoots {
		return nil, fmt.Errorf("%w: %d given, at most %d", ErrTooManyRoots, len(roots), MaxRoots)
	}

	cleaned := make([]string, 0, len(roots))
	seen := make(map[string]bool, len(roots))
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			return nil, fmt.Errorf("%w: %s", ErrNotAbsolute, r)
		}
		c := filepath.Clean(r)
		if seen[c] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoot, c)
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}

	for i := range cleaned {
		for j := i + 1; j < len(cleaned); j++ {
			if overlaps(cleaned[i], cleaned[j]) {
				return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, cleaned[i], cleaned[j])
			}
		}
	}
	return cleaned, nil
}

func overlaps(a, b string) bool {
	da, db := depth(a), depth(b)
	if da > db {
		a, b = b, a
		da, db = db, da
	}
	return db-da == 1 && strings.HasPrefix(b, a)
}

func depth(p string) int {
	return strings.Count(p, string(filepath.Separator))
}
