package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read buffer size. Cancellation is honored between
// chunks, so a single huge file stays interruptible.
const ChunkSize = 16 * 1024

// EmptyDigest is the SHA-256 digest of zero bytes.
const EmptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// Sentinel errors. Every error returned by File wraps exactly one of them.
var (
	ErrOpen      = errors.New("can't open file")
	ErrRead      = errors.New("read failed")
	ErrDigest    = errors.New("digest failed")
	ErrCancelled = errors.New("hash cancelled")
)

// ProgressFunc receives the running byte count after each chunk.
type ProgressFunc func(read, total int64, path string)

// Percent returns read as a percentage of total, or 0 when total is 0.
func Percent(read, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(read) / float64(total) * 100
}

// IsDigest reports whether s is a lowercase hex SHA-256 digest.
func IsDigest(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// File computes the SHA-256 of filePath in ChunkSize reads. total is the
// size reported by the caller's stat and only feeds progress; callers
// classify zero-length files themselves and never pass them here.
func File(ctx context.Context, filePath string, total int64, progress ProgressFunc) (_ string, err error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w: %w", filePath, ErrOpen, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("hashing %s: %w: %w", filePath, ErrRead, closeErr)
		}
	}()

	h := sha256.New()
	var read int64
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			read += int64(n)
			if _, err := h.Write(buf[:n]); err != nil {
				return "", fmt.Errorf("hashing %s: %w: %w", filePath, ErrDigest, err)
			}
			if progress != nil {
				progress(read, total, filePath)
			}
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("hashing %s: %w", filePath, ErrCancelled)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return "", fmt.Errorf("hashing %s: %w: %w", filePath, ErrRead, readErr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
