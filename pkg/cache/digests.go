package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/hasher"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

// fileVersion is bumped whenever the on-disk layout changes. Files with
// another version are discarded.
const fileVersion = 1

var errCorrupt = errors.New("corrupt digest cache")

// FilePath returns the OS-standard digest cache path
// (e.g. ~/.cache/dedupe/digests.json on Linux).
func FilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locating cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "dedupe", "digests.json"), nil
}

// Digest is one cached file digest. It is valid while the file keeps the
// same size and modification time.
type Digest struct {
	Size    int64     `json:"size"`
	ModTime int64     `json:"mtime_ns"`
	SHA256  string    `json:"sha256"`
	Checked time.Time `json:"checked"`
}

type digestFile struct {
	Version int               `json:"version"`
	Entries map[string]Digest `json:"entries"`
}

// Digests is a path-keyed digest cache backed by a JSON file.
type Digests struct {
	path    string
	maxAge  time.Duration
	refresh bool
	entries map[string]Digest
	dirty   bool
	hits    int
	misses  int
	now     func() time.Time
}

// OpenDigests loads the cache at path. A corrupt or outdated file is
// logged and replaced by an empty cache; other read errors are returned. maxAge of
// zero never expires entries. refresh ignores every stored entry but
// still records new ones.
func OpenDigests(path string, maxAge time.Duration, refresh bool, log *zap.Logger) (*Digests, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := readDigests(path)
	switch {
	case errors.Is(err, errCorrupt):
		log.Warn("discarding digest cache", zap.String("path", path), zap.Error(err))
		entries = make(map[string]Digest)
	case err != nil:
		return nil, err
	}
	return &Digests{
		path:    path,
		maxAge:  maxAge,
		refresh: refresh,
		entries: entries,
		now:     time.Now,
	}, nil
}

// Lookup returns the cached digest of path if it still matches meta.
func (d *Digests) Lookup(path string, meta fileinfo.Meta) (string, bool) {
	if d.refresh {
		return "", false
	}
	e, ok := d.entries[path]
	if !ok || e.Size != meta.Size || e.ModTime != meta.Modified.UnixNano() || !hasher.IsDigest(e.SHA256) {
		return "", false
	}
	if d.maxAge > 0 && d.now().Sub(e.Checked) > d.maxAge {
		return "", false
	}
	return e.SHA256, true
}

func (d *Digests) Store(path string, meta fileinfo.Meta, digest string) {
	d.entries[path] = Digest{
		Size:    meta.Size,
		ModTime: meta.Modified.UnixNano(),
		SHA256:  digest,
		Checked: d.now().UTC(),
	}
	d.dirty = true
}

// Wrap returns a DigestFunc that consults the cache before calling next
// and records what next computes.
func (d *Digests) Wrap(next traverse.DigestFunc) traverse.DigestFunc {
	if next == nil {
		next = traverse.HashFile
	}
	return func(ctx context.Context, path string, meta fileinfo.Meta, progress hasher.ProgressFunc) (string, error) {
		if digest, ok := d.Lookup(path, meta); ok {
			d.hits++
			return digest, nil
		}
		d.misses++
		digest, err := next(ctx, path, meta, progress)
		if err != nil {
			return "", err
		}
		d.Store(path, meta, digest)
		return digest, nil
	}
}

// Stats returns the lookup hits and misses since OpenDigests.
func (d *Digests) Stats() (hits, misses int) {
	return d.hits, d.misses
}

func (d *Digests) Len() int { return len(d.entries) }

// Save writes the cache if anything changed.
func (d *Digests) Save() error {
	if !d.dirty {
		return nil
	}
	if err := writeDigests(d.path, d.entries); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

// readDigests returns an empty map when path does not exist yet.
func readDigests(path string) (_ map[string]Digest, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]Digest), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening digest cache %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing digest cache %s: %w", path, closeErr)
		}
	}()

	var file digestFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %w", errCorrupt, err)
		}
		return nil, fmt.Errorf("decoding digest cache %s: %w", path, err)
	}
	if file.Version != fileVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", errCorrupt, file.Version, fileVersion)
	}
	if file.Entries == nil {
		file.Entries = make(map[string]Digest)
	}
	return file.Entries, nil
}

// writeDigests replaces path through a temporary file in the same
// directory, so a crash mid-write leaves the old cache in place.
func writeDigests(path string, entries map[string]Digest) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.Marshal(digestFile{Version: fileVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("encoding digest cache: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing digest cache: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing digest cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing digest cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("committing digest cache: %w", err)
	}
	return nil
}
