// Package traverse walks root directories depth-first and appends one
// record per directory, regular file or failure to a record set.
package traverse

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/hasher"
	"github.com/nethoundsh/dedupe/pkg/record"
)

// MaxEntries is the default ceiling on the number of records a run may
// hold across all roots.
const MaxEntries = 9_999_999

// Reasons recorded in Error classifications.
const (
	ReasonOpenDir   = "can't open directory"
	ReasonStat      = "stat failed"
	ReasonOpenFile  = "can't open file"
	ReasonRead      = "read failed"
	ReasonDigest    = "digest failed"
	ReasonCancelled = "hash cancelled"
)

var (
	ErrTooManyEntries = errors.New("too many entries")
	ErrCancelled      = hasher.ErrCancelled

	errNotDir = errors.New("not a directory")
)

// Outcome is how a walk ended.
type Outcome int

const (
	Completed Outcome = iota
	Cancelled
	LimitExceeded
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case LimitExceeded:
		return "limit exceeded"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// DigestFunc computes the digest of a non-empty regular file.
type DigestFunc func(ctx context.Context, path string, meta fileinfo.Meta, progress hasher.ProgressFunc) (string, error)

// HashFile is the default DigestFunc.
func HashFile(ctx context.Context, path string, meta fileinfo.Meta, progress hasher.ProgressFunc) (string, error) {
	return hasher.File(ctx, path, meta.Size, progress)
}

type Options struct {
	// MaxEntries caps len(*set). Zero means MaxEntries.
	MaxEntries int
	// Digest defaults to HashFile.
	Digest DigestFunc
	// OnEntry is called after every appended record.
	OnEntry  func(record.Entry)
	Progress hasher.ProgressFunc
	Logger   *zap.Logger
}

type walker struct {
	ctx  context.Context
	set  *record.Set
	opts Options
	log  *zap.Logger
}

// Walk appends the records found under root to set. A root that cannot
// be opened yields a single Error record and Completed. Cancelled and
// LimitExceeded come with ErrCancelled and ErrTooManyEntries; the set is
// then partial and should be discarded.
func Walk(ctx context.Context, root string, set *record.Set, opts Options) (Outcome, error) {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = MaxEntries
	}
	if opts.Digest == nil {
		opts.Digest = HashFile
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	w := &walker{ctx: ctx, set: set, opts: opts, log: log}

	outcome := w.dir(filepath.Clean(root))
	switch outcome {
	case Cancelled:
		return outcome, fmt.Errorf("walking %s: %w", root, ErrCancelled)
	case LimitExceeded:
		return outcome, fmt.Errorf("walking %s: %w (limit %d)", root, ErrTooManyEntries, opts.MaxEntries)
	}
	return outcome, nil
}

func (w *walker) add(e record.Entry) bool {
	if len(*w.set) >= w.opts.MaxEntries {
		return false
	}
	*w.set = append(*w.set, e)
	if w.opts.OnEntry != nil {
		w.opts.OnEntry(e)
	}
	return true
}

func (w *walker) dir(path string) Outcome {
	d, err := os.Open(path)
	var fi os.FileInfo
	if err == nil {
		fi, err = d.Stat()
		if err == nil && !fi.IsDir() {
			err = errNotDir
		}
		if err != nil {
			_ = d.Close()
		}
	}
	if err != nil {
		w.log.Warn("cannot open directory", zap.String("path", path), zap.Error(err))
		if !w.add(record.Entry{Path: path, Class: record.ErrorClass(ReasonOpenDir)}) {
			return LimitExceeded
		}
		return Completed
	}
	entries, err := d.ReadDir(-1)
	_ = d.Close()

	dirEntry := record.Entry{
		Path:     path,
		Class:    record.DirectoryClass(),
		Modified: fileinfo.New(fi).ModifiedText(),
	}
	if !w.add(dirEntry) {
		return LimitExceeded
	}
	if err != nil {
		w.log.Warn("incomplete directory listing", zap.String("path", path), zap.Error(err))
	}

	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	for _, child := range entries {
		if w.ctx.Err() != nil {
			return Cancelled
		}
		childPath := filepath.Join(path, child.Name())
		var outcome Outcome
		switch {
		case child.IsDir():
			outcome = w.dir(childPath)
		case child.Type().IsRegular():
			outcome = w.file(childPath, child)
		default:
			w.log.Debug("skipping non-regular entry", zap.String("path", childPath), zap.Stringer("mode", child.Type()))
			continue
		}
		if outcome != Completed {
			return outcome
		}
	}
	return Completed
}

func (w *walker) file(path string, d fs.DirEntry) Outcome {
	fi, err := d.Info()
	if err != nil {
		w.log.Warn("stat failed", zap.String("path", path), zap.Error(err))
		if !w.add(record.Entry{Path: path, Class: record.ErrorClass(ReasonStat)}) {
			return LimitExceeded
		}
		return Completed
	}
	if !fi.Mode().IsRegular() {
		return Completed
	}

	meta := fileinfo.New(fi)
	e := record.Entry{
		Path:     path,
		Size:     meta.SizeText(),
		Modified: meta.ModifiedText(),
	}
	if meta.Size == 0 {
		e.Class = record.EmptyClass()
		if !w.add(e) {
			return LimitExceeded
		}
		return Completed
	}

	// Check the ceiling before spending time on the hash.
	if len(*w.set) >= w.opts.MaxEntries {
		return LimitExceeded
	}

	digest, err := w.opts.Digest(w.ctx, path, meta, w.opts.Progress)
	switch {
	case errors.Is(err, hasher.ErrCancelled):
		e.Class = record.ErrorClass(ReasonCancelled)
		w.add(e)
		return Cancelled
	case err != nil:
		e.Class = record.ErrorClass(reason(err))
		w.log.Warn("hash failed", zap.String("path", path), zap.Error(err))
	default:
		e.Digest = digest
	}
	if !w.add(e) {
		return LimitExceeded
	}
	return Completed
}

func reason(err error) string {
	switch {
	case errors.Is(err, hasher.ErrOpen):
		return ReasonOpenFile
	case errors.Is(err, hasher.ErrDigest):
		return ReasonDigest
	default:
		return ReasonRead
	}
}
