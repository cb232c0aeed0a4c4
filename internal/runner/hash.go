package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/hasher"
	"github.com/nethoundsh/dedupe/pkg/output"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

type hashJob struct {
	index int
	path  string
}

// HashOptions configures HashFiles.
type HashOptions struct {
	Workers int
	Format  string
	// Digest defaults to traverse.HashFile.
	Digest traverse.DigestFunc
	Logger *zap.Logger
}

// HashFiles prints the digest of every path in argument order, hashing
// up to opts.Workers files at once. It returns the number of paths that
// failed and ctx.Err() when interrupted.
func HashFiles(ctx context.Context, w io.Writer, paths []string, opts HashOptions) (int, error) {
	digest := opts.Digest
	if digest == nil {
		digest = traverse.HashFile
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	jobs := make([]hashJob, len(paths))
	for i, p := range paths {
		jobs[i] = hashJob{index: i, path: p}
	}

	var failed int
	var writeErr error
	err := OrderedPool(ctx, opts.Workers, jobs,
		func(job hashJob) workerOutput {
			return hashToOutput(ctx, job, digest, opts.Format)
		},
		func(out workerOutput) {
			if out.err != nil {
				failed++
				log.Warn("hash failed", zap.String("path", out.label), zap.Error(out.err))
			}
			if _, err := w.Write(out.output); err != nil && writeErr == nil {
				writeErr = err
			}
		},
	)
	if err != nil {
		return failed, err
	}
	return failed, writeErr
}

func hashToOutput(ctx context.Context, job hashJob, digest traverse.DigestFunc, format string) workerOutput {
	var buf bytes.Buffer
	sum, err := hashOne(ctx, job.path, digest)
	if perr := output.PrintDigest(&buf, job.path, sum, err, format); perr != nil && err == nil {
		err = perr
	}
	return workerOutput{index: job.index, label: job.path, output: buf.Bytes(), err: err}
}

var errNotRegular = errors.New("not a regular file")

func hashOne(ctx context.Context, path string, digest traverse.DigestFunc) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("%s: %w", path, errNotRegular)
	}
	if fi.Size() == 0 {
		return hasher.EmptyDigest, nil
	}
	return digest(ctx, path, fileinfo.New(fi), nil)
}
