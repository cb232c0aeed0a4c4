package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/time/rate"

	"github.com/nethoundsh/dedupe/internal/metrics"
	"github.com/nethoundsh/dedupe/pkg/record"
)

// LargeFile is the size from which a file gets its own byte bar.
const LargeFile = 8 << 20

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progress renders traversal and hashing progress. With rendering disabled
// it still feeds the hashed-bytes counter.
type progress struct {
	p       *mpb.Progress
	entries *mpb.Bar
	file    *mpb.Bar
	limiter *rate.Limiter

	path string
	read int64
}

func newProgress(ctx context.Context, w io.Writer, enabled bool) *progress {
	pr := &progress{limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1)}
	if !enabled {
		return pr
	}
	pr.p = mpb.NewWithContext(ctx, mpb.WithOutput(w))
	pr.entries = pr.p.New(0,
		mpb.SpinnerStyle(),
		mpb.PrependDecorators(decor.Name("Scanning ")),
		mpb.AppendDecorators(decor.CurrentNoUnit(" %d entries")),
		mpb.BarRemoveOnComplete(),
	)
	return pr
}

func (pr *progress) entry(record.Entry) {
	if pr.entries != nil {
		pr.entries.Increment()
	}
}

// bytes is the hasher.ProgressFunc. read is cumulative per path.
func (pr *progress) bytes(read, total int64, path string) {
	if path != pr.path {
		pr.dropFile()
		pr.path = path
		pr.read = 0
		if pr.p != nil && total >= LargeFile {
			pr.file = pr.p.New(total,
				mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
				mpb.PrependDecorators(decor.Name(filepath.Base(path)+" ")),
				mpb.AppendDecorators(
					decor.CountersKibiByte(" % .1f / % .1f "),
					decor.Percentage(),
				),
				mpb.BarRemoveOnComplete(),
			)
		}
	}
	metrics.AddBytesHashed(read - pr.read)
	pr.read = read

	if pr.file == nil {
		return
	}
	if read >= total {
		pr.file.SetCurrent(total)
		pr.file = nil
		return
	}
	if pr.limiter.Allow() {
		pr.file.SetCurrent(read)
	}
}

// dropFile removes a byte bar whose file stopped short of its size.
func (pr *progress) dropFile() {
	if pr.file != nil && !pr.file.Completed() {
		pr.file.Abort(true)
	}
	pr.file = nil
}

// wait completes the open bars and blocks until the renderer is done.
func (pr *progress) wait() {
	if pr.p == nil {
		return
	}
	pr.dropFile()
	pr.entries.SetTotal(-1, true)
	pr.p.Wait()
}
