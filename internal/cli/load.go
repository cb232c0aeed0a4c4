package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/nethoundsh/dedupe/internal/logging"
	"github.com/nethoundsh/dedupe/internal/metrics"
	"github.com/nethoundsh/dedupe/internal/runner"
	"github.com/nethoundsh/dedupe/pkg/cache"
	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/filter"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

// loadFlags are shared by every command that walks roots.
type loadFlags struct {
	filters    []string
	exclude    []string
	minSize    string
	maxEntries int
	noCache    bool
	refresh    bool
	noProgress bool
}

func (f *loadFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&f.filters, "filter", "f", nil,
		"Narrow the output, e.g. 'name=photos,and,!result=Unique' (repeatable, applied in order)")
	fs.StringSliceVar(&f.exclude, "exclude", nil,
		"Drop result types after grouping: empty, directory, duplicate, unique")
	fs.StringVar(&f.minSize, "min-size", "", "Hide unique and duplicate files smaller than this (e.g. 1MB)")
	fs.IntVar(&f.maxEntries, "max-entries", 0, "Abort when more records than this are found (default from config)")
	fs.BoolVar(&f.noCache, "no-cache", false, "Do not read or write the digest cache")
	fs.BoolVar(&f.refresh, "refresh", false, "Rehash every file and refresh the digest cache")
	fs.BoolVar(&f.noProgress, "no-progress", false, "Disable progress bars")
}

// includes merges the config toggles with --exclude and --min-size.
func (f *loadFlags) includes(a *app) (filter.Include, error) {
	cfg := *a.cfg
	for _, name := range f.exclude {
		if err := setInclude(&cfg.Include, name, false); err != nil {
			return filter.Include{}, fmt.Errorf("invalid --exclude: %w", err)
		}
	}
	if f.minSize != "" {
		size, err := fileinfo.ParseSize(f.minSize)
		if err != nil {
			return filter.Include{}, fmt.Errorf("invalid --min-size %q: %w", f.minSize, err)
		}
		cfg.MinSize = size
	}
	return cfg.Includes(), nil
}

func (f *loadFlags) predicates() ([]filter.Predicate, error) {
	preds := make([]filter.Predicate, 0, len(f.filters))
	for _, expr := range f.filters {
		p, err := filter.Parse(expr)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// absRoots makes relative command-line roots absolute against the
// working directory.
func absRoots(args []string) ([]string, error) {
	roots := make([]string, len(args))
	for i, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving root %q: %w", arg, err)
		}
		roots[i] = abs
	}
	return roots, nil
}

// loadSession walks args into a session with every filter applied.
func (f *loadFlags) loadSession(ctx context.Context, a *app, args []string, progressOut io.Writer) (*runner.Session, error) {
	roots, err := absRoots(args)
	if err != nil {
		return nil, err
	}
	in, err := f.includes(a)
	if err != nil {
		return nil, err
	}
	preds, err := f.predicates()
	if err != nil {
		return nil, err
	}
	maxEntries := a.cfg.EffectiveMaxEntries()
	if f.maxEntries > 0 {
		maxEntries = min(f.maxEntries, traverse.MaxEntries)
	}

	var digests *cache.Digests
	opts := runner.Options{
		Roots:       roots,
		Include:     in,
		MaxEntries:  maxEntries,
		Progress:    !f.noProgress && a.outputFormat() == "text" && runner.IsTerminal(os.Stderr),
		ProgressOut: progressOut,
		Logger:      logging.Named("runner"),
	}
	if a.cfg.Cache.Enabled && !f.noCache {
		digests, err = openDigests(a, f.refresh)
		if err != nil {
			return nil, err
		}
		opts.Digest = digests.Wrap(traverse.HashFile)
	}

	s := runner.NewSession(opts)
	outcome, err := s.Load(ctx)
	metrics.SetOutcome(outcome.String())
	if digests != nil {
		hits, misses := digests.Stats()
		metrics.RecordCache(hits, misses)
		if serr := digests.Save(); serr != nil {
			logging.Warn("saving digest cache", logging.Err(serr))
		}
	}
	if err != nil {
		if outcome == runner.Cancelled {
			return nil, withCode(ExitInterrupted, err)
		}
		return nil, err
	}

	s.Filter(preds...)
	return s, nil
}

func openDigests(a *app, refresh bool) (*cache.Digests, error) {
	path, err := cache.FilePath()
	if err != nil {
		return nil, err
	}
	return cache.OpenDigests(path, a.cfg.CacheMaxAge(), refresh, logging.Named("cache"))
}
