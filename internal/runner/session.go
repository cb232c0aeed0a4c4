// Package runner drives the engine packages for the CLI: it loads roots
// into a live record set, narrows and sorts the view, and resolves
// duplicates by trashing them.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/nethoundsh/dedupe/internal/metrics"
	"github.com/nethoundsh/dedupe/pkg/filter"
	"github.com/nethoundsh/dedupe/pkg/group"
	"github.com/nethoundsh/dedupe/pkg/output"
	"github.com/nethoundsh/dedupe/pkg/preserve"
	"github.com/nethoundsh/dedupe/pkg/record"
	"github.com/nethoundsh/dedupe/pkg/trash"
	"github.com/nethoundsh/dedupe/pkg/traverse"
)

// Outcome is the terminal state of a session step.
type Outcome int

const (
	Completed Outcome = iota
	Cancelled
	LimitExceeded
	NoDuplicatesFound
	Declined
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case LimitExceeded:
		return "limit_exceeded"
	case NoDuplicatesFound:
		return "no_duplicates_found"
	case Declined:
		return "declined"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ErrStale is returned when a step needs the record set after a trash
// batch has invalidated it.
var ErrStale = errors.New("record set is stale; reload the roots")

type Options struct {
	Roots      []string
	Include    filter.Include
	MaxEntries int
	// Digest defaults to traverse.HashFile.
	Digest traverse.DigestFunc
	// Progress enables the mpb bars on ProgressOut.
	Progress    bool
	ProgressOut io.Writer
	Logger      *zap.Logger
}

// Session owns the live record set and the filter view over it.
type Session struct {
	opts  Options
	log   *zap.Logger
	roots []string
	view  *filter.View
	stale bool
}

func NewSession(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ProgressOut == nil {
		opts.ProgressOut = io.Discard
	}
	return &Session{opts: opts, log: log, view: filter.NewView(nil)}
}

// Load validates the roots and processes them in order. Each root is
// walked, grouped against everything loaded so far, passed through the
// include toggles and sorted. On Cancelled or LimitExceeded the partial
// set is discarded and the view is empty.
func (s *Session) Load(ctx context.Context) (Outcome, error) {
	roots, err := traverse.CheckRoots(s.opts.Roots)
	if err != nil {
		return Completed, err
	}
	s.roots = roots
	s.view.Replace(nil)
	s.stale = false

	pr := newProgress(ctx, s.opts.ProgressOut, s.opts.Progress)
	outcome, set, err := s.load(ctx, roots, pr)
	pr.wait()
	if err != nil {
		return outcome, err
	}

	s.view.Replace(set)
	sum := output.Summarize(set)
	metrics.SetGroups(sum.Groups, sum.Reclaimable)
	s.log.Info("roots loaded",
		zap.Int("roots", len(roots)),
		zap.Int("entries", len(set)),
		zap.Int("groups", sum.Groups))
	return Completed, nil
}

func (s *Session) load(ctx context.Context, roots []string, pr *progress) (Outcome, record.Set, error) {
	var set record.Set
	walkOpts := traverse.Options{
		MaxEntries: s.opts.MaxEntries,
		Digest:     s.opts.Digest,
		OnEntry: func(e record.Entry) {
			metrics.RecordEntry(e)
			pr.entry(e)
		},
		Progress: pr.bytes,
		Logger:   s.log,
	}

	// Group once every root is walked so identical files under different
	// roots land in the same group.
	for _, root := range roots {
		start := time.Now()
		outcome, err := traverse.Walk(ctx, root, &set, walkOpts)
		switch outcome {
		case traverse.Cancelled:
			return Cancelled, nil, err
		case traverse.LimitExceeded:
			return LimitExceeded, nil, err
		}

		elapsed := time.Since(start)
		metrics.ObserveRoot(elapsed)
		s.log.Debug("root done",
			zap.String("root", root),
			zap.Int("entries", len(set)),
			zap.Duration("elapsed", elapsed))
	}

	if err := group.Assign(ctx, set); err != nil {
		return Cancelled, nil, err
	}
	set = filter.Exclude(set, s.opts.Include)
	record.SortDefault(set)
	return Completed, set, nil
}

// Roots returns the cleaned roots of the last Load.
func (s *Session) Roots() []string { return s.roots }

// View returns the filter view over the live set.
func (s *Session) View() *filter.View { return s.view }

// Current returns the records currently shown.
func (s *Session) Current() record.Set { return s.view.Current() }

// Filter applies each predicate in order, each narrowing the previous
// output.
func (s *Session) Filter(preds ...filter.Predicate) record.Set {
	for _, p := range preds {
		s.view.Apply(p)
		s.log.Debug("filter applied", zap.Stringer("filter", p), zap.Int("entries", len(s.view.Current())))
	}
	return s.view.Current()
}

// ClearFilters restores the live set.
func (s *Session) ClearFilters() record.Set { return s.view.Clear() }

// Sort orders the current records in place.
func (s *Session) Sort(key record.SortKey, desc bool) {
	record.SortBy(s.view.Current(), key, desc)
}

// Summary counts the current records.
func (s *Session) Summary() output.Summary {
	sum := output.Summarize(s.view.Current())
	sum.Roots = len(s.roots)
	return sum
}

// ResolveOptions controls a trash step.
type ResolveOptions struct {
	Trasher trash.Trasher
	// Confirm is asked before anything is trashed when Prompt is set.
	Confirm func(prompt string) bool
	Prompt  bool
	DryRun  bool
	Format  string
	Out     io.Writer
}

// Result reports a trash step. Plan is only set for Auto.
type Result struct {
	Outcome Outcome
	Plan    []preserve.Line
	Trash   trash.Outcome
}

// Auto keeps one member of every group in the current records according
// to policy and trashes the others. The plan is printed before anything
// is moved.
func (s *Session) Auto(policy preserve.Policy, opts ResolveOptions) (Result, error) {
	if s.stale {
		return Result{}, ErrStale
	}
	set := s.view.Current()
	if set.Groups() == 0 {
		s.log.Info("auto dedupe found no groups")
		return Result{Outcome: NoDuplicatesFound}, nil
	}

	marked := preserve.Select(set, policy)
	lines := preserve.Plan(set, marked)
	res := Result{Outcome: Completed, Plan: lines, Trash: trash.Outcome{FailedAt: -1}}
	if opts.Out != nil {
		if err := output.PrintPlan(opts.Out, lines, opts.Format); err != nil {
			return res, err
		}
	}
	if opts.DryRun || len(marked) == 0 {
		return res, nil
	}

	prompt := fmt.Sprintf("Trash %d of %d grouped entries (policy %s)?", len(marked), len(lines), policy)
	return s.trash(set, marked, prompt, res, opts)
}

// TrashCurrent moves every current record to the trash.
func (s *Session) TrashCurrent(opts ResolveOptions) (Result, error) {
	if s.stale {
		return Result{}, ErrStale
	}
	set := s.view.Current()
	res := Result{Outcome: Completed, Trash: trash.Outcome{FailedAt: -1}}
	if len(set) == 0 || opts.DryRun {
		return res, nil
	}
	prompt := fmt.Sprintf("Trash all %d shown entries?", len(set))
	return s.trash(set, trash.All(set), prompt, res, opts)
}

func (s *Session) trash(set record.Set, indices []int, prompt string, res Result, opts ResolveOptions) (Result, error) {
	if opts.Prompt && (opts.Confirm == nil || !opts.Confirm(prompt)) {
		res.Outcome = Declined
		return res, nil
	}
	if opts.Trasher == nil {
		return res, fmt.Errorf("trashing: %w", trash.ErrUnsupported)
	}

	out, err := trash.Run(set, indices, opts.Trasher)
	res.Trash = out
	metrics.RecordTrash(out.Trashed, !out.AllTrashed())
	s.stale = true
	s.view.Replace(nil)
	if err != nil {
		s.log.Error("trash batch stopped", zap.Int("trashed", out.Trashed), zap.Error(err))
		return res, err
	}
	s.log.Info("trash batch done", zap.Int("trashed", out.Trashed))
	return res, nil
}
