// Package trash moves records to the operating system's trash.
package trash

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nethoundsh/dedupe/pkg/record"
)

var (
	ErrUnsupported = errors.New("no trash available")
	ErrIndex       = errors.New("index out of range")
)

// Trasher moves one path to the trash. It never deletes permanently.
type Trasher interface {
	Trash(path string) error
}

// Func adapts a plain function to Trasher.
type Func func(path string) error

func (f Func) Trash(path string) error { return f(path) }

// Outcome reports how far a batch got. FailedAt is -1 when every index
// was trashed.
type Outcome struct {
	Trashed  int
	FailedAt int
}

func (o Outcome) AllTrashed() bool { return o.FailedAt < 0 }

// Indices returns the unique indices in ascending order.
func Indices(indices []int) []int {
	out := slices.Clone(indices)
	slices.Sort(out)
	return slices.Compact(out)
}

// Run trashes set[i] for every i in indices, lowest index first. The
// first failure ends the batch: nothing after it is attempted and
// nothing before it is restored. After any call the caller must rebuild
// its record set.
func Run(set record.Set, indices []int, t Trasher) (Outcome, error) {
	out := Outcome{FailedAt: -1}
	for _, i := range Indices(indices) {
		if i < 0 || i >= len(set) {
			out.FailedAt = i
			return out, fmt.Errorf("trashing index %d of %d: %w", i, len(set), ErrIndex)
		}
		if err := t.Trash(set[i].Path); err != nil {
			out.FailedAt = i
			return out, fmt.Errorf("can't trash entry %s: %w", set[i].Path, err)
		}
		out.Trashed++
	}
	return out, nil
}

// All returns every index of set, for trashing a whole view.
func All(set record.Set) []int {
	out := make([]int, len(set))
	for i := range set {
		out[i] = i
	}
	return out
}
