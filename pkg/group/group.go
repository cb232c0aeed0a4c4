// Package group assigns duplicate group ids to hashed records.
package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// ErrIncomplete means the pass stopped early. The set holds a partial
// assignment and must be discarded.
var ErrIncomplete = errors.New("grouping incomplete")

// Assign sorts set by digest and classifies every pending record as
// Unique or as a member of a numbered group. Records that already carry
// a classification are never modified, but they still take part in the
// comparison with their sorted neighbour. Numbering continues after the
// highest group id already present.
func Assign(ctx context.Context, set record.Set) error {
	n := len(set)
	if n == 0 {
		return nil
	}
	next := set.MaxGroup()
	record.SortByDigest(set)

	if n == 1 {
		if set[0].Class.IsPending() {
			set[0].Class = record.UniqueClass()
		}
		return nil
	}

	var current string
	for i := 0; i+1 < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrIncomplete, err)
		}
		e := &set[i]
		if !e.Class.IsPending() {
			continue
		}
		switch {
		case e.Digest == set[i+1].Digest:
			if e.Digest != current {
				next++
				current = e.Digest
			}
			e.Class = record.GroupClass(next)
		case current != "" && e.Digest == current:
			e.Class = record.GroupClass(next)
		default:
			e.Class = record.UniqueClass()
		}
	}

	if last := &set[n-1]; last.Class.IsPending() {
		if current != "" && last.Digest == current {
			last.Class = record.GroupClass(next)
		} else {
			last.Class = record.UniqueClass()
		}
	}
	return nil
}
