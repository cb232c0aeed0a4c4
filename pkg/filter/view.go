package filter

import (
	"slices"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// viewState is either unfiltered or filtered. A filtered state always
// carries the set it was derived from.
type viewState interface {
	original() record.Set
	current() record.Set
}

type unfiltered struct {
	live record.Set
}

func (u unfiltered) original() record.Set { return u.live }
func (u unfiltered) current() record.Set  { return u.live }

type filtered struct {
	live    record.Set
	working record.Set
	applied []Predicate
}

func (f filtered) original() record.Set { return f.live }
func (f filtered) current() record.Set  { return f.working }

// View is the stackable filter state over a live record set.
type View struct {
	state viewState
}

func NewView(live record.Set) *View {
	return &View{state: unfiltered{live: live}}
}

// Current returns the working set when filtered, else the live set.
func (v *View) Current() record.Set { return v.state.current() }

// Live returns the unfiltered set.
func (v *View) Live() record.Set { return v.state.original() }

// Filtered reports whether at least one filter is applied.
func (v *View) Filtered() bool {
	_, ok := v.state.(filtered)
	return ok
}

// Applied returns the predicates applied since the last Clear.
func (v *View) Applied() []Predicate {
	if f, ok := v.state.(filtered); ok {
		return f.applied
	}
	return nil
}

// Apply narrows the current output by p. The live set is left intact.
func (v *View) Apply(p Predicate) record.Set {
	next := Apply(p, v.state.current())
	v.state = filtered{
		live:    v.state.original(),
		working: next,
		applied: append(slices.Clip(v.Applied()), p),
	}
	return next
}

// Clear drops every applied filter and returns the live set.
func (v *View) Clear() record.Set {
	live := v.state.original()
	v.state = unfiltered{live: live}
	return live
}

// Replace installs a reloaded live set and clears filters.
func (v *View) Replace(live record.Set) {
	v.state = unfiltered{live: live}
}
