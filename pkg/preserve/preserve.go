// Package preserve decides which members of each duplicate group are
// kept and which are marked for the trash.
package preserve

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// Policy orders the members of a group; the first one is kept.
type Policy uint8

const (
	ModifiedFirst Policy = iota
	ModifiedLast
	ShortestName
	LongestName
	NameAscending
	NameDescending

	// None leaves the existing order within each group.
	None Policy = 0xff
)

var names = map[Policy]string{
	ModifiedFirst:  "modified-first",
	ModifiedLast:   "modified-last",
	ShortestName:   "shortest-name",
	LongestName:    "longest-name",
	NameAscending:  "name-ascending",
	NameDescending: "name-descending",
	None:           "none",
}

// FromByte maps a persisted policy value; anything out of range is None.
func FromByte(b uint8) Policy {
	if p := Policy(b); p <= NameDescending {
		return p
	}
	return None
}

// ParsePolicy accepts the names printed by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range names {
		if s == name {
			return p, nil
		}
	}
	return None, fmt.Errorf("invalid preserve policy %q; must be one of %s", s, strings.Join(Names(), ", "))
}

// Names lists the valid policy names in value order.
func Names() []string {
	return []string{
		names[ModifiedFirst], names[ModifiedLast], names[ShortestName],
		names[LongestName], names[NameAscending], names[NameDescending], names[None],
	}
}

func (p Policy) String() string {
	if name, ok := names[p]; ok {
		return name
	}
	return names[None]
}

// within compares two members of the same group.
func (p Policy) within(a, b record.Entry) int {
	switch p {
	case ModifiedFirst:
		return strings.Compare(a.Modified, b.Modified)
	case ModifiedLast:
		return strings.Compare(b.Modified, a.Modified)
	case ShortestName:
		return cmp.Compare(len(a.Path), len(b.Path))
	case LongestName:
		return cmp.Compare(len(b.Path), len(a.Path))
	case NameAscending:
		return strings.Compare(a.Path, b.Path)
	case NameDescending:
		return strings.Compare(b.Path, a.Path)
	default:
		return 0
	}
}

// Sort orders set in place by class text, then by the policy. Groups end
// up first with the member to keep at the head of each group. None
// leaves the set untouched.
func Sort(set record.Set, p Policy) {
	if p > NameDescending {
		return
	}
	slices.SortStableFunc(set, func(a, b record.Entry) int {
		if c := strings.Compare(a.Class.String(), b.Class.String()); c != 0 {
			return c
		}
		return p.within(a, b)
	})
}

// Select sorts set with Sort and returns the ascending indices of every
// group member except the first of its group. The scan stops at the
// first record that is not a group member, so a set that has not been
// sorted by class first only yields the leading groups.
func Select(set record.Set, p Policy) []int {
	Sort(set, p)
	var marked []int
	kept := -1
	for i, e := range set {
		if e.Class.Kind != record.Group {
			break
		}
		if kept >= 0 && e.Class.N == set[kept].Class.N {
			marked = append(marked, i)
			continue
		}
		kept = i
	}
	return marked
}
