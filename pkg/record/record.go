// Package record holds the entry model shared by the traversal, grouping,
// filtering, selection and trash stages.
package record

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Kind is the classification of an entry.
type Kind uint8

const (
	Pending Kind = iota
	Directory
	Empty
	Error
	Unique
	Group
)

// GroupWidth is the zero-padded width of a formatted group id. Seven
// digits keep lexicographic and numeric order in agreement up to
// MaxEntries/2 groups.
const GroupWidth = 7

// Class is an entry's classification. Reason is only set for Error and N
// only for Group.
type Class struct {
	Kind   Kind
	N      int
	Reason string
}

func DirectoryClass() Class          { return Class{Kind: Directory} }
func EmptyClass() Class              { return Class{Kind: Empty} }
func UniqueClass() Class             { return Class{Kind: Unique} }
func ErrorClass(reason string) Class { return Class{Kind: Error, Reason: reason} }
func GroupClass(n int) Class         { return Class{Kind: Group, N: n} }

// IsPending reports whether the entry still waits for a classification.
func (c Class) IsPending() bool { return c.Kind == Pending }

// String renders the class the way it is displayed, filtered and sorted.
func (c Class) String() string {
	switch c.Kind {
	case Directory:
		return "Directory"
	case Empty:
		return "Empty"
	case Error:
		return "Error: " + c.Reason
	case Unique:
		return "Unique"
	case Group:
		return fmt.Sprintf("%0*d", GroupWidth, c.N)
	default:
		return ""
	}
}

// Entry is one visited filesystem object. Size and Modified are kept as
// text: Size is empty for directories and failed stats, Modified uses
// TimeLayout in local time.
type Entry struct {
	Path     string
	Digest   string
	Size     string
	Modified string
	Class    Class
}

// TimeLayout is the layout of Entry.Modified. It sorts chronologically as
// plain text.
const TimeLayout = "2006-01-02 15:04:05"

// Set is an ordered, index-addressed record set.
type Set []Entry

// Clone returns an independent copy of s.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Groups returns the number of distinct group ids in s.
func (s Set) Groups() int {
	seen := make(map[int]struct{})
	for _, e := range s {
		if e.Class.Kind == Group {
			seen[e.Class.N] = struct{}{}
		}
	}
	return len(seen)
}

// MaxGroup returns the highest group id in s, or -1 if there is none.
func (s Set) MaxGroup() int {
	highest := -1
	for _, e := range s {
		if e.Class.Kind == Group && e.Class.N > highest {
			highest = e.Class.N
		}
	}
	return highest
}

// Count returns how many entries in s have the given kind.
func (s Set) Count(k Kind) int {
	n := 0
	for _, e := range s {
		if e.Class.Kind == k {
			n++
		}
	}
	return n
}

// SortKey selects the primary column of SortBy.
type SortKey int

const (
	ByResult SortKey = iota
	ByName
)

// ParseSortKey maps "result" and "name" to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "result", "":
		return ByResult, nil
	case "name", "path":
		return ByName, nil
	default:
		return 0, fmt.Errorf("invalid sort key %q; must be 'result' or 'name'", s)
	}
}

// SortDefault orders s by class text then path, both ascending. Groups
// come first because digits sort before letters.
func SortDefault(s Set) {
	SortBy(s, ByResult, false)
}

// SortBy orders s by the given column. Result sorts use the path as the
// ascending secondary key; descending only reverses the primary column.
func SortBy(s Set, key SortKey, desc bool) {
	slices.SortStableFunc(s, func(a, b Entry) int {
		switch key {
		case ByName:
			c := strings.Compare(a.Path, b.Path)
			if desc {
				c = -c
			}
			return c
		default:
			c := strings.Compare(a.Class.String(), b.Class.String())
			if desc {
				c = -c
			}
			if c != 0 {
				return c
			}
			return strings.Compare(a.Path, b.Path)
		}
	})
}

// SortByDigest orders s by digest using a byte-wise, stable comparison.
func SortByDigest(s Set) {
	slices.SortStableFunc(s, func(a, b Entry) int {
		return cmp.Compare(a.Digest, b.Digest)
	})
}
