package preserve

import (
	"slices"
	"testing"

	"github.com/nethoundsh/dedupe/pkg/record"
)

func member(path, modified string, n int) record.Entry {
	return record.Entry{Path: path, Modified: modified, Digest: "d", Class: record.GroupClass(n)}
}

func groupSet() record.Set {
	return record.Set{
		member("/b/two.txt", "2024-03-01 10:00:00", 0),
		member("/a/longer-name.txt", "2023-01-01 09:00:00", 0),
		member("/c/x.txt", "2025-06-30 23:59:59", 0),
		member("/p/one", "2020-01-01 00:00:00", 1),
		member("/q/one", "2021-01-01 00:00:00", 1),
		{Path: "/u", Class: record.UniqueClass()},
		{Path: "/d", Class: record.DirectoryClass()},
	}
}

func kept(set record.Set, marked []int) map[int]string {
	out := make(map[int]string)
	for i, e := range set {
		if e.Class.Kind == record.Group && !slices.Contains(marked, i) {
			out[e.Class.N] = e.Path
		}
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		policy Policy
		keep0  string
		keep1  string
	}{
		{policy: ModifiedFirst, keep0: "/a/longer-name.txt", keep1: "/p/one"},
		{policy: ModifiedLast, keep0: "/c/x.txt", keep1: "/q/one"},
		{policy: ShortestName, keep0: "/c/x.txt", keep1: "/p/one"},
		{policy: LongestName, keep0: "/a/longer-name.txt", keep1: "/p/one"},
		{policy: NameAscending, keep0: "/a/longer-name.txt", keep1: "/p/one"},
		{policy: NameDescending, keep0: "/c/x.txt", keep1: "/q/one"},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			set := groupSet()
			marked := Select(set, tt.policy)
			if len(marked) != 3 {
				t.Fatalf("marked %d entries, want 3", len(marked))
			}
			got := kept(set, marked)
			if got[0] != tt.keep0 || got[1] != tt.keep1 {
				t.Fatalf("kept %v, want group 0 %q and group 1 %q", got, tt.keep0, tt.keep1)
			}
			for _, i := range marked {
				if set[i].Class.Kind != record.Group {
					t.Fatalf("marked non-group entry %+v", set[i])
				}
			}
		})
	}
}

func TestSelectMarksAtMostSizeMinusOne(t *testing.T) {
	for p := ModifiedFirst; p <= NameDescending; p++ {
		set := groupSet()
		marked := Select(set, p)
		sizes := map[int]int{}
		for _, e := range set {
			if e.Class.Kind == record.Group {
				sizes[e.Class.N]++
			}
		}
		perGroup := map[int]int{}
		for _, i := range marked {
			perGroup[set[i].Class.N]++
		}
		for n, c := range perGroup {
			if c > sizes[n]-1 {
				t.Fatalf("%s: group %d marked %d of %d", p, n, c, sizes[n])
			}
		}
		if !slices.IsSorted(marked) {
			t.Fatalf("%s: indices not ascending: %v", p, marked)
		}
	}
}

func TestSelectNoGroups(t *testing.T) {
	set := record.Set{
		{Path: "/a", Class: record.UniqueClass()},
		{Path: "/b", Class: record.EmptyClass()},
	}
	if marked := Select(set, ModifiedFirst); len(marked) != 0 {
		t.Fatalf("marked %v in a set without groups", marked)
	}
}

func TestSelectNoneKeepsOrder(t *testing.T) {
	set := record.Set{
		member("/z", "2024-01-01 00:00:00", 0),
		member("/a", "2020-01-01 00:00:00", 0),
	}
	marked := Select(set, None)
	if set[0].Path != "/z" {
		t.Fatal("None policy should not reorder the set")
	}
	if len(marked) != 1 || marked[0] != 1 {
		t.Fatalf("marked %v, want [1]", marked)
	}
}

func TestFromByte(t *testing.T) {
	for b := 0; b <= 5; b++ {
		if got := FromByte(uint8(b)); got != Policy(b) {
			t.Fatalf("FromByte(%d) = %v", b, got)
		}
	}
	for _, b := range []uint8{6, 42, 255} {
		if got := FromByte(b); got != None {
			t.Fatalf("FromByte(%d) = %v, want None", b, got)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	for _, name := range Names() {
		p, err := ParsePolicy(name)
		if err != nil {
			t.Fatalf("ParsePolicy(%q) error: %v", name, err)
		}
		if p.String() != name {
			t.Fatalf("ParsePolicy(%q).String() = %q", name, p.String())
		}
	}
	if _, err := ParsePolicy("biggest"); err == nil {
		t.Fatal("ParsePolicy(biggest) should fail")
	}
}
