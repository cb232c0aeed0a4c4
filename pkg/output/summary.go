package output

import (
	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/record"
)

// Summary holds the totals shown after a run.
type Summary struct {
	Roots       int    `json:"roots"`
	Entries     int    `json:"entries"`
	Directories int    `json:"directories"`
	Empty       int    `json:"empty"`
	Errors      int    `json:"errors"`
	Unique      int    `json:"unique"`
	Groups      int    `json:"groups"`
	Duplicates  int    `json:"duplicates"`
	Reclaimable int64  `json:"reclaimable_bytes"`
	Outcome     string `json:"outcome,omitempty"`
}

// Summarize counts set. Duplicates is the number of group members beyond
// the first of each group and Reclaimable their total size.
func Summarize(set record.Set) Summary {
	s := Summary{Entries: len(set)}
	members := make(map[int]int)
	sizes := make(map[int]int64)
	for _, e := range set {
		switch e.Class.Kind {
		case record.Directory:
			s.Directories++
		case record.Empty:
			s.Empty++
		case record.Error:
			s.Errors++
		case record.Unique:
			s.Unique++
		case record.Group:
			members[e.Class.N]++
			sizes[e.Class.N] = fileinfo.Bytes(e.Size)
		}
	}
	s.Groups = len(members)
	for n, count := range members {
		s.Duplicates += count - 1
		s.Reclaimable += int64(count-1) * sizes[n]
	}
	return s
}
