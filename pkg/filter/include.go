package filter

import (
	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/record"
)

// Include selects which classifications survive the post-grouping pass.
// MinSize, when positive, also drops Unique and Group records smaller
// than it. Error records are always kept.
type Include struct {
	Empty     bool
	Directory bool
	Duplicate bool
	Unique    bool
	MinSize   int64
}

// All keeps every classification.
func All() Include {
	return Include{Empty: true, Directory: true, Duplicate: true, Unique: true}
}

// Keeps reports whether e survives the pass.
func (in Include) Keeps(e record.Entry) bool {
	switch e.Class.Kind {
	case record.Empty:
		return in.Empty
	case record.Directory:
		return in.Directory
	case record.Unique:
		return in.Unique && in.bigEnough(e)
	case record.Group:
		return in.Duplicate && in.bigEnough(e)
	default:
		return true
	}
}

func (in Include) bigEnough(e record.Entry) bool {
	return in.MinSize <= 0 || fileinfo.Bytes(e.Size) >= in.MinSize
}

// Exclude filters set in place, keeping what in.Keeps accepts, and
// returns the shortened set.
func Exclude(set record.Set, in Include) record.Set {
	if in == All() {
		return set
	}
	out := set[:0]
	for _, e := range set {
		if in.Keeps(e) {
			out = append(out, e)
		}
	}
	return out
}
