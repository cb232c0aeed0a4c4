package preserve

import (
	"fmt"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// Action is what happens to one group member.
type Action string

const (
	Remain Action = "Remain"
	Trash  Action = "Trash"
)

// Line is one row of an auto-dedupe plan.
type Line struct {
	Action Action
	Index  int
	Entry  record.Entry
}

func (l Line) String() string {
	return fmt.Sprintf("%-6s - Group %s - Modified %s - Name: %s", l.Action, l.Entry.Class, l.Entry.Modified, l.Entry.Path)
}

// Plan lists every group member of a set returned by Select together
// with its fate. marked must be the indices Select returned.
func Plan(set record.Set, marked []int) []Line {
	trash := make(map[int]bool, len(marked))
	for _, i := range marked {
		trash[i] = true
	}
	var lines []Line
	for i, e := range set {
		if e.Class.Kind != record.Group {
			break
		}
		action := Remain
		if trash[i] {
			action = Trash
		}
		lines = append(lines, Line{Action: action, Index: i, Entry: e})
	}
	return lines
}
