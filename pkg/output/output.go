package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/nethoundsh/dedupe/pkg/fileinfo"
	"github.com/nethoundsh/dedupe/pkg/preserve"
	"github.com/nethoundsh/dedupe/pkg/record"
)

// NDJSON output: each line is a self-contained JSON object.
type JSONEntry struct {
	Path      string `json:"path"`
	Result    string `json:"result"`
	Group     *int   `json:"group,omitempty"`
	Digest    string `json:"sha256,omitempty"`
	Size      int64  `json:"size,omitempty"`
	SizeHuman string `json:"size_human,omitempty"`
	Modified  string `json:"modified,omitempty"`
}

type JSONPlanLine struct {
	Action   string `json:"action"`
	Group    string `json:"group"`
	Path     string `json:"path"`
	Modified string `json:"modified"`
}

type JSONPlanRecord struct {
	Plan JSONPlanLine `json:"plan"`
}

type JSONSummaryRecord struct {
	Summary Summary `json:"summary"`
}

type JSONDigest struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256,omitempty"`
	Error  string `json:"error,omitempty"`
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, a...)
	}
}

func (ew *errWriter) println(a ...any) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintln(ew.w, a...)
	}
}

func (ew *errWriter) json(v any) {
	if ew.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		ew.err = fmt.Errorf("marshaling JSON output: %w", err)
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, string(b))
}

// ToJSON converts one record.
func ToJSON(e record.Entry) JSONEntry {
	out := JSONEntry{
		Path:     e.Path,
		Result:   e.Class.String(),
		Digest:   e.Digest,
		Modified: e.Modified,
	}
	if e.Class.Kind == record.Group {
		n := e.Class.N
		out.Group = &n
	}
	if e.Size != "" {
		out.Size = fileinfo.Bytes(e.Size)
		out.SizeHuman = fileinfo.Human(e.Size)
	}
	return out
}

// PrintEntries renders a record set in the given format ("text" or "json").
func PrintEntries(w io.Writer, set record.Set, format string) error {
	ew := &errWriter{w: w}
	if format == "json" {
		for _, e := range set {
			ew.json(ToJSON(e))
		}
		return ew.err
	}

	if len(set) == 0 {
		ew.println(color.YellowString("No entries"))
		return ew.err
	}
	ew.printf("%-20s %10s  %-19s  %s\n", "Result", "Size", "Modified", "Name")
	for _, e := range set {
		ew.printf("%-20s %10s  %-19s  %s\n", resultColor(e.Class), fileinfo.Human(e.Size), e.Modified, e.Path)
	}
	return ew.err
}

// resultColor pads before coloring so escape codes don't break alignment.
func resultColor(c record.Class) string {
	text := fmt.Sprintf("%-20s", c)
	switch c.Kind {
	case record.Group:
		return color.CyanString("%s", text)
	case record.Unique:
		return color.GreenString("%s", text)
	case record.Error:
		return color.RedString("%s", text)
	case record.Empty:
		return color.YellowString("%s", text)
	case record.Directory:
		return color.BlueString("%s", text)
	default:
		return text
	}
}

// PrintPlan renders the Remain/Trash listing of an auto-dedupe run.
func PrintPlan(w io.Writer, lines []preserve.Line, format string) error {
	ew := &errWriter{w: w}
	for _, l := range lines {
		if format == "json" {
			ew.json(JSONPlanRecord{Plan: JSONPlanLine{
				Action:   string(l.Action),
				Group:    l.Entry.Class.String(),
				Path:     l.Entry.Path,
				Modified: l.Entry.Modified,
			}})
			continue
		}
		text := l.String()
		if l.Action == preserve.Trash {
			text = color.RedString("%s", text)
		} else {
			text = color.GreenString("%s", text)
		}
		ew.println(text)
	}
	return ew.err
}

// PrintDigest prints one line of `dedupe hash` output.
func PrintDigest(w io.Writer, path, digest string, hashErr error, format string) error {
	ew := &errWriter{w: w}
	if format == "json" {
		rec := JSONDigest{Path: path, SHA256: digest}
		if hashErr != nil {
			rec.Error = hashErr.Error()
		}
		ew.json(rec)
		return ew.err
	}
	if hashErr != nil {
		ew.printf("%s  %s\n", color.RedString("error: %v", hashErr), path)
		return ew.err
	}
	ew.printf("%s  %s\n", color.CyanString("%s", digest), path)
	return ew.err
}

// PrintSummary renders the totals of a run.
func PrintSummary(w io.Writer, s Summary, format string) error {
	ew := &errWriter{w: w}
	if format == "json" {
		ew.json(JSONSummaryRecord{Summary: s})
		return ew.err
	}

	groups := color.GreenString("%d", s.Groups)
	if s.Groups > 0 {
		groups = color.YellowString("%d", s.Groups)
	}
	ew.println()
	ew.printf("%-16s%d\n", "Roots:", s.Roots)
	ew.printf("%-16s%d\n", "Entries:", s.Entries)
	ew.printf("%-16s%s\n", "Groups:", groups)
	ew.printf("%-16s%d\n", "Duplicates:", s.Duplicates)
	ew.printf("%-16s%s\n", "Reclaimable:", humanize.Bytes(uint64(s.Reclaimable)))
	ew.printf("%-16s%d\n", "Unique:", s.Unique)
	ew.printf("%-16s%d\n", "Empty:", s.Empty)
	ew.printf("%-16s%d\n", "Directories:", s.Directories)
	if s.Errors > 0 {
		ew.printf("%-16s%s\n", "Errors:", color.RedString("%d", s.Errors))
	} else {
		ew.printf("%-16s%d\n", "Errors:", s.Errors)
	}
	if s.Outcome != "" {
		ew.printf("%-16s%s\n", "Outcome:", s.Outcome)
	}
	return ew.err
}
