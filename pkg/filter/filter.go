package filter

import (
	"fmt"
	"strings"

	"github.com/nethoundsh/dedupe/pkg/record"
)

// Predicate tests a record's path and class text. An empty substring is
// always contained, so an unset field never excludes anything.
type Predicate struct {
	NameSub      string
	NameNegate   bool
	ResultSub    string
	ResultNegate bool
	And          bool
}

func New(nameSub string, nameNegate bool, resultSub string, resultNegate bool, combineAnd bool) Predicate {
	return Predicate{
		NameSub:      nameSub,
		NameNegate:   nameNegate,
		ResultSub:    resultSub,
		ResultNegate: resultNegate,
		And:          combineAnd,
	}
}

// Match evaluates both tests and combines them.
func (p Predicate) Match(e record.Entry) bool {
	name := strings.Contains(e.Path, p.NameSub) != p.NameNegate
	result := strings.Contains(e.Class.String(), p.ResultSub) != p.ResultNegate
	if p.And {
		return name && result
	}
	return name || result
}

func (p Predicate) String() string {
	var parts []string
	if p.NameSub != "" || p.NameNegate {
		parts = append(parts, neg(p.NameNegate)+"name="+p.NameSub)
	}
	if p.ResultSub != "" || p.ResultNegate {
		parts = append(parts, neg(p.ResultNegate)+"result="+p.ResultSub)
	}
	if p.And {
		parts = append(parts, "and")
	} else {
		parts = append(parts, "or")
	}
	return strings.Join(parts, ",")
}

func neg(b bool) string {
	if b {
		return "!"
	}
	return ""
}

// Apply returns the records of src that match p, in order.
func Apply(p Predicate, src record.Set) record.Set {
	out := make(record.Set, 0, len(src))
	for _, e := range src {
		if p.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Parse reads the command-line form of a predicate: comma-separated
// tokens name=SUB, !name=SUB, result=SUB, !result=SUB, and, or. The
// combination defaults to and.
func Parse(expr string) (Predicate, error) {
	p := Predicate{And: true}
	if strings.TrimSpace(expr) == "" {
		return Predicate{}, fmt.Errorf("empty filter expression")
	}
	var haveName, haveResult bool
	for _, tok := range strings.Split(expr, ",") {
		tok = strings.TrimSpace(tok)
		switch strings.ToLower(tok) {
		case "and":
			p.And = true
			continue
		case "or":
			p.And = false
			continue
		case "":
			continue
		}

		key, val, ok := strings.Cut(tok, "=")
		if !ok {
			return Predicate{}, fmt.Errorf("invalid filter token %q: want key=value, and or or", tok)
		}
		negate := strings.HasPrefix(key, "!")
		key = strings.ToLower(strings.TrimPrefix(key, "!"))
		switch key {
		case "name", "path":
			if haveName {
				return Predicate{}, fmt.Errorf("filter %q sets name more than once", expr)
			}
			haveName = true
			p.NameSub, p.NameNegate = val, negate
		case "result", "class":
			if haveResult {
				return Predicate{}, fmt.Errorf("filter %q sets result more than once", expr)
			}
			haveResult = true
			p.ResultSub, p.ResultNegate = val, negate
		default:
			return Predicate{}, fmt.Errorf("unknown filter key %q; must be 'name' or 'result'", key)
		}
	}
	return p, nil
}
