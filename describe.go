package xlcalc

import (
	"fmt"
	"strconv"
	"strings"
)

// Describe returns a human-readable listing of every cell the spreadsheet
// knows about, defined or merely referenced, with its value and edges.
// Useful for debugging dependency chains.
//
//	Spreadsheet: budget
//	A1 = 1 -> 1
//	  used by: B1
//	B1 = =A1+1 -> 2
//	  uses: A1
func (s *Spreadsheet) Describe() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(cellSet, len(s.g.cells))
	for id := range s.g.cells {
		ids[id] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Spreadsheet: %s\n", s.name)
	for _, id := range ids.sorted() {
		c := s.g.get(id)
		if c.defined() {
			fmt.Fprintf(&b, "%s = %s -> %s\n", id, c.expr, strconv.FormatFloat(c.value, 'g', -1, 64))
		} else {
			fmt.Fprintf(&b, "%s (unset)\n", id)
		}
		describeEdges(&b, "uses", c.precedents)
		describeEdges(&b, "used by", c.dependents)
	}
	return b.String()
}

func describeEdges(b *strings.Builder, label string, set cellSet) {
	if len(set) == 0 {
		return
	}
	names := make([]string, 0, len(set))
	for _, id := range set.sorted() {
		names = append(names, id.String())
	}
	fmt.Fprintf(b, "  %s: %s\n", label, strings.Join(names, ", "))
}
