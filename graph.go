package xlcalc

import "sort"

// cellSet is a set of cell ids. Edges between cells are stored as ids, never
// as pointers to other cell records.
type cellSet map[CellID]struct{}

func (s cellSet) sorted() []CellID {
	ids := make([]CellID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// cellState is the per-cell record owned by a graph.
type cellState struct {
	expr       string // "" when unset
	ast        Node   // nil when unset
	value      float64
	precedents cellSet // cells this formula reads
	dependents cellSet // cells whose formulas read this one
	seq        uint64  // definition order, 0 when unset
}

func (c *cellState) defined() bool {
	return c.ast != nil
}

// graph holds every cell record of one spreadsheet and keeps precedent and
// dependent edges mutually consistent.
type graph struct {
	cells map[CellID]*cellState
	seq   uint64
}

func newGraph() *graph {
	return &graph{cells: make(map[CellID]*cellState)}
}

func (g *graph) get(id CellID) *cellState {
	return g.cells[id]
}

// ensure returns the record for id, creating an unset placeholder if needed.
func (g *graph) ensure(id CellID) *cellState {
	c, ok := g.cells[id]
	if !ok {
		c = &cellState{precedents: cellSet{}, dependents: cellSet{}}
		g.cells[id] = c
	}
	return c
}

// value is the LookupFunc over committed values; unknown cells read as 0.
func (g *graph) value(id CellID) float64 {
	if c, ok := g.cells[id]; ok {
		return c.value
	}
	return 0
}

// precedentsOf returns the concrete cells n reads when stored at base.
func precedentsOf(n Node, base CellID) cellSet {
	precs := cellSet{}
	for _, ref := range Refs(n) {
		precs[ref.Resolve(base)] = struct{}{}
	}
	return precs
}

// wouldCycle reports whether giving base the precedents precs would close a
// cycle, i.e. base is one of precs or is reachable from one of them over the
// committed precedent edges. The graph is not modified.
func (g *graph) wouldCycle(base CellID, precs cellSet) bool {
	if _, ok := precs[base]; ok {
		return true
	}
	visited := cellSet{}
	stack := make([]CellID, 0, len(precs))
	for p := range precs {
		stack = append(stack, p)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == base {
			return true
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		if c := g.cells[id]; c != nil {
			for p := range c.precedents {
				stack = append(stack, p)
			}
		}
	}
	return false
}

// commit installs a formula at base and rewires its edges. It must only be
// called after wouldCycle returned false for the same precedents.
func (g *graph) commit(base CellID, expr string, ast Node, precs cellSet) {
	c := g.ensure(base)
	for p := range c.precedents {
		if _, keep := precs[p]; keep {
			continue
		}
		if pc := g.cells[p]; pc != nil {
			delete(pc.dependents, base)
			g.collect(p)
		}
	}
	for p := range precs {
		g.ensure(p).dependents[base] = struct{}{}
	}
	if ast == nil {
		c.seq = 0
		c.value = 0
	} else if !c.defined() {
		g.seq++
		c.seq = g.seq
	}
	c.expr = expr
	c.ast = ast
	c.precedents = precs
}

// collect drops id's record if it is unset and nothing reads it, since such a
// record cannot be told apart from an absent one.
func (g *graph) collect(id CellID) {
	if c := g.cells[id]; c != nil && !c.defined() && len(c.dependents) == 0 {
		delete(g.cells, id)
	}
}

// affected returns base and all of its transitive dependents so that every
// cell comes after all of its precedents within the set. Each cell appears
// once even when reachable by several paths.
func (g *graph) affected(base CellID) []CellID {
	visited := cellSet{}
	var post []CellID
	var visit func(id CellID)
	visit = func(id CellID) {
		visited[id] = struct{}{}
		if c := g.cells[id]; c != nil {
			for _, d := range c.dependents.sorted() {
				if _, seen := visited[d]; !seen {
					visit(d)
				}
			}
		}
		post = append(post, id)
	}
	visit(base)

	order := make([]CellID, len(post))
	for i, id := range post {
		order[len(post)-1-i] = id
	}
	return order
}

// defined returns the ids of all defined cells in definition order.
func (g *graph) defined() []CellID {
	var ids []CellID
	for id, c := range g.cells {
		if c.defined() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return g.cells[ids[i]].seq < g.cells[ids[j]].seq })
	return ids
}

func (g *graph) reset() {
	g.cells = make(map[CellID]*cellState)
	g.seq = 0
}
