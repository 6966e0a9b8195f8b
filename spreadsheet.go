package xlcalc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Updates maps cell ids to their new values after an operation.
type Updates map[string]float64

// CellInfo is the formula text and current value of a cell.
type CellInfo struct {
	Expr  string  `json:"expr"`
	Value float64 `json:"value"`
}

// Pair is one defined cell and its formula text. It encodes to JSON as a
// two-element array ["A1", "=B1+1"].
type Pair struct {
	Cell string
	Expr string
}

func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Cell, p.Expr})
}

func (p *Pair) UnmarshalJSON(data []byte) error {
	var arr [2]string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("decode pair: %w", err)
	}
	p.Cell, p.Expr = arr[0], arr[1]
	return nil
}

// CellDump is a defined cell with its formula text and current value.
type CellDump struct {
	Cell  string  `json:"cell"`
	Expr  string  `json:"expr"`
	Value float64 `json:"value"`
}

// Spreadsheet is the formula engine for one named sheet. Every method is a
// complete transaction; mutations are serialized and reads see the last
// committed state. The zero value is not usable; call New.
type Spreadsheet struct {
	name string
	opts *Options

	mu sync.RWMutex
	g  *graph
}

// New creates an empty spreadsheet.
func New(name string, opts ...Option) *Spreadsheet {
	return &Spreadsheet{
		name: name,
		opts: buildOptions(opts),
		g:    newGraph(),
	}
}

// Name returns the name the spreadsheet was created with.
func (s *Spreadsheet) Name() string {
	return s.name
}

func parseID(cellID string) (CellID, error) {
	id, err := ParseCellID(cellID)
	if err != nil {
		return CellID{}, &Error{Kind: KindBadRequest, Err: err}
	}
	return id, nil
}

// Evaluate sets the formula of cellID to expr and recomputes every cell that
// depends on it. Blank expr unsets the cell.
//
// SYNTAX and CIRCULAR_REF failures leave the sheet unchanged. An EVAL failure
// happens after the formula is committed: the failing cells read as 0, are
// left out of the returned updates, and the updates that did succeed are
// returned together with the error.
func (s *Spreadsheet) Evaluate(cellID, expr string) (Updates, error) {
	base, err := parseID(cellID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(base, expr)
}

// Remove unsets cellID; its dependents are recomputed as if it were 0.
func (s *Spreadsheet) Remove(cellID string) (Updates, error) {
	return s.Evaluate(cellID, "")
}

// Copy installs the formula of src into dst with relative references moved
// by the distance between the two cells. Copying an unset cell unsets dst.
func (s *Spreadsheet) Copy(dstCellID, srcCellID string) (Updates, error) {
	dst, err := parseID(dstCellID)
	if err != nil {
		return nil, err
	}
	src, err := parseID(srcCellID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sc := s.g.get(src)
	if sc == nil || !sc.defined() {
		return s.install(dst, "", nil)
	}
	n := RebaseNode(sc.ast, src, dst)
	for _, ref := range Refs(n) {
		if !ref.Resolve(dst).Valid() {
			err := fmt.Errorf("copy of %s moves reference %s off the sheet", src, ref.Format(src))
			s.opts.logger.Printf("%s: copy %s -> %s rejected: %v", s.name, src, dst, err)
			return nil, newError(KindSyntax, dst, err)
		}
	}
	text := Format(n, dst)
	if strings.HasPrefix(sc.expr, "=") {
		text = "=" + text
	}
	return s.install(dst, text, n)
}

// adopt replaces the cells of s with those of other, which must not be used
// afterwards.
func (s *Spreadsheet) adopt(other *Spreadsheet) {
	other.mu.Lock()
	g := other.g
	other.g = newGraph()
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.g = g
	s.opts.logger.Printf("%s: replaced with %d cells", s.name, len(g.defined()))
}

// Query returns the formula and value of cellID. Unset cells report "" and 0.
func (s *Spreadsheet) Query(cellID string) (CellInfo, error) {
	id, err := parseID(cellID)
	if err != nil {
		return CellInfo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c := s.g.get(id); c != nil {
		return CellInfo{Expr: c.expr, Value: c.value}, nil
	}
	return CellInfo{}, nil
}

// Clear unsets every cell.
func (s *Spreadsheet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g.reset()
	s.opts.logger.Printf("%s: cleared", s.name)
}

// Dump returns every defined cell in the order the cells were defined.
func (s *Spreadsheet) Dump() []Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.g.defined()
	pairs := make([]Pair, len(ids))
	for i, id := range ids {
		pairs[i] = Pair{Cell: id.String(), Expr: s.g.get(id).expr}
	}
	return pairs
}

// DumpWithValues is like Dump but includes each cell's current value.
func (s *Spreadsheet) DumpWithValues() []CellDump {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.g.defined()
	dump := make([]CellDump, len(ids))
	for i, id := range ids {
		c := s.g.get(id)
		dump[i] = CellDump{Cell: id.String(), Expr: c.expr, Value: c.value}
	}
	return dump
}

// Load evaluates pairs in the given order without reordering them. A
// malformed cell id, syntax error or circular reference stops the load with
// the pairs before it applied. EVAL failures do not stop it; they are
// returned joined once every pair has been applied.
func (s *Spreadsheet) Load(pairs []Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evalErrs []error
	for _, p := range pairs {
		base, err := parseID(p.Cell)
		if err != nil {
			return err
		}
		if _, err := s.set(base, p.Expr); err != nil {
			if !IsKind(err, KindEval) {
				return fmt.Errorf("load %s: %w", p.Cell, err)
			}
			evalErrs = append(evalErrs, err)
		}
	}
	return errors.Join(evalErrs...)
}

func (s *Spreadsheet) set(base CellID, expr string) (Updates, error) {
	n, err := s.opts.parse(expr, base)
	if err != nil {
		s.opts.logger.Printf("%s: %s = %q rejected: %v", s.name, base, expr, err)
		return nil, newError(KindSyntax, base, err)
	}
	if n == nil {
		expr = ""
	}
	return s.install(base, strings.TrimSpace(expr), n)
}

// install runs the cycle check, commit and propagation steps for a parsed
// formula. Callers hold s.mu.
func (s *Spreadsheet) install(base CellID, expr string, n Node) (Updates, error) {
	precs := precedentsOf(n, base)
	if s.g.wouldCycle(base, precs) {
		s.opts.logger.Printf("%s: %s = %q rejected: circular reference", s.name, base, expr)
		return nil, &Error{Kind: KindCircularRef, Cell: base.String(),
			Msg: fmt.Sprintf("cyclic dependency through %s", base)}
	}
	s.g.commit(base, expr, n, precs)
	updates, err := s.propagate(base)
	s.opts.logger.Printf("%s: %s = %q: %d updates", s.name, base, expr, len(updates))
	return updates, err
}

// propagate recomputes base and its transitive dependents, each after its
// precedents.
func (s *Spreadsheet) propagate(base CellID) (Updates, error) {
	updates := Updates{}
	var errs []error
	for _, id := range s.g.affected(base) {
		c := s.g.get(id)
		if c == nil {
			continue
		}
		v, err := Evaluate(c.ast, id, s.g.value)
		if err != nil {
			c.value = 0
			errs = append(errs, err)
			continue
		}
		c.value = v
		updates[id.String()] = v
	}
	s.g.collect(base)
	return updates, errors.Join(errs...)
}
