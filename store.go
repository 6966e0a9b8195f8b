package xlcalc

import (
	"context"
	"sort"
	"sync"
)

// Store persists the formula text of every defined cell, keyed by spreadsheet
// name and cell id. It never sees parsed formulas or values.
type Store interface {
	// Load returns the pairs of spreadsheet ss, or ErrNoSpreadsheet if the
	// store has never seen it. The order of the pairs becomes the definition
	// order of the restored spreadsheet.
	Load(ctx context.Context, ss string) ([]Pair, error)
	// SetCellExpr stores expr for cellID; an empty expr removes the cell.
	SetCellExpr(ctx context.Context, ss, cellID, expr string) error
	// Clear removes every cell of ss. The spreadsheet stays known.
	Clear(ctx context.Context, ss string) error
	// Replace sets the content of ss to exactly pairs.
	Replace(ctx context.Context, ss string, pairs []Pair) error
	// Names lists the known spreadsheets in sorted order.
	Names(ctx context.Context) ([]string, error)
}

// MemStore is an in-memory Store that keeps pairs in insertion order.
type MemStore struct {
	mu     sync.Mutex
	sheets map[string]*memSheet
}

type memSheet struct {
	order []string          // cell ids in insertion order
	exprs map[string]string // cell id -> expr
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{sheets: make(map[string]*memSheet)}
}

func (m *MemStore) sheet(ss string) *memSheet {
	sh, ok := m.sheets[ss]
	if !ok {
		sh = &memSheet{exprs: make(map[string]string)}
		m.sheets[ss] = sh
	}
	return sh
}

func (m *MemStore) Load(ctx context.Context, ss string) ([]Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh, ok := m.sheets[ss]
	if !ok {
		return nil, ErrNoSpreadsheet
	}
	pairs := make([]Pair, 0, len(sh.order))
	for _, id := range sh.order {
		pairs = append(pairs, Pair{Cell: id, Expr: sh.exprs[id]})
	}
	return pairs, nil
}

func (m *MemStore) SetCellExpr(ctx context.Context, ss, cellID, expr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := m.sheet(ss)
	_, exists := sh.exprs[cellID]
	switch {
	case expr == "" && exists:
		delete(sh.exprs, cellID)
		for i, id := range sh.order {
			if id == cellID {
				sh.order = append(sh.order[:i], sh.order[i+1:]...)
				break
			}
		}
	case expr != "":
		if !exists {
			sh.order = append(sh.order, cellID)
		}
		sh.exprs[cellID] = expr
	}
	return nil
}

func (m *MemStore) Clear(ctx context.Context, ss string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[ss] = &memSheet{exprs: make(map[string]string)}
	return nil
}

func (m *MemStore) Replace(ctx context.Context, ss string, pairs []Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sh := &memSheet{exprs: make(map[string]string)}
	for _, p := range pairs {
		if _, exists := sh.exprs[p.Cell]; !exists {
			sh.order = append(sh.order, p.Cell)
		}
		sh.exprs[p.Cell] = p.Expr
	}
	m.sheets[ss] = sh
	return nil
}

func (m *MemStore) Names(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sheets))
	for name := range m.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
