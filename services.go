package xlcalc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Services exposes the spreadsheet operations by spreadsheet name, keeping
// each sheet's formulas in a Store. Spreadsheets are restored from the store
// on first use. Operations on different spreadsheets run concurrently;
// operations on the same one are serialized together with their store write.
type Services struct {
	store Store
	opts  []Option
	o     *Options

	mu     sync.Mutex
	sheets map[string]*entry
}

type entry struct {
	mu sync.Mutex // held across an engine mutation and its store write
	ss *Spreadsheet

	ready chan struct{} // closed once ss is restored or err is set
	err   error
}

// NewServices creates Services over store. opts are applied to every
// Spreadsheet it creates.
func NewServices(store Store, opts ...Option) *Services {
	return &Services{
		store:  store,
		opts:   opts,
		o:      buildOptions(opts),
		sheets: make(map[string]*entry),
	}
}

func checkName(ss string) error {
	if strings.TrimSpace(ss) == "" {
		return errorf(KindBadRequest, "empty spreadsheet name")
	}
	return nil
}

func dbError(err error) error {
	return &Error{Kind: KindDB, Err: err}
}

// lookup returns the entry for ss, restoring it from the store if it is not in
// memory yet. With create unset, a spreadsheet unknown to the store yields
// NOT_FOUND. s.mu is never held across store I/O; concurrent callers for the
// same name wait for the one doing the restore.
func (s *Services) lookup(ctx context.Context, ss string, create bool) (*entry, error) {
	if err := checkName(ss); err != nil {
		return nil, err
	}
	for {
		s.mu.Lock()
		e, ok := s.sheets[ss]
		if !ok {
			e = &entry{ready: make(chan struct{})}
			s.sheets[ss] = e
		}
		s.mu.Unlock()

		if !ok {
			s.restore(ctx, ss, create, e)
		} else {
			select {
			case <-e.ready:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if e.err == nil {
			return e, nil
		}
		// someone else's read found nothing; this call may create it
		if ok && create && IsKind(e.err, KindNotFound) {
			continue
		}
		return nil, e.err
	}
}

// restore fills e from the store and closes e.ready. On failure e is
// dropped from s.sheets so the next call tries again.
func (s *Services) restore(ctx context.Context, ss string, create bool, e *entry) {
	defer close(e.ready)

	pairs, err := s.store.Load(ctx, ss)
	switch {
	case errors.Is(err, ErrNoSpreadsheet):
		if !create {
			e.err = errorf(KindNotFound, "spreadsheet %q not found", ss)
		}
	case err != nil:
		s.o.logger.Printf("%s: restore failed: %v", ss, err)
		e.err = dbError(err)
	}
	if e.err == nil {
		sheet := New(ss, s.opts...)
		if err := sheet.Load(pairs); err != nil && !IsKind(err, KindEval) {
			e.err = fmt.Errorf("restore %q: %w", ss, err)
		} else {
			e.ss = sheet
			s.o.logger.Printf("%s: restored %d cells", ss, len(pairs))
		}
	}
	if e.err != nil {
		s.mu.Lock()
		if s.sheets[ss] == e {
			delete(s.sheets, ss)
		}
		s.mu.Unlock()
	}
}

// persist writes the current formula text of cellID to the store.
func (s *Services) persist(ctx context.Context, e *entry, cellID string) error {
	id, err := parseID(cellID)
	if err != nil {
		return err
	}
	info, err := e.ss.Query(cellID)
	if err != nil {
		return err
	}
	if err := s.store.SetCellExpr(ctx, e.ss.Name(), id.String(), info.Expr); err != nil {
		s.o.logger.Printf("%s: persist %s failed: %v", e.ss.Name(), id, err)
		return dbError(err)
	}
	return nil
}

// mutate runs op against ss and persists cellID if op committed. If the
// store write fails the cell is put back to its previous formula, so memory
// keeps matching the store.
func (s *Services) mutate(ctx context.Context, ss, cellID string, op func(*Spreadsheet) (Updates, error)) (Updates, error) {
	e, err := s.lookup(ctx, ss, true)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, err := e.ss.Query(cellID)
	if err != nil {
		return nil, err
	}
	updates, err := op(e.ss)
	if err != nil && !IsKind(err, KindEval) {
		return nil, err
	}
	if perr := s.persist(ctx, e, cellID); perr != nil {
		if _, rerr := e.ss.Evaluate(cellID, prev.Expr); rerr != nil && !IsKind(rerr, KindEval) {
			s.o.logger.Printf("%s: rollback of %s failed: %v", ss, cellID, rerr)
		}
		return nil, perr
	}
	return updates, err
}

// Evaluate sets the formula of cellID in spreadsheet ss.
func (s *Services) Evaluate(ctx context.Context, ss, cellID, expr string) (Updates, error) {
	return s.mutate(ctx, ss, cellID, func(sheet *Spreadsheet) (Updates, error) {
		return sheet.Evaluate(cellID, expr)
	})
}

// Copy copies the formula of srcCellID into destCellID in spreadsheet ss.
func (s *Services) Copy(ctx context.Context, ss, destCellID, srcCellID string) (Updates, error) {
	return s.mutate(ctx, ss, destCellID, func(sheet *Spreadsheet) (Updates, error) {
		return sheet.Copy(destCellID, srcCellID)
	})
}

// Remove unsets cellID in spreadsheet ss.
func (s *Services) Remove(ctx context.Context, ss, cellID string) (Updates, error) {
	return s.mutate(ctx, ss, cellID, func(sheet *Spreadsheet) (Updates, error) {
		return sheet.Remove(cellID)
	})
}

// Query returns the formula and value of cellID in spreadsheet ss.
func (s *Services) Query(ctx context.Context, ss, cellID string) (CellInfo, error) {
	e, err := s.lookup(ctx, ss, false)
	if err != nil {
		return CellInfo{}, err
	}
	return e.ss.Query(cellID)
}

// Dump returns the defined cells of spreadsheet ss.
func (s *Services) Dump(ctx context.Context, ss string) ([]Pair, error) {
	e, err := s.lookup(ctx, ss, false)
	if err != nil {
		return nil, err
	}
	return e.ss.Dump(), nil
}

// DumpWithValues returns the defined cells of spreadsheet ss with their values.
func (s *Services) DumpWithValues(ctx context.Context, ss string) ([]CellDump, error) {
	e, err := s.lookup(ctx, ss, false)
	if err != nil {
		return nil, err
	}
	return e.ss.DumpWithValues(), nil
}

// Describe returns the debugging listing of spreadsheet ss.
func (s *Services) Describe(ctx context.Context, ss string) (string, error) {
	e, err := s.lookup(ctx, ss, false)
	if err != nil {
		return "", err
	}
	return e.ss.Describe(), nil
}

// Clear unsets every cell of spreadsheet ss.
func (s *Services) Clear(ctx context.Context, ss string) error {
	e, err := s.lookup(ctx, ss, true)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ss.Clear()
	if err := s.store.Clear(ctx, ss); err != nil {
		s.o.logger.Printf("%s: clear failed: %v", ss, err)
		return dbError(err)
	}
	return nil
}

// Load replaces the content of spreadsheet ss with pairs, applied in order.
// All pairs are validated first. If any pair is malformed or closes a cycle,
// neither the spreadsheet nor the store is changed.
func (s *Services) Load(ctx context.Context, ss string, pairs []Pair) error {
	if issues := Validate(pairs, s.opts...); HasErrors(issues) {
		return issuesError(issues)
	}
	e, err := s.lookup(ctx, ss, true)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	fresh := New(ss, s.opts...)
	loadErr := fresh.Load(pairs)
	if loadErr != nil && !IsKind(loadErr, KindEval) {
		s.o.logger.Printf("%s: load rejected: %v", ss, loadErr)
		return loadErr
	}
	if err := s.store.Replace(ctx, ss, fresh.Dump()); err != nil {
		s.o.logger.Printf("%s: load failed: %v", ss, err)
		return dbError(err)
	}
	e.ss.adopt(fresh)
	return loadErr
}

// Names lists the spreadsheets known to the store or held in memory.
func (s *Services) Names(ctx context.Context) ([]string, error) {
	names, err := s.store.Names(ctx)
	if err != nil {
		return nil, dbError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for n, e := range s.sheets {
		if known[n] {
			continue
		}
		select {
		case <-e.ready:
			if e.err == nil {
				names = append(names, n)
			}
		default:
		}
	}
	sort.Strings(names)
	return names, nil
}
