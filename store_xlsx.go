package xlcalc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"
)

// DefaultLockTimeout is how long XLSXStore waits for the workbook lock.
const DefaultLockTimeout = 5 * time.Second

const lockRetryDelay = 50 * time.Millisecond

// defaultSheet is the worksheet excelize puts in every new workbook.
const defaultSheet = "Sheet1"

// XLSXStore is a Store backed by one xlsx workbook. Each spreadsheet is a
// worksheet of the same name and each defined cell holds its formula text as
// a plain string at its own address. Access is serialized across processes
// with a lock file next to the workbook.
//
// A worksheet has no notion of definition order, so Load returns cells row by
// row, left to right. A spreadsheet restored from it dumps in that order.
type XLSXStore struct {
	path        string
	lockTimeout time.Duration
}

// NewXLSXStore creates a store for the workbook at path. The file is created
// on first write. A non-positive lockTimeout means DefaultLockTimeout.
func NewXLSXStore(path string, lockTimeout time.Duration) *XLSXStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &XLSXStore{path: path, lockTimeout: lockTimeout}
}

// Path returns the workbook path.
func (s *XLSXStore) Path() string {
	return s.path
}

// lock acquires the workbook lock, shared for reads. The caller must unlock.
func (s *XLSXStore) lock(ctx context.Context, shared bool) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	fl := flock.New(s.path + ".lock")
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring lock on %s: %w", s.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", s.path)
	}
	return fl, nil
}

// open returns the workbook, or nil if the file does not exist yet.
func (s *XLSXStore) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", s.path, err)
	}
	return f, nil
}

// save writes f to a temporary file and renames it over the workbook.
func (s *XLSXStore) save(f *excelize.File) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".xlcalc-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := f.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace workbook %q: %w", s.path, err)
	}
	return nil
}

func hasSheet(f *excelize.File, ss string) bool {
	idx, err := f.GetSheetIndex(ss)
	return err == nil && idx >= 0
}

// update opens (or creates) the workbook under the exclusive lock, makes sure
// worksheet ss exists, applies fn and saves.
func (s *XLSXStore) update(ctx context.Context, ss string, fn func(f *excelize.File) error) error {
	fl, err := s.lock(ctx, false)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	if f == nil {
		f = excelize.NewFile()
		if ss != defaultSheet {
			idx, err := f.NewSheet(ss)
			if err != nil {
				f.Close()
				return fmt.Errorf("create sheet %q: %w", ss, err)
			}
			f.SetActiveSheet(idx)
			if err := f.DeleteSheet(defaultSheet); err != nil {
				f.Close()
				return fmt.Errorf("drop default sheet: %w", err)
			}
		}
	} else if !hasSheet(f, ss) {
		if _, err := f.NewSheet(ss); err != nil {
			f.Close()
			return fmt.Errorf("create sheet %q: %w", ss, err)
		}
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}
	return s.save(f)
}

func (s *XLSXStore) Load(ctx context.Context, ss string) ([]Pair, error) {
	fl, err := s.lock(ctx, true)
	if err != nil {
		return nil, err
	}
	defer fl.Unlock()

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNoSpreadsheet
	}
	defer f.Close()
	if !hasSheet(f, ss) {
		return nil, ErrNoSpreadsheet
	}
	return readPairs(f, ss)
}

// readPairs returns the non-empty cells of ss in row-major order.
func readPairs(f *excelize.File, ss string) ([]Pair, error) {
	rows, err := f.GetRows(ss)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %q: %w", ss, err)
	}
	var pairs []Pair
	for r, row := range rows {
		for c, text := range row {
			if text == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Pair{Cell: name, Expr: text})
		}
	}
	return pairs, nil
}

func clearSheet(f *excelize.File, ss string) error {
	pairs, err := readPairs(f, ss)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := f.SetCellStr(ss, p.Cell, ""); err != nil {
			return fmt.Errorf("clear %s!%s: %w", ss, p.Cell, err)
		}
	}
	return nil
}

func (s *XLSXStore) SetCellExpr(ctx context.Context, ss, cellID, expr string) error {
	return s.update(ctx, ss, func(f *excelize.File) error {
		if err := f.SetCellStr(ss, cellID, expr); err != nil {
			return fmt.Errorf("set %s!%s: %w", ss, cellID, err)
		}
		return nil
	})
}

func (s *XLSXStore) Clear(ctx context.Context, ss string) error {
	return s.update(ctx, ss, func(f *excelize.File) error {
		return clearSheet(f, ss)
	})
}

func (s *XLSXStore) Replace(ctx context.Context, ss string, pairs []Pair) error {
	return s.update(ctx, ss, func(f *excelize.File) error {
		if err := clearSheet(f, ss); err != nil {
			return err
		}
		for _, p := range pairs {
			if err := f.SetCellStr(ss, p.Cell, p.Expr); err != nil {
				return fmt.Errorf("set %s!%s: %w", ss, p.Cell, err)
			}
		}
		return nil
	})
}

func (s *XLSXStore) Names(ctx context.Context) ([]string, error) {
	fl, err := s.lock(ctx, true)
	if err != nil {
		return nil, err
	}
	defer fl.Unlock()

	f, err := s.open()
	if err != nil || f == nil {
		return nil, err
	}
	defer f.Close()
	names := f.GetSheetList()
	sort.Strings(names)
	return names, nil
}
