package xlcalc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newXLSXStore(t *testing.T) *XLSXStore {
	t.Helper()
	return NewXLSXStore(filepath.Join(t.TempDir(), "sheets.xlsx"), time.Second)
}

func TestXLSXStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return newXLSXStore(t) })
}

func TestXLSXStore_CreatesWorkbookLazily(t *testing.T) {
	s := newXLSXStore(t)
	_, err := s.Load(context.Background(), "budget")
	assert.ErrorIs(t, err, ErrNoSpreadsheet)

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "reads must not create the workbook")
}

func TestXLSXStore_FormulaStoredAsText(t *testing.T) {
	ctx := context.Background()
	s := newXLSXStore(t)
	require.NoError(t, s.SetCellExpr(ctx, "budget", "B2", "=A1 + $C$3"))

	f, err := excelize.OpenFile(s.Path())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"budget"}, f.GetSheetList())
	v, err := f.GetCellValue("budget", "B2")
	require.NoError(t, err)
	assert.Equal(t, "=A1 + $C$3", v)
	formula, err := f.GetCellFormula("budget", "B2")
	require.NoError(t, err)
	assert.Empty(t, formula)
}

func TestXLSXStore_DefaultSheetName(t *testing.T) {
	ctx := context.Background()
	s := newXLSXStore(t)
	require.NoError(t, s.SetCellExpr(ctx, "Sheet1", "A1", "1"))

	names, err := s.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1"}, names)
}

func TestXLSXStore_LoadRowMajor(t *testing.T) {
	ctx := context.Background()
	s := newXLSXStore(t)
	require.NoError(t, s.Replace(ctx, "s", []Pair{
		{Cell: "B2", Expr: "=A1"},
		{Cell: "A1", Expr: "1"},
		{Cell: "C1", Expr: "2"},
	}))

	pairs, err := s.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Cell: "A1", Expr: "1"}, {Cell: "C1", Expr: "2"}, {Cell: "B2", Expr: "=A1"}}, pairs)
}

func TestXLSXStore_LockTimeout(t *testing.T) {
	s := NewXLSXStore(filepath.Join(t.TempDir(), "sheets.xlsx"), 100*time.Millisecond)
	held := flock.New(s.Path() + ".lock")
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Unlock()

	err = s.SetCellExpr(context.Background(), "s", "A1", "1")
	assert.Error(t, err)
}

func TestXLSXStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sheets.xlsx")
	require.NoError(t, NewXLSXStore(path, 0).SetCellExpr(ctx, "s", "A1", "=1+1"))

	pairs, err := NewXLSXStore(path, 0).Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Cell: "A1", Expr: "=1+1"}}, pairs)
}
