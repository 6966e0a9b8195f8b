package xlcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- CellID Tests ---

func TestParseCellID_Simple(t *testing.T) {
	id, err := ParseCellID("B12")
	require.NoError(t, err)
	assert.Equal(t, CellID{Col: 2, Row: 12}, id)
	assert.Equal(t, "B12", id.String())
}

func TestParseCellID_CaseInsensitive(t *testing.T) {
	lower, err := ParseCellID("ab3")
	require.NoError(t, err)
	upper, err := ParseCellID("AB3")
	require.NoError(t, err)
	assert.Equal(t, upper, lower)
	assert.Equal(t, "AB3", lower.String())
}

func TestParseCellID_Invalid(t *testing.T) {
	for _, s := range []string{"", "A", "12", "A0", "1A", "A1B", "$A$1", "A-1"} {
		_, err := ParseCellID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestCellID_OffSheet(t *testing.T) {
	id := NewCellID(0, 3)
	assert.False(t, id.Valid())
	assert.Equal(t, "#REF!", id.String())
	assert.True(t, NewCellID(1, 1).Valid())
}

func TestColumnName_RoundTrip(t *testing.T) {
	cases := map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for col, name := range cases {
		assert.Equal(t, name, ColumnName(col))
		idx, err := ColumnIndex(name)
		require.NoError(t, err)
		assert.Equal(t, col, idx)
	}
}

func TestColumnIndex_Invalid(t *testing.T) {
	_, err := ColumnIndex("")
	assert.Error(t, err)
	_, err = ColumnIndex("A1")
	assert.Error(t, err)
	_, err = ColumnIndex("XFE")
	assert.Error(t, err)
	_, err = ColumnIndex("AAAAAAAAAAAAAAAAAAAA")
	assert.Error(t, err)

	idx, err := ColumnIndex("XFD")
	require.NoError(t, err)
	assert.Equal(t, MaxColumns, idx)
}

func TestParseCellID_SheetBounds(t *testing.T) {
	for _, s := range []string{"AAAAAAAAAAAAAAAAAAAA1", "XFE1", "A1048577", "A99999999999999999999"} {
		_, err := ParseCellID(s)
		assert.Error(t, err, "input %q", s)
	}
	id, err := ParseCellID("XFD1048576")
	require.NoError(t, err)
	assert.True(t, id.Valid())
	assert.Equal(t, "XFD1048576", id.String())
	assert.False(t, NewCellID(MaxColumns+1, 1).Valid())
	assert.False(t, NewCellID(1, MaxRows+1).Valid())
}

// --- CellRef Tests ---

func TestParseCellRef_Relative(t *testing.T) {
	ref, err := ParseCellRef("B1", MustParseCellID("A1"))
	require.NoError(t, err)
	assert.Equal(t, RefPart{Abs: false, Value: 1}, ref.Col)
	assert.Equal(t, RefPart{Abs: false, Value: 0}, ref.Row)
}

func TestParseCellRef_Absolute(t *testing.T) {
	ref, err := ParseCellRef("$B$1", MustParseCellID("D4"))
	require.NoError(t, err)
	assert.Equal(t, RefPart{Abs: true, Value: 2}, ref.Col)
	assert.Equal(t, RefPart{Abs: true, Value: 1}, ref.Row)
}

func TestParseCellRef_Mixed(t *testing.T) {
	base := MustParseCellID("C3")
	ref, err := ParseCellRef("$A5", base)
	require.NoError(t, err)
	assert.Equal(t, RefPart{Abs: true, Value: 1}, ref.Col)
	assert.Equal(t, RefPart{Abs: false, Value: 2}, ref.Row)

	ref, err = ParseCellRef("a$1", base)
	require.NoError(t, err)
	assert.Equal(t, RefPart{Abs: false, Value: -2}, ref.Col)
	assert.Equal(t, RefPart{Abs: true, Value: 1}, ref.Row)
}

func TestParseCellRef_Invalid(t *testing.T) {
	base := MustParseCellID("A1")
	for _, s := range []string{"", "$", "$$A1", "A$$1", "A1$", "foo", "1A"} {
		_, err := ParseCellRef(s, base)
		assert.Error(t, err, "input %q", s)
	}
}

func TestCellRef_Resolve(t *testing.T) {
	base := MustParseCellID("C3")
	ref, err := ParseCellRef("B1", base)
	require.NoError(t, err)
	assert.Equal(t, "B1", ref.Resolve(base).String())
	// same offset from another base
	assert.Equal(t, "E4", ref.Resolve(MustParseCellID("F6")).String())
}

func TestCellRef_ResolveOffSheetIsLegal(t *testing.T) {
	ref := CellRef{Col: RefPart{Value: -3}, Row: RefPart{Value: -3}}
	id := ref.Resolve(MustParseCellID("B2"))
	assert.Equal(t, CellID{Col: -1, Row: -1}, id)
	assert.False(t, id.Valid())
}

func TestCellRef_Rebase(t *testing.T) {
	src := MustParseCellID("A1")
	dst := MustParseCellID("C1")

	rel, err := ParseCellRef("B1", src)
	require.NoError(t, err)
	moved := rel.Rebase(src, dst)
	assert.Equal(t, "D1", moved.Resolve(dst).String())

	abs, err := ParseCellRef("$B$1", src)
	require.NoError(t, err)
	pinned := abs.Rebase(src, dst)
	assert.Equal(t, abs, pinned)
	assert.Equal(t, "B1", pinned.Resolve(dst).String())

	mixed, err := ParseCellRef("$B2", src)
	require.NoError(t, err)
	m := mixed.Rebase(src, MustParseCellID("C3"))
	assert.Equal(t, "B4", m.Resolve(MustParseCellID("C3")).String())
}

func TestCellRef_Format(t *testing.T) {
	base := MustParseCellID("B2")
	for _, s := range []string{"A1", "$A1", "A$1", "$A$1", "AA100"} {
		ref, err := ParseCellRef(s, base)
		require.NoError(t, err)
		assert.Equal(t, s, ref.Format(base))
	}
}
