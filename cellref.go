package xlcalc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet bounds, the same grid an xlsx worksheet has (A1:XFD1048576).
const (
	MaxColumns = excelize.MaxColumns
	MaxRows    = excelize.TotalRows
)

// CellID identifies a single cell of a spreadsheet by its 1-based column and row.
// Coordinates produced by reference arithmetic may fall outside the sheet;
// such ids are valid map keys but have no textual name.
type CellID struct {
	Col int // 1-based column index (A=1)
	Row int // 1-based row number
}

// NewCellID creates a CellID from 1-based column and row.
func NewCellID(col, row int) CellID {
	return CellID{Col: col, Row: row}
}

// ParseCellID parses a cell name like "B12" or "b12". Dollar signs are not
// accepted here; they belong to references inside formulas.
func ParseCellID(s string) (CellID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CellID{}, fmt.Errorf("empty cell id")
	}
	col, row, err := parseCellName(s)
	if err != nil {
		return CellID{}, fmt.Errorf("invalid cell id %q: %w", s, err)
	}
	return CellID{Col: col, Row: row}, nil
}

// MustParseCellID is like ParseCellID but panics on error.
func MustParseCellID(s string) CellID {
	id, err := ParseCellID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// parseCellName parses "A1" into col=1, row=1.
func parseCellName(name string) (col, row int, err error) {
	i := 0
	for i < len(name) && isAlpha(name[i]) {
		i++
	}
	if i == 0 || i == len(name) {
		return 0, 0, fmt.Errorf("invalid cell name: %q", name)
	}

	col, err = ColumnIndex(name[:i])
	if err != nil {
		return 0, 0, err
	}

	rowStr := name[i:]
	for j := 0; j < len(rowStr); j++ {
		if rowStr[j] < '0' || rowStr[j] > '9' {
			return 0, 0, fmt.Errorf("invalid row in cell name: %q", name)
		}
	}
	row, err = strconv.Atoi(rowStr)
	if err != nil || row < 1 || row > MaxRows {
		return 0, 0, fmt.Errorf("invalid row number in cell name: %q", name)
	}
	return col, row, nil
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Valid reports whether the id lies on the sheet.
func (c CellID) Valid() bool {
	return c.Col >= 1 && c.Col <= MaxColumns && c.Row >= 1 && c.Row <= MaxRows
}

// String formats the id as "B12". Off-sheet ids render as "#REF!".
func (c CellID) String() string {
	if !c.Valid() {
		return "#REF!"
	}
	return ColumnName(c.Col) + strconv.Itoa(c.Row)
}

// Less orders ids by column, then row.
func (c CellID) Less(other CellID) bool {
	if c.Col != other.Col {
		return c.Col < other.Col
	}
	return c.Row < other.Row
}

// ColumnName converts a 1-based column index to its letters.
// 1→"A", 26→"Z", 27→"AA", 703→"AAA"
func ColumnName(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

// ColumnIndex converts column letters to a 1-based column index.
// "A"→1, "Z"→26, "AA"→27
func ColumnIndex(name string) (int, error) {
	name = strings.ToUpper(name)
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}
	col := 0
	for _, ch := range name {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("invalid column name: %q", name)
		}
		col = col*26 + int(ch-'A') + 1
		if col > MaxColumns {
			return 0, fmt.Errorf("column %q beyond %s", name, ColumnName(MaxColumns))
		}
	}
	return col, nil
}

// RefPart is one axis of a cell reference. When Abs is set, Value is the
// literal 1-based index; otherwise it is a signed offset from the base cell.
type RefPart struct {
	Abs   bool
	Value int
}

func (p RefPart) resolve(base int) int {
	if p.Abs {
		return p.Value
	}
	return base + p.Value
}

// CellRef is a reference as written inside a formula.
type CellRef struct {
	Col RefPart
	Row RefPart
}

// ParseCellRef parses a formula reference like "B1", "$B1", "B$1" or "$B$1"
// defined in the formula of base.
func ParseCellRef(s string, base CellID) (CellRef, error) {
	if s == "" {
		return CellRef{}, fmt.Errorf("empty cell reference")
	}
	rest := s
	colAbs := strings.HasPrefix(rest, "$")
	if colAbs {
		rest = rest[1:]
	}
	i := 0
	for i < len(rest) && isAlpha(rest[i]) {
		i++
	}
	if i == 0 {
		return CellRef{}, fmt.Errorf("invalid cell reference: %q", s)
	}
	letters := rest[:i]
	rest = rest[i:]
	rowAbs := strings.HasPrefix(rest, "$")
	if rowAbs {
		rest = rest[1:]
	}
	col, row, err := parseCellName(letters + rest)
	if err != nil {
		return CellRef{}, fmt.Errorf("invalid cell reference %q: %w", s, err)
	}

	ref := CellRef{
		Col: RefPart{Abs: colAbs, Value: col},
		Row: RefPart{Abs: rowAbs, Value: row},
	}
	if !colAbs {
		ref.Col.Value = col - base.Col
	}
	if !rowAbs {
		ref.Row.Value = row - base.Row
	}
	return ref, nil
}

// Resolve returns the concrete cell r points at when its formula lives in base.
// The result may be off-sheet; that is not an error.
func (r CellRef) Resolve(base CellID) CellID {
	return CellID{Col: r.Col.resolve(base.Col), Row: r.Row.resolve(base.Row)}
}

// Rebase relocates r from a formula in oldBase to the same formula in newBase.
// Absolute parts keep their literal target. Relative targets move by
// newBase-oldBase, which in the offset encoding leaves the offset unchanged.
func (r CellRef) Rebase(oldBase, newBase CellID) CellRef {
	shift := func(p RefPart, oldPos, newPos int) RefPart {
		if p.Abs {
			return p
		}
		target := oldPos + p.Value + (newPos - oldPos)
		return RefPart{Value: target - newPos}
	}
	return CellRef{
		Col: shift(r.Col, oldBase.Col, newBase.Col),
		Row: shift(r.Row, oldBase.Row, newBase.Row),
	}
}

// Format renders r as written in a formula stored at base, e.g. "$B1".
func (r CellRef) Format(base CellID) string {
	target := r.Resolve(base)
	if !target.Valid() {
		return "#REF!"
	}
	var b strings.Builder
	if r.Col.Abs {
		b.WriteByte('$')
	}
	b.WriteString(ColumnName(target.Col))
	if r.Row.Abs {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(target.Row))
	return b.String()
}
