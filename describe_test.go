package xlcalc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe_Chain(t *testing.T) {
	ss := New("budget")
	_, _ = ss.Evaluate("A1", "1")
	_, _ = ss.Evaluate("B1", "=A1+1")

	output := ss.Describe()
	assert.Equal(t, "Spreadsheet: budget\n"+
		"A1 = 1 -> 1\n"+
		"  used by: B1\n"+
		"B1 = =A1+1 -> 2\n"+
		"  uses: A1\n", output)
}

func TestDescribe_UnsetPlaceholder(t *testing.T) {
	ss := New("budget")
	_, _ = ss.Evaluate("C3", "=Z9 * 2 + A1")

	output := ss.Describe()
	assert.Contains(t, output, "Z9 (unset)\n  used by: C3\n")
	assert.Contains(t, output, "A1 (unset)\n  used by: C3\n")
	assert.Contains(t, output, "  uses: A1, Z9\n")
	// sorted by column, then row
	assert.Less(t, strings.Index(output, "A1 (unset)"), strings.Index(output, "C3 ="))
	assert.Less(t, strings.Index(output, "C3 ="), strings.Index(output, "Z9 (unset)"))
}

func TestDescribe_Empty(t *testing.T) {
	assert.Equal(t, "Spreadsheet: empty\n", New("empty").Describe())
}

func TestDescribe_FractionalValue(t *testing.T) {
	ss := New("s")
	_, _ = ss.Evaluate("A1", "=1/4")
	assert.Contains(t, ss.Describe(), "A1 = =1/4 -> 0.25\n")
}
