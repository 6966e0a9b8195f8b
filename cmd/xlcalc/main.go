// xlcalc evaluates spreadsheet formulas stored in an xlsx workbook.
package main

import (
	"os"

	"github.com/javajack/xlcalc/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
