package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javajack/xlcalc"
)

var dumpValues bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Unset every cell of the spreadsheet",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print every defined cell as JSON",
	Long: `Print the defined cells in definition order as JSON pairs
[["A1", "5"], ["B1", "=A1+1"]], or with --values as objects that also carry
each cell's value.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Replace the spreadsheet with the formulas in a file",
	Long: `Replace the spreadsheet with the formulas in <file>, applied in file order.

A .json file holds pairs as printed by 'xlcalc dump'. Any other file holds one
cell per line: the cell id, whitespace, then the formula. Blank lines and lines
starting with # are ignored.

  # budget
  A1  100
  B1  =A1 * 1.2`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a load file without changing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print cells, values and dependency edges",
	Args:  cobra.NoArgs,
	RunE:  runDescribe,
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the spreadsheets in the workbook",
	Args:  cobra.NoArgs,
	RunE:  runSheets,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpValues, "values", false, "Include cell values")

	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(sheetsCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	return s.svc.Clear(cmd.Context(), s.sheet)
}

func runDump(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if dumpValues {
		dump, err := s.svc.DumpWithValues(cmd.Context(), s.sheet)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dump)
	}
	pairs, err := s.svc.Dump(cmd.Context(), s.sheet)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), pairs)
}

func runLoad(cmd *cobra.Command, args []string) error {
	pairs, err := readPairsFile(args[0])
	if err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	if err := s.svc.Load(cmd.Context(), s.sheet, pairs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d cells into %s\n", len(pairs), s.sheet)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	pairs, err := readPairsFile(args[0])
	if err != nil {
		return err
	}
	issues := xlcalc.Validate(pairs)
	for _, is := range issues {
		fmt.Fprintln(cmd.OutOrStdout(), is.String())
	}
	if xlcalc.HasErrors(issues) {
		return &xlcalc.Error{Kind: xlcalc.KindBadRequest, Msg: fmt.Sprintf("%s has errors", args[0])}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d cells ok\n", args[0], len(pairs))
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	text, err := s.svc.Describe(cmd.Context(), s.sheet)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}

func runSheets(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	names, err := s.svc.Names(cmd.Context())
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

func readPairsFile(path string) ([]xlcalc.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var pairs []xlcalc.Pair
		if err := json.NewDecoder(f).Decode(&pairs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return pairs, nil
	}
	pairs, err := parsePairs(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pairs, nil
}

// parsePairs reads "cell formula" lines.
func parsePairs(r io.Reader) ([]xlcalc.Pair, error) {
	var pairs []xlcalc.Pair
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexAny(line, " \t")
		if i < 0 {
			return nil, fmt.Errorf("line %d: expected <cell> <formula>", lineNo)
		}
		pairs = append(pairs, xlcalc.Pair{Cell: line[:i], Expr: strings.TrimSpace(line[i+1:])})
	}
	return pairs, sc.Err()
}
