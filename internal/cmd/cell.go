package cmd

import (
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval <cell> <expr>",
	Short: "Set a cell's formula and print the changed values",
	Long: `Set the formula of a cell and print every cell whose value was
recomputed, as a JSON object of cell id to value.

Examples:
  xlcalc eval A1 5
  xlcalc eval B1 "=A1 + 1"
  xlcalc eval C1 "max(A1, B1) / 2"`,
	Args: cobra.ExactArgs(2),
	RunE: runEval,
}

var queryCmd = &cobra.Command{
	Use:   "query <cell>",
	Short: "Print a cell's formula and value",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var copyCmd = &cobra.Command{
	Use:   "copy <dest> <src>",
	Short: "Copy a formula, moving its relative references",
	Long: `Copy the formula of <src> into <dest>. Relative references keep their
distance from the cell; absolute ($) parts stay fixed.

Examples:
  xlcalc copy C1 A1      # A1 "=B1+1" becomes C1 "=D1 + 1"`,
	Args: cobra.ExactArgs(2),
	RunE: runCopy,
}

var rmCmd = &cobra.Command{
	Use:     "rm <cell>",
	Aliases: []string{"remove"},
	Short:   "Unset a cell and print the changed values",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(rmCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	updates, err := s.svc.Evaluate(cmd.Context(), s.sheet, args[0], args[1])
	return printUpdates(cmd, updates, err)
}

func runQuery(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	info, err := s.svc.Query(cmd.Context(), s.sheet, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), info)
}

func runCopy(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	updates, err := s.svc.Copy(cmd.Context(), s.sheet, args[0], args[1])
	return printUpdates(cmd, updates, err)
}

func runRemove(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	updates, err := s.svc.Remove(cmd.Context(), s.sheet, args[0])
	return printUpdates(cmd, updates, err)
}
