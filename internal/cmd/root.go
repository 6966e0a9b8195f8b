// Package cmd implements the xlcalc command tree.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/javajack/xlcalc"
	"github.com/javajack/xlcalc/internal/config"
)

var (
	configPath string
	storePath  string
	sheetName  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "xlcalc",
	Short: "Evaluate spreadsheet formulas stored in an xlsx workbook",
	Long: `xlcalc keeps spreadsheets of numeric formulas in an xlsx workbook, one
worksheet per spreadsheet, and recomputes every dependent cell after a change.

Formulas use + - * / with parentheses, min(a, b) and max(a, b), and cell
references such as B1, $B1, B$1 and $B$1. A leading "=" is optional.

Examples:
  xlcalc eval A1 5
  xlcalc eval B1 "=A1 * 2"
  xlcalc copy C1 B1
  xlcalc dump --values`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Workbook path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&sheetName, "sheet", "s", "", "Spreadsheet name (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log transactions to stderr")
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if kind := xlcalc.KindOf(err); kind != "" {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}
	return 0
}

// session is what every subcommand works against.
type session struct {
	svc   *xlcalc.Services
	sheet string
}

func openSession() (*session, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storePath != "" {
		cfg.Store = storePath
	}
	if sheetName != "" {
		cfg.Sheet = sheetName
	}
	if verbose {
		cfg.Verbose = true
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(os.Stderr, "xlcalc: ", log.LstdFlags)
	}
	store := xlcalc.NewXLSXStore(cfg.Store, cfg.LockTimeout.Duration)
	return &session{
		svc:   xlcalc.NewServices(store, xlcalc.WithLogger(logger)),
		sheet: cfg.Sheet,
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printUpdates prints updates even when err is an EVAL failure, since the
// formula was committed and those values are current.
func printUpdates(cmd *cobra.Command, updates xlcalc.Updates, err error) error {
	if updates != nil {
		if perr := printJSON(cmd.OutOrStdout(), updates); perr != nil {
			return perr
		}
	}
	return err
}
