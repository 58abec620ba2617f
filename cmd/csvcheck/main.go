package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/csvcheck/internal/core"
	"github.com/JonMunkholm/csvcheck/internal/logging"
	"github.com/JonMunkholm/csvcheck/internal/sample"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "csvcheck [sub]",
	Short:         "Validate employee CSV files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logLevel, "text")
	},
}

// errFailed signals a failing report; the report itself is already printed.
var errFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a CSV file and print the JSON report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		report := core.ValidateCSV(data)
		slog.Debug("validated file", "file", args[0], "bytes", len(data), "status", report.Status, "errors", len(report.Errors))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if !report.Passed() {
			return errFailed
		}
		return nil
	},
}

var genOpts struct {
	rows         int
	out          string
	seed         uint64
	invalidRatio float64
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a sample employee CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := sample.Options{
			Rows:         genOpts.rows,
			Seed:         genOpts.seed,
			InvalidRatio: genOpts.invalidRatio,
		}

		if genOpts.out == "" || genOpts.out == "-" {
			_, err := sample.Generate(cmd.OutOrStdout(), opts)
			return err
		}

		f, err := os.Create(genOpts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", genOpts.out, err)
		}
		defer f.Close()

		bw := bufio.NewWriter(f)
		stats, err := sample.Generate(bw, opts)
		if err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("write %s: %w", genOpts.out, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", genOpts.out, err)
		}
		slog.Info("sample generated", "rows", stats.Rows, "invalid", stats.Invalid, "out", genOpts.out)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	generateCmd.Flags().IntVar(&genOpts.rows, "rows", 1000, "number of data rows")
	generateCmd.Flags().StringVarP(&genOpts.out, "out", "o", "", "output file (default stdout)")
	generateCmd.Flags().Uint64Var(&genOpts.seed, "seed", 42, "random seed")
	generateCmd.Flags().Float64Var(&genOpts.invalidRatio, "invalid-ratio", 0, "fraction of rows with an empty email or bad age")

	rootCmd.AddCommand(validateCmd, generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
