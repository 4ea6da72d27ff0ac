package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"soilmon/internal/app"
	"soilmon/internal/modules/soil/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write readings between two days as CSV",
	Example: `  soilmon export --start 2024-01-01 --end 2024-01-31 --out january.csv
  soilmon export --start 2024-01-01 --end 2024-01-01 > today.csv`,
	RunE: runExport,
}

var (
	exportStart  string
	exportEnd    string
	exportOut    string
	exportVerify bool
)

func init() {
	exportCmd.Flags().StringVar(&exportStart, "start", "", "first day, YYYY-MM-DD (required)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "last day, YYYY-MM-DD (required)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportVerify, "verify", false, "re-read the written file and check the record count")
	_ = exportCmd.MarkFlagRequired("start")
	_ = exportCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if exportVerify && exportOut == "" {
		return fmt.Errorf("--verify needs --out")
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}

	n, err := app.Export(cmd.Context(), cfg, logger, exportStart, exportEnd, w)
	if err != nil {
		return err
	}
	logger.Info("export finished", "start", exportStart, "end", exportEnd, "records", n, "out", exportOut)

	if exportVerify {
		return verifyExport(exportOut, n)
	}
	return nil
}

func verifyExport(path string, want int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := export.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if len(records) != want {
		return fmt.Errorf("verify %s: read %d records, wrote %d", path, len(records), want)
	}
	return nil
}
