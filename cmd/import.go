package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/dataset"
)

var (
	importXLSXPath string
	importOutput   string
	importSheet    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert an XLSX export into the pipeline's CSV format",
	Long:  "Reads a spreadsheet whose first row names the columns and writes a CSV the annotate command accepts. The sheet must carry a usertext column.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := dataset.ReadXLSX(importXLSXPath, dataset.XLSXOptions{SheetName: importSheet})
		if err != nil {
			return err
		}
		if err := table.RequireColumns("usertext"); err != nil {
			return err
		}

		header := dataset.InputColumns
		if !table.HasColumn("title") {
			header = header[1:]
		}
		if err := dataset.WriteCSV(importOutput, header, table.Rows); err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("xlsx", importXLSXPath),
			zap.String("output", importOutput),
			zap.Int("rows", len(table.Rows)),
		)
		fmt.Printf("Imported %d rows to %s.\n", len(table.Rows), importOutput)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importXLSXPath, "xlsx", "", "path to XLSX file (required)")
	importCmd.Flags().StringVar(&importOutput, "output", "input.csv", "output CSV path")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "sheet name (default first sheet)")
	_ = importCmd.MarkFlagRequired("xlsx")
	rootCmd.AddCommand(importCmd)
}
