package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crisislab/triage-cli/internal/analysis"
	"github.com/crisislab/triage-cli/internal/dataset"
)

var (
	analyzeInput string
	analyzeOut   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report dataset statistics and human/model agreement",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := dataset.ReadCSV(analyzeInput)
		if err != nil {
			return err
		}
		if err := table.RequireColumns("usertext", "label"); err != nil {
			return err
		}

		report := analysis.Analyze(table.Rows)
		report.Render(os.Stdout)

		if analyzeOut != "" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal report")
			}
			if err := os.WriteFile(analyzeOut, data, 0o644); err != nil {
				return eris.Wrapf(err, "write report %s", analyzeOut)
			}
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "annotated, flagged, or frozen CSV (required)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "also write the report as JSON to this path")
	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
