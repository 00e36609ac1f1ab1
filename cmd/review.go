package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/review"
)

// queueCSVPath names the CSV twin of the queue JSON file.
func queueCSVPath(queuePath string) string {
	return strings.TrimSuffix(queuePath, filepath.Ext(queuePath)) + ".csv"
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Human-review queue tools",
	Long:  "Selects annotated rows for human review, serves the browser review form, and manages review state.",
}

// -- review select --

var (
	selectInput   string
	selectOutput  string
	selectQueue   string
	selectSeed    int64
	selectConfThr float64
)

var reviewSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Flag annotated rows for human review and build the queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := dataset.ReadCSV(selectInput)
		if err != nil {
			return err
		}
		if err := table.RequireColumns("usertext", "label", "confidence"); err != nil {
			return err
		}

		threshold := selectConfThr
		if threshold == 0 {
			threshold = cfg.Review.ConfidenceThreshold
		}
		seed := selectSeed
		if seed == 0 {
			seed = cfg.Review.Seed
		}

		flagged := review.Select(table.Rows, review.SelectConfig{
			ConfidenceThreshold: threshold,
			CrisisSampleFrac:    cfg.Review.CrisisSampleFrac,
			RandomSampleFrac:    cfg.Review.RandomSampleFrac,
			Seed:                seed,
		})

		header := dataset.FlaggedColumns
		if !table.HasColumn("title") {
			header = header[1:]
		}
		if err := dataset.WriteCSV(selectOutput, header, table.Rows); err != nil {
			return err
		}

		queue := review.BuildQueue(table.Rows)
		if err := dataset.WriteJSON(selectQueue, queue); err != nil {
			return err
		}

		// The queue subset also goes out as a CSV for spreadsheet review.
		queueCSV := queueCSVPath(selectQueue)
		qHeader := dataset.QueueColumns
		if !table.HasColumn("title") {
			qHeader = qHeader[1:]
		}
		if err := dataset.WriteCSV(queueCSV, qHeader, queue); err != nil {
			return err
		}

		zap.L().Info("review selection complete",
			zap.Int("rows", len(table.Rows)),
			zap.Int("flagged", flagged),
			zap.String("flagged_csv", selectOutput),
			zap.String("queue", selectQueue),
			zap.String("queue_csv", queueCSV),
		)
		fmt.Printf("Flagged %d of %d rows for human review.\n", flagged, len(table.Rows))
		return nil
	},
}

// -- review reset --

var (
	resetQueue  string
	resetOutput string
	resetYes    bool
)

var reviewResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every saved human label",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to clear reviews without --yes")
		}

		session, err := review.OpenSession(resetQueue, resetOutput)
		if err != nil {
			return err
		}
		if err := session.Reset(); err != nil {
			return err
		}
		zap.L().Warn("all reviews cleared", zap.String("output", resetOutput))
		return nil
	},
}

func init() {
	reviewSelectCmd.Flags().StringVar(&selectInput, "input", "", "annotated CSV (required)")
	reviewSelectCmd.Flags().StringVar(&selectOutput, "output", "flagged.csv", "full dataset with review flags")
	reviewSelectCmd.Flags().StringVar(&selectQueue, "queue", "review_queue.json", "review queue JSON for the form server")
	reviewSelectCmd.Flags().Int64Var(&selectSeed, "seed", 0, "sampling seed (default from config)")
	reviewSelectCmd.Flags().Float64Var(&selectConfThr, "confidence-threshold", 0, "flag rows below this confidence (default from config)")
	_ = reviewSelectCmd.MarkFlagRequired("input")

	reviewResetCmd.Flags().StringVar(&resetQueue, "queue", "review_queue.json", "review queue JSON")
	reviewResetCmd.Flags().StringVar(&resetOutput, "output", "reviewed.json", "reviewed output JSON")
	reviewResetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the destructive reset")

	reviewCmd.AddCommand(reviewSelectCmd)
	reviewCmd.AddCommand(reviewResetCmd)
	rootCmd.AddCommand(reviewCmd)
}
