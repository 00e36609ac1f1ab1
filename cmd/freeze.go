package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/freeze"
	"github.com/crisislab/triage-cli/internal/model"
)

// readReviewed loads the reviewed JSON. A missing file is not an error:
// freezing an unreviewed dataset passes the model labels through.
func readReviewed(path string) ([]model.Row, error) {
	reviewed, err := dataset.ReadJSON(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("reviewed file not found, model labels pass through unchanged",
			zap.String("reviewed", path))
		return nil, nil
	}
	return reviewed, err
}

var (
	freezeInput    string
	freezeReviewed string
	freezeOutput   string
	freezeArchive  string
)

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Merge human reviews and lock in final labels",
	Long:  "Joins the reviewed JSON onto the annotated dataset by usertext and writes final_label for every row. Aborts without writing if any final label would fall outside the label set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		table, err := dataset.ReadCSV(freezeInput)
		if err != nil {
			return err
		}
		if err := table.RequireColumns("usertext", "label"); err != nil {
			return err
		}

		reviewed, err := readReviewed(freezeReviewed)
		if err != nil {
			return err
		}

		res, err := freeze.Apply(table.Rows, reviewed)
		if err != nil {
			return err
		}

		header := dataset.FrozenColumns
		if !table.HasColumn("title") {
			header = header[1:]
		}
		if err := dataset.WriteCSV(freezeOutput, header, table.Rows); err != nil {
			return err
		}

		zap.L().Info("labels frozen",
			zap.String("output", freezeOutput),
			zap.Int("rows", res.Total),
			zap.Int("human_overrides", res.Overridden),
			zap.Int("reviewed", res.ReviewedTotal),
			zap.Int("unmatched_reviews", res.Unmatched),
		)

		fmt.Printf("Froze %d rows (%d human overrides).\nFinal label distribution:\n", res.Total, res.Overridden)
		for _, l := range model.AllLabels() {
			n := res.Distribution[string(l)]
			fmt.Printf("  %-4s %6d  (%.1f%%)\n", l, n, float64(n)/float64(res.Total)*100)
		}

		if freezeArchive != "" {
			st, err := requireStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			archiver, ok := st.(interface {
				ArchiveFrozen(ctx context.Context, dataset string, rows []model.Row) (int64, error)
			})
			if !ok {
				return fmt.Errorf("store driver %q cannot archive datasets (postgres only)", cfg.Store.Driver)
			}
			n, err := archiver.ArchiveFrozen(ctx, freezeArchive, table.Rows)
			if err != nil {
				return err
			}
			zap.L().Info("frozen dataset archived", zap.String("dataset", freezeArchive), zap.Int64("rows", n))
		}
		return nil
	},
}

func init() {
	freezeCmd.Flags().StringVar(&freezeInput, "input", "", "annotated or flagged CSV (required)")
	freezeCmd.Flags().StringVar(&freezeReviewed, "reviewed", "reviewed.json", "reviewed output JSON from the form server")
	freezeCmd.Flags().StringVar(&freezeOutput, "output", "frozen.csv", "frozen output CSV")
	freezeCmd.Flags().StringVar(&freezeArchive, "archive", "", "archive the frozen dataset under this name (postgres store)")
	_ = freezeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(freezeCmd)
}
