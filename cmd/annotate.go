package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/annotator"
	"github.com/crisislab/triage-cli/internal/cost"
	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/model"
	"github.com/crisislab/triage-cli/internal/store"
	"github.com/crisislab/triage-cli/pkg/anthropic"
)

var (
	annotateInput  string
	annotateOutput string
	annotateModel  string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Annotate a message dataset with actionability labels",
	Long:  "Sends each usertext to Claude for classification. Interrupting with Ctrl-C checkpoints completed rows; rerunning resumes where it left off.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic API key is required (TRIAGE_ANTHROPIC_KEY)")
		}

		table, err := dataset.ReadCSV(annotateInput)
		if err != nil {
			return err
		}
		if err := table.RequireColumns("usertext"); err != nil {
			return err
		}
		zap.L().Info("loaded dataset", zap.String("input", annotateInput), zap.Int("rows", len(table.Rows)))

		modelID := cfg.Anthropic.Model
		if annotateModel != "" {
			modelID = annotateModel
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		var run *model.AnnotationRun
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			run, err = st.CreateRun(ctx, model.AnnotationRun{
				InputPath:  annotateInput,
				OutputPath: annotateOutput,
				Model:      modelID,
				RowsTotal:  len(table.Rows),
			})
			if err != nil {
				return err
			}
		}

		ann := annotator.New(anthropic.NewClient(cfg.Anthropic.Key), annotator.Config{
			Model:           modelID,
			BatchSize:       cfg.Annotate.BatchSize,
			MaxRetries:      cfg.Annotate.MaxRetries,
			RetryDelay:      secs(cfg.Annotate.RetryDelaySecs),
			RequestDelay:    secs(cfg.Annotate.RequestDelaySecs),
			RequestTimeout:  time.Duration(cfg.Annotate.RequestTimeoutSecs) * time.Second,
			CheckpointEvery: cfg.Annotate.CheckpointEvery,
			CheckpointFile:  cfg.Annotate.CheckpointFile,
			ProgressFile:    cfg.Annotate.ProgressFile,
		})

		results, runErr := ann.Run(ctx, table.Rows)
		counts := countResults(len(table.Rows), results)

		if runErr != nil {
			recordRun(st, run, model.RunStatusInterrupted, counts)
			if errors.Is(runErr, annotator.ErrInterrupted) {
				zap.L().Warn("annotation interrupted; progress checkpointed",
					zap.Int("completed", counts.Completed),
					zap.Int("total", counts.Total),
				)
				fmt.Fprintln(os.Stderr, "Interrupted. Rerun the same command to resume.")
				return nil
			}
			return runErr
		}

		mergeAnnotations(table.Rows, results)
		if err := dataset.WriteCSV(annotateOutput, annotatedHeader(table), table.Rows); err != nil {
			recordRun(st, run, model.RunStatusFailed, counts)
			return err
		}
		ann.Clear()
		recordRun(st, run, model.RunStatusComplete, counts)

		usage := ann.Usage()
		spend := cost.NewCalculator(cost.DefaultRates()).Claude(modelID, usage.InputTokens, usage.OutputTokens)
		zap.L().Info("annotation complete",
			zap.String("output", annotateOutput),
			zap.Int("rows", counts.Completed),
			zap.Int("content_filtered", counts.Filtered),
			zap.Int("failed", counts.Failed),
			zap.Int64("input_tokens", usage.InputTokens),
			zap.Int64("output_tokens", usage.OutputTokens),
			zap.Float64("est_cost_usd", spend),
		)
		printDistribution(table.Rows)
		return nil
	},
}

func init() {
	annotateCmd.Flags().StringVar(&annotateInput, "input", "", "input CSV with a usertext column (required)")
	annotateCmd.Flags().StringVar(&annotateOutput, "output", "annotated.csv", "output CSV path")
	annotateCmd.Flags().StringVar(&annotateModel, "model", "", "model override (default from config)")
	_ = annotateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(annotateCmd)
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// mergeAnnotations writes each annotation back onto its source row.
func mergeAnnotations(rows []model.Row, results []model.Annotation) {
	for _, a := range results {
		if a.OriginalIndex < 0 || a.OriginalIndex >= len(rows) {
			zap.L().Warn("annotation index out of range", zap.Int("index", a.OriginalIndex))
			continue
		}
		rows[a.OriginalIndex].Label = string(a.Label)
		rows[a.OriginalIndex].Confidence = a.Confidence
		rows[a.OriginalIndex].Rationale = a.Rationale
	}
}

// annotatedHeader keeps a title column only when the input carried one.
func annotatedHeader(table *dataset.Table) []string {
	if table.HasColumn("title") {
		return dataset.AnnotatedColumns
	}
	return dataset.AnnotatedColumns[1:]
}

func countResults(total int, results []model.Annotation) store.RunCounts {
	c := store.RunCounts{Total: total, Completed: len(results)}
	for _, a := range results {
		switch {
		case a.Rationale == model.RationaleContentFiltered:
			c.Filtered++
		case a.Rationale == model.RationaleParseError,
			strings.HasPrefix(a.Rationale, "Failed after"):
			c.Failed++
		}
	}
	return c
}

// recordRun updates the optional run record; failures only lose audit
// history, never annotation work.
func recordRun(st store.Store, run *model.AnnotationRun, status model.RunStatus, counts store.RunCounts) {
	if st == nil || run == nil {
		return
	}
	// Fresh context: the signal context is already cancelled when the
	// run was interrupted.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.UpdateRun(ctx, run.ID, status, counts); err != nil {
		zap.L().Warn("run record update failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func printDistribution(rows []model.Row) {
	dist := map[string]int{}
	for _, r := range rows {
		dist[r.Label]++
	}
	fmt.Println("Label distribution:")
	for _, l := range model.AllLabels() {
		n := dist[string(l)]
		fmt.Printf("  %-4s %6d  (%.1f%%)\n", l, n, float64(n)/float64(len(rows))*100)
	}
}
