package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/model"
	"github.com/crisislab/triage-cli/internal/split"
)

var (
	splitInput  string
	splitOutDir string
	splitSeed   int64
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Partition a frozen dataset into train/dev/test",
	Long:  "Stratified by final_label so each part keeps the label proportions. Deterministic for a given seed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := dataset.ReadCSV(splitInput)
		if err != nil {
			return err
		}
		if err := table.RequireColumns("usertext", "final_label"); err != nil {
			return err
		}

		seed := splitSeed
		if seed == 0 {
			seed = cfg.Split.Seed
		}

		parts, err := split.Apply(table.Rows, split.Config{
			TrainFrac: cfg.Split.TrainFrac,
			DevFrac:   cfg.Split.DevFrac,
			Seed:      seed,
		})
		if err != nil {
			return err
		}

		header := dataset.FrozenColumns
		if !table.HasColumn("title") {
			header = header[1:]
		}

		base := strings.TrimSuffix(filepath.Base(splitInput), filepath.Ext(splitInput))
		for _, part := range []struct {
			name string
			rows []model.Row
		}{
			{"train", parts.Train},
			{"dev", parts.Dev},
			{"test", parts.Test},
		} {
			path := filepath.Join(splitOutDir, fmt.Sprintf("%s_%s.csv", base, part.name))
			if err := dataset.WriteCSV(path, header, part.rows); err != nil {
				return err
			}
			fmt.Printf("%-6s %6d rows -> %s\n", part.name, len(part.rows), path)
			for _, l := range model.AllLabels() {
				n := split.Distribution(part.rows)[string(l)]
				if n > 0 {
					fmt.Printf("    %-4s %6d\n", l, n)
				}
			}
		}

		zap.L().Info("split complete",
			zap.Int("train", len(parts.Train)),
			zap.Int("dev", len(parts.Dev)),
			zap.Int("test", len(parts.Test)),
		)
		return nil
	},
}

func init() {
	splitCmd.Flags().StringVar(&splitInput, "input", "", "frozen CSV (required)")
	splitCmd.Flags().StringVar(&splitOutDir, "out-dir", ".", "directory for the three output CSVs")
	splitCmd.Flags().Int64Var(&splitSeed, "seed", 0, "shuffle seed (default from config)")
	_ = splitCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(splitCmd)
}
