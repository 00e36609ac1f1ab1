package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisislab/triage-cli/internal/config"
	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/model"
)

func TestQueueCSVPath(t *testing.T) {
	assert.Equal(t, "review_queue.csv", queueCSVPath("review_queue.json"))
	assert.Equal(t, "out/queue.csv", queueCSVPath("out/queue.json"))
	assert.Equal(t, "queue.csv", queueCSVPath("queue"))
}

func TestReviewSelect_WritesQueueCSVAndJSON(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "annotated.csv")
	require.NoError(t, dataset.WriteCSV(input, dataset.AnnotatedColumns, []model.Row{
		{Title: "t1", UserText: "uncertain message", Label: "A1", Confidence: 0.3},
		{Title: "t2", UserText: "confident message", Label: "A0", Confidence: 0.95},
	}))

	cfg = &config.Config{Review: config.ReviewConfig{
		ConfidenceThreshold: 0.70,
		Seed:                42,
	}}
	selectInput = input
	selectOutput = filepath.Join(dir, "flagged.csv")
	selectQueue = filepath.Join(dir, "review_queue.json")
	selectSeed = 0
	selectConfThr = 0

	require.NoError(t, reviewSelectCmd.RunE(reviewSelectCmd, nil))

	queueJSON, err := dataset.ReadJSON(selectQueue)
	require.NoError(t, err)
	require.Len(t, queueJSON, 1)
	assert.Equal(t, "uncertain message", queueJSON[0].UserText)

	// The queue subset goes out as a CSV twin of the JSON.
	queueTable, err := dataset.ReadCSV(filepath.Join(dir, "review_queue.csv"))
	require.NoError(t, err)
	require.NoError(t, queueTable.RequireColumns("human_label", "annotator_notes"))
	require.Len(t, queueTable.Rows, 1)
	assert.Equal(t, "uncertain message", queueTable.Rows[0].UserText)
	assert.True(t, queueTable.Rows[0].NeedsHumanReview)

	flaggedTable, err := dataset.ReadCSV(selectOutput)
	require.NoError(t, err)
	assert.Len(t, flaggedTable.Rows, 2)
}
