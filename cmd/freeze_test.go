package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/model"
)

func TestReadReviewed_MissingFileIsEmpty(t *testing.T) {
	reviewed, err := readReviewed(filepath.Join(t.TempDir(), "reviewed.json"))
	require.NoError(t, err)
	assert.Nil(t, reviewed)
}

func TestReadReviewed_Existing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviewed.json")
	require.NoError(t, dataset.WriteJSON(path, []model.Row{
		{UserText: "msg", Label: "A1", HumanLabel: "A2"},
	}))

	reviewed, err := readReviewed(path)
	require.NoError(t, err)
	require.Len(t, reviewed, 1)
	assert.Equal(t, "A2", reviewed[0].HumanLabel)
}

func TestFreeze_MissingReviewedPassesModelLabelsThrough(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "annotated.csv")
	output := filepath.Join(dir, "frozen.csv")
	require.NoError(t, dataset.WriteCSV(input, dataset.AnnotatedColumns, []model.Row{
		{Title: "t1", UserText: "first message", Label: "A1", Confidence: 0.9},
		{Title: "t2", UserText: "second message", Label: "A3", Confidence: 0.8},
	}))

	freezeInput = input
	freezeReviewed = filepath.Join(dir, "reviewed.json") // never written
	freezeOutput = output
	freezeArchive = ""

	require.NoError(t, freezeCmd.RunE(freezeCmd, nil))

	table, err := dataset.ReadCSV(output)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "A1", table.Rows[0].FinalLabel)
	assert.Equal(t, "A3", table.Rows[1].FinalLabel)
}
