package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisislab/triage-cli/internal/model"
)

func TestJSON_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	rows := []model.Row{
		{UserText: "hello", Label: "A1", Confidence: 0.4, NeedsHumanReview: true, ReviewReason: "low_confidence"},
		{UserText: "world", Label: "A3", Confidence: 0.9, NeedsHumanReview: true, ReviewReason: "A3_sample", HumanLabel: "A2", AnnotatorNotes: "overstated"},
	}

	require.NoError(t, WriteJSON(path, rows))

	loaded, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)
}

func TestWriteJSON_NilBecomesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, WriteJSON(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWriteJSON_ZeroConfidenceSurvives(t *testing.T) {
	// Sentinel rows carry confidence 0; the queue file must keep the
	// field so the form can display it.
	path := filepath.Join(t.TempDir(), "queue.json")
	require.NoError(t, WriteJSON(path, []model.Row{{UserText: "x", Label: "A0", Confidence: 0}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"confidence": 0`)
}

func TestReadJSON_Missing(t *testing.T) {
	_, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
