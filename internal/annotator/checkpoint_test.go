package annotator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisislab/triage-cli/internal/model"
)

func TestCheckpoint_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	completed := map[int]bool{4: true, 0: true, 2: true}
	require.NoError(t, SaveCheckpoint(path, completed))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, completed, loaded)
}

func TestLoadCheckpoint_Missing(t *testing.T) {
	loaded, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadCheckpoint_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadCheckpoint(path)
	assert.Error(t, err)
}

func TestProgress_SaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")

	results := []model.Annotation{
		{OriginalIndex: 0, Label: model.LabelA1, Confidence: 0.9, Rationale: "monitoring signs"},
		{OriginalIndex: 3, Label: model.LabelA3, Confidence: 0.95, Rationale: "explicit plan, commas included"},
	}
	require.NoError(t, SaveProgress(path, results))

	loaded, err := LoadProgress(path)
	require.NoError(t, err)
	assert.Equal(t, results, loaded)
}

func TestLoadProgress_Missing(t *testing.T) {
	loaded, err := LoadProgress(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestClearCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cp := filepath.Join(dir, "checkpoint.json")
	pg := filepath.Join(dir, "progress.csv")

	require.NoError(t, SaveCheckpoint(cp, map[int]bool{0: true}))
	require.NoError(t, SaveProgress(pg, []model.Annotation{{Label: model.LabelA0}}))

	ClearCheckpoint(cp, pg)

	_, err := os.Stat(cp)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(pg)
	assert.True(t, os.IsNotExist(err))

	// Clearing again is a no-op.
	ClearCheckpoint(cp, pg)
}
