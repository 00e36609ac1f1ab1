package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisislab/triage-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_CreateAndGetRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, model.AnnotationRun{
		InputPath:  "messages.csv",
		OutputPath: "annotated.csv",
		Model:      "claude-haiku-4-5-20251001",
		RowsTotal:  120,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.RunStatusRunning, created.Status)

	got, err := s.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "messages.csv", got.InputPath)
	assert.Equal(t, "annotated.csv", got.OutputPath)
	assert.Equal(t, 120, got.RowsTotal)
}

func TestSQLite_UpdateRun(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	created, err := s.CreateRun(ctx, model.AnnotationRun{
		InputPath: "in.csv", OutputPath: "out.csv", Model: "m", RowsTotal: 10,
	})
	require.NoError(t, err)

	err = s.UpdateRun(ctx, created.ID, model.RunStatusComplete, RunCounts{
		Total: 10, Completed: 10, Filtered: 1, Failed: 0,
	})
	require.NoError(t, err)

	got, err := s.GetRun(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 10, got.RowsCompleted)
	assert.Equal(t, 1, got.RowsFiltered)
}

func TestSQLite_UpdateRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpdateRun(context.Background(), "missing", model.RunStatusComplete, RunCounts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListRuns(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx, model.AnnotationRun{InputPath: "a.csv", OutputPath: "a_out.csv", Model: "haiku"})
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, model.AnnotationRun{InputPath: "b.csv", OutputPath: "b_out.csv", Model: "sonnet"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateRun(ctx, first.ID, model.RunStatusComplete, RunCounts{}))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	complete, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, first.ID, complete[0].ID)

	sonnet, err := s.ListRuns(ctx, RunFilter{Model: "sonnet"})
	require.NoError(t, err)
	require.Len(t, sonnet, 1)
	assert.Equal(t, "b.csv", sonnet[0].InputPath)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
