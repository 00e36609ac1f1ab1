package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/db"
	"github.com/crisislab/triage-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run": `INSERT INTO annotation_runs (id, input_path, output_path, model, status, rows_total, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"update_run": `UPDATE annotation_runs SET status = $1, rows_total = $2, rows_completed = $3, rows_filtered = $4, rows_failed = $5, updated_at = $6 WHERE id = $7`,
	"get_run":    `SELECT id, input_path, output_path, model, status, rows_total, rows_completed, rows_filtered, rows_failed, created_at, updated_at FROM annotation_runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS annotation_runs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input_path     TEXT NOT NULL,
	output_path    TEXT NOT NULL,
	model          TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'running',
	rows_total     INTEGER NOT NULL DEFAULT 0,
	rows_completed INTEGER NOT NULL DEFAULT 0,
	rows_filtered  INTEGER NOT NULL DEFAULT 0,
	rows_failed    INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_annotation_runs_status ON annotation_runs(status);
CREATE INDEX IF NOT EXISTS idx_annotation_runs_model ON annotation_runs(model);

CREATE TABLE IF NOT EXISTS frozen_rows (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	dataset     TEXT NOT NULL,
	title       TEXT,
	usertext    TEXT NOT NULL,
	label       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	human_label TEXT,
	final_label TEXT NOT NULL,
	archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_frozen_rows_dataset ON frozen_rows(dataset);
CREATE INDEX IF NOT EXISTS idx_frozen_rows_final_label ON frozen_rows(final_label);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.AnnotationRun) (*model.AnnotationRun, error) {
	run.ID = uuid.New().String()
	run.Status = model.RunStatusRunning
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO annotation_runs (id, input_path, output_path, model, status, rows_total, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.InputPath, run.OutputPath, run.Model, string(run.Status), run.RowsTotal, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &run, nil
}

func (s *PostgresStore) UpdateRun(ctx context.Context, runID string, status model.RunStatus, counts RunCounts) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE annotation_runs
		 SET status = $1, rows_total = $2, rows_completed = $3, rows_filtered = $4, rows_failed = $5, updated_at = $6
		 WHERE id = $7`,
		string(status), counts.Total, counts.Completed, counts.Filtered, counts.Failed,
		time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.AnnotationRun, error) {
	var r model.AnnotationRun
	err := s.pool.QueryRow(ctx,
		`SELECT id, input_path, output_path, model, status, rows_total, rows_completed, rows_filtered, rows_failed, created_at, updated_at
		 FROM annotation_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Model, &r.Status,
		&r.RowsTotal, &r.RowsCompleted, &r.RowsFiltered, &r.RowsFailed,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AnnotationRun, error) {
	query := `SELECT id, input_path, output_path, model, status, rows_total, rows_completed, rows_filtered, rows_failed, created_at, updated_at
	          FROM annotation_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Model != "" {
		query += fmt.Sprintf(` AND model = $%d`, argIdx)
		args = append(args, filter.Model)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AnnotationRun
	for rows.Next() {
		var r model.AnnotationRun
		if err := rows.Scan(&r.ID, &r.InputPath, &r.OutputPath, &r.Model, &r.Status,
			&r.RowsTotal, &r.RowsCompleted, &r.RowsFiltered, &r.RowsFailed,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var frozenColumns = []string{"id", "dataset", "title", "usertext", "label", "confidence", "human_label", "final_label", "archived_at"}

// ArchiveFrozen bulk-loads a frozen dataset via the COPY protocol for
// downstream querying. Previous archives under the same name are
// replaced.
func (s *PostgresStore) ArchiveFrozen(ctx context.Context, dataset string, rows []model.Row) (int64, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM frozen_rows WHERE dataset = $1`, dataset); err != nil {
		return 0, eris.Wrapf(err, "postgres: clear archive %s", dataset)
	}

	now := time.Now().UTC()
	records := make([][]any, 0, len(rows))
	for _, row := range rows {
		records = append(records, []any{
			uuid.New().String(), dataset, row.Title, row.UserText,
			row.Label, row.Confidence, row.HumanLabel, row.FinalLabel, now,
		})
	}
	return db.CopyFrom(ctx, s.pool, "frozen_rows", frozenColumns, records)
}

// FrozenDistribution reports final-label counts for an archived dataset.
func (s *PostgresStore) FrozenDistribution(ctx context.Context, dataset string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT final_label, COUNT(*) FROM frozen_rows WHERE dataset = $1 GROUP BY final_label`,
		dataset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: frozen distribution %s", dataset)
	}
	defer rows.Close()

	dist := map[string]int{}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan distribution")
		}
		dist[label] = n
	}
	if errors.Is(rows.Err(), pgx.ErrNoRows) {
		return dist, nil
	}
	return dist, eris.Wrap(rows.Err(), "postgres: frozen distribution iterate")
}
