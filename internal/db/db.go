// Package db provides PostgreSQL storage for analysis runs and their step artifacts.
package db

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-optimizer/internal/types"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate applies the embedded schema files in name order. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}
	return nil
}

// CreateRun creates a new analysis run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, inputHash string, tier types.Tier, mode types.AnalysisMode) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO analysis_runs (input_hash, tier, analysis_mode, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		inputHash, string(tier), string(mode), RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as finished. errMessage is stored only when non-empty.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status, errMessage string) error {
	var msg *string
	if errMessage != "" {
		msg = &errMessage
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE analysis_runs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		status, msg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveArtifact stores a JSON artifact for a run, replacing any earlier one for the same step
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error {
	jsonBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO run_artifacts (run_id, step, category, content)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = $3, content = $4, created_at = NOW()`,
		runID, step, category, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", step, err)
	}
	return nil
}

// GetArtifact retrieves a JSON artifact by run ID and step. A missing artifact is (nil, nil).
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	err := db.pool.QueryRow(ctx,
		`SELECT content FROM run_artifacts WHERE run_id = $1 AND step = $2`,
		runID, step,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return content, nil
}

// GetResult loads the final analysis result of a run
func (db *DB) GetResult(ctx context.Context, runID uuid.UUID) (*types.AnalysisResult, error) {
	content, err := db.GetArtifact(ctx, runID, StepResult)
	if err != nil || content == nil {
		return nil, err
	}
	return decodeResult(content)
}

func decodeResult(content []byte) (*types.AnalysisResult, error) {
	var result types.AnalysisResult
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis result: %w", err)
	}
	return &result, nil
}

// ListArtifacts returns every artifact of a run in creation order
func (db *DB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, category, content, created_at
		 FROM run_artifacts WHERE run_id = $1 ORDER BY created_at ASC, step ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Step, &a.Category, &a.Content, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

const runColumns = `id, input_hash, tier, analysis_mode, status, error_message, created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.InputHash, &run.Tier, &run.AnalysisMode, &run.Status,
		&run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID. A missing run is (nil, nil).
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	InputHash string
	Status    string
	Limit     int
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	query, args := buildListRunsQuery(filters)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func buildListRunsQuery(filters RunFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.InputHash != "" {
		query += fmt.Sprintf(" AND input_hash = $%d", argNum)
		args = append(args, filters.InputHash)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

// ErrRunNotFound is returned when a run id matches no row.
var ErrRunNotFound = errors.New("run not found")

// DeleteRun deletes a run and all its artifacts (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM analysis_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
