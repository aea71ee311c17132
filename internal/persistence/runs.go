package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/adrg/internal/scheduler"
)

// Run is one kickoff as recorded in the ledger.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time // Zero while the run is in progress or was interrupted
	Outcome    string    // "running" until FinishRun is called
	Error      string
	TaskIDs    []string // In scheduling order
}

// Finished reports whether FinishRun was recorded.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// TaskRecord is one persisted TaskResult.
type TaskRecord struct {
	RunID      string
	TaskID     string
	Agent      string
	Status     string
	OutputPath string
	Error      string
	Metadata   map[string]any
	StartedAt  time.Time
	Duration   time.Duration
}

// StartRun records a new run and the tasks it will schedule.
func (s *SQLiteStore) StartRun(ctx context.Context, runID string, taskIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, outcome)
		VALUES (?, ?, 'running')
	`, runID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", runID, err)
	}

	for i, taskID := range taskIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_tasks (run_id, task_id, position)
			VALUES (?, ?, ?)
		`, runID, taskID, i); err != nil {
			return fmt.Errorf("failed to insert task %s: %w", taskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecordResult stores the terminal result of one task. A task has at most
// one result per run.
func (s *SQLiteStore) RecordResult(ctx context.Context, runID string, result scheduler.TaskResult) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	metadata, err := json.Marshal(result.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for %s: %w", result.TaskID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_results (run_id, task_id, agent, status, output_path, error, metadata, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		result.TaskID,
		result.Agent,
		result.Status.String(),
		nullString(result.OutputPath),
		nullString(result.Error),
		string(metadata),
		result.StartedAt.UTC(),
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record result for %s: %w", result.TaskID, err)
	}

	return nil
}

// FinishRun marks a run finished with its outcome and run-level error, if any.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID, outcome string, runErr error) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, outcome = ?, error = ?
		WHERE id = ?
	`, time.Now().UTC(), outcome, errText, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}

	return nil
}

// GetRun retrieves a run by ID.
// Returns a wrapped sql.ErrNoRows if the run does not exist.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, outcome, error
		FROM runs
		WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q not found: %w", runID, err)
	}
	if err != nil {
		return nil, err
	}

	if run.TaskIDs, err = s.runTaskIDs(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if limit <= 0 {
		limit = -1
	}

	// Runs are inserted as they start, so rowid order is start order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, outcome, error
		FROM runs
		ORDER BY rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	runs := []*Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	rows.Close()

	// Task lists are loaded after the cursor is closed to free its connection.
	for _, run := range runs {
		if run.TaskIDs, err = s.runTaskIDs(ctx, run.ID); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

// GetRunResults returns the recorded results of a run in the order they were
// produced. Returns an empty slice (not nil) if nothing was recorded.
func (s *SQLiteStore) GetRunResults(ctx context.Context, runID string) ([]TaskRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, task_id, agent, status, output_path, error, metadata, started_at, duration_ms
		FROM task_results
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	records := []TaskRecord{}
	for rows.Next() {
		var rec TaskRecord
		var outputPath, errText, metadata sql.NullString
		var durationMS int64
		if err := rows.Scan(&rec.RunID, &rec.TaskID, &rec.Agent, &rec.Status, &outputPath, &errText, &metadata, &rec.StartedAt, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		rec.OutputPath = outputPath.String
		rec.Error = errText.String
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Metadata = map[string]any{}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", rec.TaskID, err)
			}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return records, nil
}

func (s *SQLiteStore) runTaskIDs(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id FROM run_tasks WHERE run_id = ? ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run tasks: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run task: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var finishedAt sql.NullTime
	var errText sql.NullString
	if err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Outcome, &errText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	run.Error = errText.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
