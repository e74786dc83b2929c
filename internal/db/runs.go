package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runColumns = `id, postcode, care_type, status, created_at, completed_at`

func scanRun(row pgx.Row) (Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Postcode, &run.CareType, &run.Status, &run.CreatedAt, &run.CompletedAt)
	return run, err
}

// CreateRun records the start of a matching run for one seeker profile and
// returns the new run's ID.
func (db *DB) CreateRun(ctx context.Context, postcode, careType string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO match_runs (postcode, care_type, status)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		postcode, careType, StatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create match run: %w", err)
	}
	return id, nil
}

// CompleteRun stamps a run with its terminal status and completion time.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE match_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete match run: %w", err)
	}
	return nil
}

// GetRun returns a run by ID, or nil if no such run exists.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM match_runs WHERE id = $1`,
		runID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match run: %w", err)
	}
	return &run, nil
}

// RunFilters narrows ListRunsFiltered. Zero values mean no filter. Postcode
// matches as a case-insensitive prefix, so a district like "GU1" finds every
// run inside it.
type RunFilters struct {
	Postcode string
	CareType string
	Status   string
	Limit    int
}

// ListRunsFiltered returns runs newest first, narrowed and capped by f.
// An unset limit defaults to 50.
func (db *DB) ListRunsFiltered(ctx context.Context, f RunFilters) ([]Run, error) {
	var where []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Postcode != "" {
		add("postcode ILIKE $%d", f.Postcode+"%")
	}
	if f.CareType != "" {
		add("care_type = $%d", f.CareType)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}

	query := `SELECT ` + runColumns + ` FROM match_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list match runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run. Its artifacts go with it via ON DELETE CASCADE.
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM match_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete match run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
