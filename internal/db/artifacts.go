package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Artifact is one stored output of a matching run: the resolved profile, a
// dataset or fusion report, the scored selection, or the rendered shortlist.
// JSON payloads live in Content, plain text in TextContent.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Step        string    `json:"step"`
	Category    string    `json:"category"`
	Content     any       `json:"content,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
}

// upsertArtifact writes value into the named payload column for (runID,
// step). Artifacts are keyed on that pair, so a re-run replaces the payload
// instead of accumulating rows. column is one of the two payload columns,
// never caller input.
func (db *DB) upsertArtifact(ctx context.Context, runID uuid.UUID, step, category, column string, value any) error {
	query := fmt.Sprintf(
		`INSERT INTO artifacts (run_id, step, category, %[1]s)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (run_id, step)
		 DO UPDATE SET category = EXCLUDED.category, %[1]s = EXCLUDED.%[1]s, created_at = NOW()`,
		column,
	)
	if _, err := db.pool.Exec(ctx, query, runID, step, category, value); err != nil {
		return fmt.Errorf("failed to save %s artifact: %w", step, err)
	}
	return nil
}

// SaveArtifact stores content as the JSON artifact for one step of a run.
// Writing the same step again replaces the earlier payload.
func (db *DB) SaveArtifact(ctx context.Context, runID uuid.UUID, step, category string, content any) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %s: %w", step, err)
	}
	return db.upsertArtifact(ctx, runID, step, category, "content", payload)
}

// SaveTextArtifact stores plain text (the rendered shortlist, typically) as
// the artifact for one step of a run, replacing any earlier payload.
func (db *DB) SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error {
	return db.upsertArtifact(ctx, runID, step, category, "text_content", text)
}

// payloadColumn reads one payload column for (runID, step) into dst. A
// missing row leaves dst at its zero value, which is what both payload
// types want for "no artifact".
func (db *DB) payloadColumn(ctx context.Context, column string, runID uuid.UUID, step string, dst any) error {
	err := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM artifacts WHERE run_id = $1 AND step = $2`, column),
		runID, step,
	).Scan(dst)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read %s artifact: %w", step, err)
	}
	return nil
}

// GetArtifact returns the raw JSON payload for a run step, or nil if the
// step has no artifact.
func (db *DB) GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error) {
	var content []byte
	if err := db.payloadColumn(ctx, "content", runID, step, &content); err != nil {
		return nil, err
	}
	return content, nil
}

// GetTextArtifact returns the text payload for a run step, or "" if the
// step has no artifact.
func (db *DB) GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error) {
	var text string
	if err := db.payloadColumn(ctx, "text_content", runID, step, &text); err != nil {
		return "", err
	}
	return text, nil
}

// GetArtifactByID returns one artifact by its own ID, or nil if it does not
// exist. JSON content is decoded into Content; undecodable content is left
// nil rather than failing the read.
func (db *DB) GetArtifactByID(ctx context.Context, artifactID uuid.UUID) (*Artifact, error) {
	var artifact Artifact
	var raw []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, step, COALESCE(category, ''), content, COALESCE(text_content, '')
		 FROM artifacts WHERE id = $1`,
		artifactID,
	).Scan(&artifact.ID, &artifact.RunID, &artifact.Step, &artifact.Category, &raw, &artifact.TextContent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	if len(raw) > 0 {
		var content any
		if err := json.Unmarshal(raw, &content); err == nil {
			artifact.Content = content
		}
	}

	return &artifact, nil
}

// ArtifactSummary is a lightweight listing view of an artifact. HasJSON and
// HasText say which payloads exist without shipping them.
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt string    `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// ArtifactFilters narrows ListArtifacts. Zero values mean no filter.
type ArtifactFilters struct {
	RunID    uuid.UUID
	Step     string
	Category string
}

// ListArtifacts returns artifact summaries oldest first, narrowed by f.
func (db *DB) ListArtifacts(ctx context.Context, f ArtifactFilters) ([]ArtifactSummary, error) {
	var where []string
	var args []any
	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.RunID != uuid.Nil {
		add("run_id = $%d", f.RunID)
	}
	if f.Step != "" {
		add("step = $%d", f.Step)
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}

	query := `SELECT id, step, COALESCE(category, ''), created_at,
	          content IS NOT NULL AS has_json, text_content IS NOT NULL AS has_text
	          FROM artifacts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []ArtifactSummary
	for rows.Next() {
		var a ArtifactSummary
		var created time.Time
		if err := rows.Scan(&a.ID, &a.Step, &a.Category, &created, &a.HasJSON, &a.HasText); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.CreatedAt = created.Format(time.RFC3339)
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return artifacts, nil
}
