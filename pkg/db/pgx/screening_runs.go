package pgdb

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

const screeningRunColumns = `id, public_id, entity_id, caption, schema, status,
	error_kind, error_message, note_sink, with_summary, note_location,
	relationship_count, requested_by, created_at, updated_at`

func scanScreeningRun(row pgx.Row) (ScreeningRun, error) {
	var r ScreeningRun
	err := row.Scan(
		&r.ID,
		&r.PublicID,
		&r.EntityID,
		&r.Caption,
		&r.Schema,
		&r.Status,
		&r.ErrorKind,
		&r.ErrorMessage,
		&r.NoteSink,
		&r.WithSummary,
		&r.NoteLocation,
		&r.RelationshipCount,
		&r.RequestedBy,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

type CreateScreeningRunParams struct {
	PublicID    string
	EntityID    string
	NoteSink    string
	WithSummary bool
	RequestedBy pgtype.Text
}

const createScreeningRun = `
INSERT INTO screening_runs (public_id, entity_id, status, note_sink, with_summary, requested_by)
VALUES ($1, $2, 'pending', $3, $4, $5)
RETURNING ` + screeningRunColumns

func (q *Queries) CreateScreeningRun(ctx context.Context, arg CreateScreeningRunParams) (ScreeningRun, error) {
	row := q.db.QueryRow(ctx, createScreeningRun,
		arg.PublicID,
		arg.EntityID,
		arg.NoteSink,
		arg.WithSummary,
		arg.RequestedBy,
	)
	return scanScreeningRun(row)
}

const getScreeningRunByPublicID = `
SELECT ` + screeningRunColumns + `
FROM screening_runs
WHERE public_id = $1`

func (q *Queries) GetScreeningRunByPublicID(ctx context.Context, publicID string) (ScreeningRun, error) {
	row := q.db.QueryRow(ctx, getScreeningRunByPublicID, publicID)
	return scanScreeningRun(row)
}

type ListScreeningRunsParams struct {
	Limit  int32
	Offset int32
}

const listScreeningRuns = `
SELECT ` + screeningRunColumns + `
FROM screening_runs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`

func (q *Queries) ListScreeningRuns(ctx context.Context, arg ListScreeningRunsParams) ([]ScreeningRun, error) {
	rows, err := q.db.Query(ctx, listScreeningRuns, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScreeningRun
	for rows.Next() {
		r, err := scanScreeningRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type ListScreeningRunsByRequestedByParams struct {
	RequestedBy pgtype.Text
	Limit       int32
	Offset      int32
}

const listScreeningRunsByRequestedBy = `
SELECT ` + screeningRunColumns + `
FROM screening_runs
WHERE requested_by = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

func (q *Queries) ListScreeningRunsByRequestedBy(ctx context.Context, arg ListScreeningRunsByRequestedByParams) ([]ScreeningRun, error) {
	rows, err := q.db.Query(ctx, listScreeningRunsByRequestedBy, arg.RequestedBy, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScreeningRun
	for rows.Next() {
		r, err := scanScreeningRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listScreeningRunsByEntityID = `
SELECT ` + screeningRunColumns + `
FROM screening_runs
WHERE entity_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListScreeningRunsByEntityID(ctx context.Context, entityID string) ([]ScreeningRun, error) {
	rows, err := q.db.Query(ctx, listScreeningRunsByEntityID, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScreeningRun
	for rows.Next() {
		r, err := scanScreeningRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const markScreeningRunRunning = `
UPDATE screening_runs
SET status = 'running', updated_at = now()
WHERE public_id = $1 AND status = 'pending'
RETURNING ` + screeningRunColumns

func (q *Queries) MarkScreeningRunRunning(ctx context.Context, publicID string) (ScreeningRun, error) {
	row := q.db.QueryRow(ctx, markScreeningRunRunning, publicID)
	return scanScreeningRun(row)
}

type CompleteScreeningRunParams struct {
	PublicID          string
	Caption           pgtype.Text
	Schema            pgtype.Text
	NoteLocation      pgtype.Text
	RelationshipCount int32
}

const completeScreeningRun = `
UPDATE screening_runs
SET status = 'done',
	caption = $2,
	schema = $3,
	note_location = $4,
	relationship_count = $5,
	error_kind = NULL,
	error_message = NULL,
	updated_at = now()
WHERE public_id = $1
RETURNING ` + screeningRunColumns

func (q *Queries) CompleteScreeningRun(ctx context.Context, arg CompleteScreeningRunParams) (ScreeningRun, error) {
	row := q.db.QueryRow(ctx, completeScreeningRun,
		arg.PublicID,
		arg.Caption,
		arg.Schema,
		arg.NoteLocation,
		arg.RelationshipCount,
	)
	return scanScreeningRun(row)
}

type FailScreeningRunParams struct {
	PublicID     string
	ErrorKind    pgtype.Text
	ErrorMessage pgtype.Text
}

const failScreeningRun = `
UPDATE screening_runs
SET status = 'failed',
	error_kind = $2,
	error_message = $3,
	updated_at = now()
WHERE public_id = $1
RETURNING ` + screeningRunColumns

func (q *Queries) FailScreeningRun(ctx context.Context, arg FailScreeningRunParams) (ScreeningRun, error) {
	row := q.db.QueryRow(ctx, failScreeningRun,
		arg.PublicID,
		arg.ErrorKind,
		arg.ErrorMessage,
	)
	return scanScreeningRun(row)
}

const resetScreeningRunToPending = `
UPDATE screening_runs
SET status = 'pending', updated_at = now()
WHERE public_id = $1 AND status = 'running'`

func (q *Queries) ResetScreeningRunToPending(ctx context.Context, publicID string) error {
	_, err := q.db.Exec(ctx, resetScreeningRunToPending, publicID)
	return err
}

const getStaleScreeningRuns = `
SELECT ` + screeningRunColumns + `
FROM screening_runs
WHERE status IN ('pending', 'running')
  AND updated_at < now() - interval '30 minutes'`

// GetStaleScreeningRuns returns runs that have sat in pending or running
// for over 30 minutes. Pending covers runs whose queue message was lost or
// acked without a status transition; running covers crashed workers.
func (q *Queries) GetStaleScreeningRuns(ctx context.Context) ([]ScreeningRun, error) {
	rows, err := q.db.Query(ctx, getStaleScreeningRuns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScreeningRun
	for rows.Next() {
		r, err := scanScreeningRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const deleteScreeningRun = `
DELETE FROM screening_runs
WHERE public_id = $1
RETURNING note_sink, note_location`

type DeleteScreeningRunRow struct {
	NoteSink     string
	NoteLocation pgtype.Text
}

func (q *Queries) DeleteScreeningRun(ctx context.Context, publicID string) (DeleteScreeningRunRow, error) {
	var row DeleteScreeningRunRow
	err := q.db.QueryRow(ctx, deleteScreeningRun, publicID).Scan(&row.NoteSink, &row.NoteLocation)
	return row, err
}

type UpdateScreeningRunEmbeddingParams struct {
	PublicID  string
	Embedding pgvector.Vector
}

const updateScreeningRunEmbedding = `
UPDATE screening_runs
SET embedding = $2, updated_at = now()
WHERE public_id = $1`

func (q *Queries) UpdateScreeningRunEmbedding(ctx context.Context, arg UpdateScreeningRunEmbeddingParams) error {
	_, err := q.db.Exec(ctx, updateScreeningRunEmbedding, arg.PublicID, arg.Embedding)
	return err
}

type FindSimilarScreeningRunsParams struct {
	Embedding pgvector.Vector
	Limit     int32
}

const findSimilarScreeningRuns = `
SELECT ` + screeningRunColumns + `
FROM screening_runs
WHERE embedding IS NOT NULL AND status = 'done'
ORDER BY embedding <=> $1
LIMIT $2`

func (q *Queries) FindSimilarScreeningRuns(ctx context.Context, arg FindSimilarScreeningRunsParams) ([]ScreeningRun, error) {
	rows, err := q.db.Query(ctx, findSimilarScreeningRuns, arg.Embedding, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ScreeningRun
	for rows.Next() {
		r, err := scanScreeningRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
