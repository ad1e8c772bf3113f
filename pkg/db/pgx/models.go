package pgdb

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	ScreeningStatusPending = "pending"
	ScreeningStatusRunning = "running"
	ScreeningStatusDone    = "done"
	ScreeningStatusFailed  = "failed"
)

type ScreeningRun struct {
	ID                int64
	PublicID          string
	EntityID          string
	Caption           pgtype.Text
	Schema            pgtype.Text
	Status            string
	ErrorKind         pgtype.Text
	ErrorMessage      pgtype.Text
	NoteSink          string
	WithSummary       bool
	NoteLocation      pgtype.Text
	RelationshipCount int32
	RequestedBy       pgtype.Text
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
