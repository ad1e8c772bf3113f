package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/attested/dossier/internal/queue"
	"github.com/attested/dossier/internal/server/middleware"
	pgdb "github.com/attested/dossier/pkg/db/pgx"
	"github.com/attested/dossier/pkg/logger"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateScreeningHandler records a pending screening run and enqueues it
// for the worker. The response carries the run in its pending state.
func CreateScreeningHandler(c echo.Context) error {
	type createScreeningBody struct {
		EntityID    string `json:"entity_id" validate:"required"`
		NoteSink    string `json:"note_sink" validate:"omitempty,oneof=fs s3"`
		WithSummary bool   `json:"with_summary"`
	}

	body := new(createScreeningBody)
	if err := c.Bind(body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if body.NoteSink == "" {
		body.NoteSink = "fs"
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	q := pgdb.New(app.DBConn)

	runID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	run, err := q.CreateScreeningRun(ctx, pgdb.CreateScreeningRunParams{
		PublicID:    runID,
		EntityID:    body.EntityID,
		NoteSink:    body.NoteSink,
		WithSummary: body.WithSummary,
		RequestedBy: pgtype.Text{
			String: strconv.FormatInt(user.UserID, 10),
			Valid:  true,
		},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	msgBytes, err := json.Marshal(queue.ScreeningJobMsg{
		RunID:       run.PublicID,
		EntityID:    run.EntityID,
		WithSummary: body.WithSummary,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if err := queue.PublishFIFO(app.Queue, queue.ScreeningQueue, msgBytes); err != nil {
		logger.Error("[Server] Failed to enqueue screening run", "run_id", run.PublicID, "err", err)
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, failErr := q.FailScreeningRun(updateCtx, pgdb.FailScreeningRunParams{
			PublicID:     run.PublicID,
			ErrorKind:    pgtype.Text{String: "unknown_failure", Valid: true},
			ErrorMessage: pgtype.Text{String: "failed to enqueue screening job", Valid: true},
		}); failErr != nil {
			logger.Warn("[Server] Failed to mark run as failed", "run_id", run.PublicID, "err", failErr)
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to enqueue screening"})
	}

	return c.JSON(http.StatusAccepted, toScreeningRunResponse(run))
}
