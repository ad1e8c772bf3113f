package routes

import (
	"errors"
	"net/http"

	"github.com/attested/dossier/internal/server/middleware"
	"github.com/attested/dossier/internal/util"
	pgdb "github.com/attested/dossier/pkg/db/pgx"
	"github.com/attested/dossier/pkg/logger"
	"github.com/attested/dossier/pkg/notes"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// DeleteScreeningHandler removes a screening run and best-effort deletes
// its rendered note from the sink it was written to.
func DeleteScreeningHandler(c echo.Context) error {
	type deleteParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(deleteParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	q := pgdb.New(app.DBConn)

	row, err := q.DeleteScreeningRun(ctx, params.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Screening run not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if row.NoteLocation.Valid && row.NoteLocation.String != "" {
		var sink notes.Sink
		if row.NoteSink == "s3" && app.S3 != nil {
			sink = &notes.S3Sink{Client: app.S3}
		} else {
			sink = &notes.DirSink{Dir: util.GetEnvString("NOTES_DIR", "notes")}
		}
		if err := sink.Delete(ctx, row.NoteLocation.String); err != nil {
			logger.Warn("[Server] Failed to delete note", "run_id", params.ID, "location", row.NoteLocation.String, "err", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Screening run deleted"})
}
