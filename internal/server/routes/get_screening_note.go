package routes

import (
	"errors"
	"net/http"
	"os"

	"github.com/attested/dossier/internal/server/middleware"
	"github.com/attested/dossier/internal/storage"
	pgdb "github.com/attested/dossier/pkg/db/pgx"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
)

// GetScreeningNoteHandler returns the rendered note for a completed run.
// By default the markdown content is returned inline; with link=true and
// an S3-backed run, a presigned download URL is returned instead.
func GetScreeningNoteHandler(c echo.Context) error {
	type noteParams struct {
		ID   string `param:"id" validate:"required"`
		Link bool   `query:"link"`
	}

	params := new(noteParams)
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

	run, err := q.GetScreeningRunByPublicID(ctx, params.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Screening run not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	if !middleware.CanViewScreening(user, run.RequestedBy.String) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
	}

	if !run.NoteLocation.Valid || run.NoteLocation.String == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Run has no rendered note"})
	}

	if run.NoteSink == "s3" {
		if app.S3 == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Object storage is not configured"})
		}
		if params.Link {
			url, err := storage.GenerateDownloadLink(ctx, app.S3, run.NoteLocation.String)
			if err != nil {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "Note does not exist"})
			}
			return c.JSON(http.StatusOK, map[string]string{"url": url})
		}
		content, err := storage.GetNote(ctx, app.S3, run.NoteLocation.String)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Note does not exist"})
		}
		return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", content)
	}

	content, err := os.ReadFile(run.NoteLocation.String)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Note does not exist"})
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", content)
}
