package routes

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/attested/dossier/internal/server/middleware"
	pgdb "github.com/attested/dossier/pkg/db/pgx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"github.com/pgvector/pgvector-go"
)

type screeningRunResponse struct {
	RunID             string    `json:"run_id"`
	EntityID          string    `json:"entity_id"`
	Caption           string    `json:"caption,omitempty"`
	Schema            string    `json:"schema,omitempty"`
	Status            string    `json:"status"`
	ErrorKind         string    `json:"error_kind,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	NoteSink          string    `json:"note_sink"`
	WithSummary       bool      `json:"with_summary"`
	NoteLocation      string    `json:"note_location,omitempty"`
	RelationshipCount int32     `json:"relationship_count"`
	RequestedBy       string    `json:"requested_by,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toScreeningRunResponse(run pgdb.ScreeningRun) screeningRunResponse {
	return screeningRunResponse{
		RunID:             run.PublicID,
		EntityID:          run.EntityID,
		Caption:           run.Caption.String,
		Schema:            run.Schema.String,
		Status:            run.Status,
		ErrorKind:         run.ErrorKind.String,
		ErrorMessage:      run.ErrorMessage.String,
		NoteSink:          run.NoteSink,
		WithSummary:       run.WithSummary,
		NoteLocation:      run.NoteLocation.String,
		RelationshipCount: run.RelationshipCount,
		RequestedBy:       run.RequestedBy.String,
		CreatedAt:         run.CreatedAt,
		UpdatedAt:         run.UpdatedAt,
	}
}

func GetScreeningsHandler(c echo.Context) error {
	type listParams struct {
		Limit  int32 `query:"limit" validate:"omitempty,min=1,max=200"`
		Offset int32 `query:"offset" validate:"omitempty,min=0"`
	}

	params := new(listParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.Limit == 0 {
		params.Limit = 50
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	q := pgdb.New(conn)

	var runs []pgdb.ScreeningRun
	var err error

	if middleware.HasPermission(user, middleware.PermViewAllScreenings) {
		runs, err = q.ListScreeningRuns(ctx, pgdb.ListScreeningRunsParams{
			Limit:  params.Limit,
			Offset: params.Offset,
		})
	} else {
		runs, err = q.ListScreeningRunsByRequestedBy(ctx, pgdb.ListScreeningRunsByRequestedByParams{
			RequestedBy: pgtype.Text{String: strconv.FormatInt(user.UserID, 10), Valid: true},
			Limit:       params.Limit,
			Offset:      params.Offset,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	resp := make([]screeningRunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toScreeningRunResponse(run))
	}
	return c.JSON(http.StatusOK, resp)
}

func GetScreeningHandler(c echo.Context) error {
	type getParams struct {
		ID string `param:"id" validate:"required"`
	}

	params := new(getParams)
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
	conn := c.(*middleware.AppContext).App.DBConn
	q := pgdb.New(conn)

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

	return c.JSON(http.StatusOK, toScreeningRunResponse(run))
}

// GetSimilarScreeningsHandler embeds the query text and returns completed
// runs ranked by vector similarity.
func GetSimilarScreeningsHandler(c echo.Context) error {
	type similarParams struct {
		Query string `query:"q" validate:"required"`
		Limit int32  `query:"limit" validate:"omitempty,min=1,max=50"`
	}

	params := new(similarParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}
	if params.Limit == 0 {
		params.Limit = 10
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	app := c.(*middleware.AppContext).App
	if app.AiClient == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Similarity search is not configured"})
	}

	ctx := c.Request().Context()

	vec, err := app.AiClient.GenerateEmbedding(ctx, []byte(params.Query))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Embedding generation failed"})
	}

	q := pgdb.New(app.DBConn)
	runs, err := q.FindSimilarScreeningRuns(ctx, pgdb.FindSimilarScreeningRunsParams{
		Embedding: pgvector.NewVector(vec),
		Limit:     params.Limit,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	resp := make([]screeningRunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toScreeningRunResponse(run))
	}
	return c.JSON(http.StatusOK, resp)
}
