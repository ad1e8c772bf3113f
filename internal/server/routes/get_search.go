package routes

import (
	"net/http"

	"github.com/attested/dossier/internal/server/middleware"
	"github.com/attested/dossier/pkg/sanctions"

	"github.com/labstack/echo/v4"
)

func SearchEntitiesHandler(c echo.Context) error {
	type searchParams struct {
		Query     string   `query:"q" validate:"required"`
		Schema    string   `query:"schema"`
		Limit     int      `query:"limit" validate:"omitempty,min=1,max=100"`
		Offset    int      `query:"offset" validate:"omitempty,min=0"`
		Datasets  []string `query:"datasets"`
		Topics    []string `query:"topics"`
		Countries []string `query:"countries"`
	}

	params := new(searchParams)
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
	client := c.(*middleware.AppContext).App.Sanctions

	res, err := client.Search(ctx, sanctions.SearchParams{
		Query:     params.Query,
		Schema:    params.Schema,
		Limit:     params.Limit,
		Offset:    params.Offset,
		Datasets:  params.Datasets,
		Topics:    params.Topics,
		Countries: params.Countries,
	})
	if err != nil {
		return c.JSON(statusForUpstream(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, res)
}
