package routes

import (
	"net/http"

	"github.com/attested/dossier/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// GetCatalogHandler proxies the upstream dataset catalog without reshaping it.
func GetCatalogHandler(c echo.Context) error {
	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ctx := c.Request().Context()
	client := c.(*middleware.AppContext).App.Sanctions

	raw, err := client.Catalog(ctx)
	if err != nil {
		return c.JSON(statusForUpstream(err), map[string]string{"error": err.Error()})
	}

	return c.JSONBlob(http.StatusOK, raw)
}
