package routes

import (
	"net/http"

	"github.com/attested/dossier/internal/server/middleware"
	"github.com/attested/dossier/pkg/sanctions"

	"github.com/labstack/echo/v4"
)

type relationshipGroup struct {
	Label string   `json:"label"`
	Names []string `json:"names"`
}

// GetEntityHandler fetches one entity with its relationships resolved to
// display names, grouped by relationship category.
func GetEntityHandler(c echo.Context) error {
	type getEntityParams struct {
		ID string `param:"id" validate:"required"`
	}

	type getEntityResponse struct {
		Entity        *sanctions.EntityRecord `json:"entity"`
		Relationships []relationshipGroup     `json:"relationships"`
	}

	params := new(getEntityParams)
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
	enricher := c.(*middleware.AppContext).App.Enricher

	enriched, err := enricher.FetchWithRelationships(ctx, params.ID)
	if err != nil {
		return c.JSON(statusForUpstream(err), map[string]string{"error": err.Error()})
	}

	groups := make([]relationshipGroup, 0)
	for _, bucket := range enriched.Relationships.Buckets() {
		groups = append(groups, relationshipGroup{Label: bucket.Label, Names: bucket.Names})
	}

	return c.JSON(http.StatusOK, getEntityResponse{
		Entity:        enriched.Entity,
		Relationships: groups,
	})
}
