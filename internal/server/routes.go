package server

import (
	"github.com/attested/dossier/internal/server/middleware"
	"github.com/attested/dossier/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Upstream lookup routes
	apiRoutes.GET("/search", routes.SearchEntitiesHandler, middleware.RequirePermission(middleware.PermViewEntities))
	apiRoutes.GET("/catalog", routes.GetCatalogHandler, middleware.RequirePermission(middleware.PermViewEntities))
	apiRoutes.GET("/entities/:id", routes.GetEntityHandler, middleware.RequirePermission(middleware.PermViewEntities))

	// Screening run routes
	apiRoutes.POST("/screenings", routes.CreateScreeningHandler, middleware.RequirePermission(middleware.PermCreateScreenings))
	apiRoutes.GET("/screenings", routes.GetScreeningsHandler, middleware.RequireAnyPermission(middleware.PermViewScreenings, middleware.PermViewAllScreenings))
	apiRoutes.GET("/screenings/similar", routes.GetSimilarScreeningsHandler, middleware.RequireAnyPermission(middleware.PermViewScreenings, middleware.PermViewAllScreenings))
	apiRoutes.GET("/screenings/:id", routes.GetScreeningHandler, middleware.RequireAnyPermission(middleware.PermViewScreenings, middleware.PermViewAllScreenings))
	apiRoutes.GET("/screenings/:id/note", routes.GetScreeningNoteHandler, middleware.RequireAnyPermission(middleware.PermViewScreenings, middleware.PermViewAllScreenings))
	apiRoutes.DELETE("/screenings/:id", routes.DeleteScreeningHandler, middleware.RequirePermission(middleware.PermDeleteScreenings))
}
