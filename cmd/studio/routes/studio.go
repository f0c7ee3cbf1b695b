package routes

import (
	"github.com/inkwell/studio/cmd/studio/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterStudioRoutes registers studio and settings routes
func RegisterStudioRoutes(g *echo.Group, handler *handlers.StudioHandler) {
	// POST /api/v1/studios - Register a studio
	g.POST("/studios", handler.CreateStudio)

	// GET /api/v1/studios/:id - Get a studio with its settings
	g.GET("/studios/:id", handler.GetStudio)

	// PATCH /api/v1/studios/:id/settings - Merge-patch the settings document
	g.PATCH("/studios/:id/settings", handler.PatchSettings)
}

// RegisterCollectionRoutes registers library collection routes
func RegisterCollectionRoutes(g *echo.Group, handler *handlers.CollectionHandler) {
	// POST /api/v1/collections - Create a collection
	g.POST("/collections", handler.CreateCollection)

	// GET /api/v1/collections - List the actor's collections
	g.GET("/collections", handler.ListCollections)

	// DELETE /api/v1/collections/:id - Delete a collection, detaching designs
	g.DELETE("/collections/:id", handler.DeleteCollection)
}
