package routes

import (
	"github.com/inkwell/studio/cmd/studio/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterDesignRoutes registers design record store routes
func RegisterDesignRoutes(g *echo.Group, handler *handlers.DesignHandler) {
	// POST /api/v1/designs - Save a design to the library
	g.POST("/designs", handler.CreateDesign)

	// GET /api/v1/designs - List the actor's library
	g.GET("/designs", handler.ListDesigns)

	// GET /api/v1/designs/usage - Storage usage summary
	g.GET("/designs/usage", handler.GetUsage)

	// GET /api/v1/designs/:id - Get one design
	g.GET("/designs/:id", handler.GetDesign)

	// PATCH /api/v1/designs/:id - Update mutable fields
	g.PATCH("/designs/:id", handler.UpdateDesign)

	// DELETE /api/v1/designs/:id - Delete a design and release its blobs
	g.DELETE("/designs/:id", handler.DeleteDesign)
}
