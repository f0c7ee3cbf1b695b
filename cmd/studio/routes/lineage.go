package routes

import (
	"github.com/inkwell/studio/cmd/studio/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterLineageRoutes registers history, comparison and branch routes
func RegisterLineageRoutes(g *echo.Group, handler *handlers.LineageHandler) {
	// GET /api/v1/designs/:id/lineage - Ordered ancestor chain plus the design
	g.GET("/designs/:id/lineage", handler.GetLineage)

	// GET /api/v1/designs/:id/comparison - Before/after view against the parent
	g.GET("/designs/:id/comparison", handler.GetComparison)

	// GET /api/v1/designs/:id/branch - Pre-populated branch payload (deep link)
	g.GET("/designs/:id/branch", handler.GetBranchPayload)

	// POST /api/v1/designs/:id/branch - Generate a new design off this one
	g.POST("/designs/:id/branch", handler.BranchDesign)
}
