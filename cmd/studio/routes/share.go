package routes

import (
	"github.com/inkwell/studio/cmd/studio/handlers"
	"github.com/labstack/echo/v4"
)

// RegisterShareRoutes registers share link routes
func RegisterShareRoutes(g *echo.Group, handler *handlers.ShareHandler) {
	// POST /api/v1/designs/:id/share - Mint a public share link
	g.POST("/designs/:id/share", handler.MintShareLink)

	// GET /api/v1/share/:token - Resolve a share link (no auth)
	g.GET("/share/:token", handler.ResolveShareLink)
}
