package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/inkwell/studio/cmd/studio/middleware"
	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/labstack/echo/v4"
)

// ShareHandler mints and resolves public share links
type ShareHandler struct {
	shares *service.ShareService
}

// NewShareHandler creates a new share handler
func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

// MintShareLink creates a share token for the actor's design
// POST /api/v1/designs/:id/share
func (h *ShareHandler) MintShareLink(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	link, err := h.shares.Mint(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, link)
}

// ResolveShareLink turns a token into the shared lineage view.
// Public: no authentication required.
// GET /api/v1/share/:token
func (h *ShareHandler) ResolveShareLink(c echo.Context) error {
	token := c.Param("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, errorBody("missing share token"))
	}

	view, err := h.shares.Resolve(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}
