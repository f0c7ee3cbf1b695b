package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/inkwell/studio/cmd/studio/middleware"
	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/labstack/echo/v4"
)

// LineageHandler serves history, comparison and branch endpoints
type LineageHandler struct {
	designs  *service.DesignService
	lineage  *service.LineageService
	compare  *service.CompareService
	branches *service.BranchService
}

// NewLineageHandler creates a new lineage handler
func NewLineageHandler(
	designs *service.DesignService,
	lineage *service.LineageService,
	compare *service.CompareService,
	branches *service.BranchService,
) *LineageHandler {
	return &LineageHandler{
		designs:  designs,
		lineage:  lineage,
		compare:  compare,
		branches: branches,
	}
}

// GetLineage returns a design's ancestor chain plus the design itself
// GET /api/v1/designs/:id/lineage
func (h *LineageHandler) GetLineage(c echo.Context) error {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	// Visibility check goes through the design service so private
	// designs look absent rather than forbidden
	if _, err := h.designs.Get(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}

	view, err := h.lineage.View(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

// GetComparison returns the before/after view for a design
// GET /api/v1/designs/:id/comparison
func (h *LineageHandler) GetComparison(c echo.Context) error {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	if _, err := h.designs.Get(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}

	view, err := h.compare.For(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

// GetBranchPayload returns the pre-populated generation request for
// branching off a design, without triggering generation. Backs the
// "tweak this" deep link.
// GET /api/v1/designs/:id/branch
func (h *LineageHandler) GetBranchPayload(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	payload, err := h.branches.Prepare(c.Request().Context(), actor, id, nil)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, payload)
}

// BranchDesign generates a new design continuing the source's lineage
// POST /api/v1/designs/:id/branch
func (h *LineageHandler) BranchDesign(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	req := &service.BranchRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	design, err := h.branches.Branch(c.Request().Context(), actor, id, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, design)
}
