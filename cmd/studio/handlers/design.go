package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/inkwell/studio/cmd/studio/middleware"
	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/inkwell/studio/common/models"
	"github.com/inkwell/studio/common/repository"
	"github.com/labstack/echo/v4"
)

// DesignHandler handles design CRUD requests
type DesignHandler struct {
	designs *service.DesignService
}

// NewDesignHandler creates a new design handler
func NewDesignHandler(designs *service.DesignService) *DesignHandler {
	return &DesignHandler{designs: designs}
}

// CreateDesign persists a design (library save or draft)
// POST /api/v1/designs
func (h *DesignHandler) CreateDesign(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	req := &service.CreateDesignRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	design, err := h.designs.Create(c.Request().Context(), actor, req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, design)
}

// GetDesign retrieves one design
// GET /api/v1/designs/:id
func (h *DesignHandler) GetDesign(c echo.Context) error {
	actor := middleware.GetActor(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	design, err := h.designs.Get(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, design)
}

// UpdateDesign changes mutable fields only
// PATCH /api/v1/designs/:id
func (h *DesignHandler) UpdateDesign(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	// Parsed field-by-field so attempts to rewrite parent_id or
	// image_ref are rejected, not silently dropped
	update, err := service.ParseUpdate(body)
	if err != nil {
		return respondError(c, err)
	}

	design, err := h.designs.Update(c.Request().Context(), actor, id, update)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, design)
}

// DeleteDesign removes a design and releases its blobs
// DELETE /api/v1/designs/:id
func (h *DesignHandler) DeleteDesign(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid design id"))
	}

	if err := h.designs.Delete(c.Request().Context(), actor, id, middleware.IsAdmin(c)); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListDesigns lists the actor's library
// GET /api/v1/designs?starred=true&status=confirmed&collection=<id>&limit=50
func (h *DesignHandler) ListDesigns(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	filter := &repository.DesignFilter{}

	if v := c.QueryParam("starred"); v != "" {
		starred, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid starred filter"))
		}
		filter.Starred = &starred
	}

	if v := c.QueryParam("status"); v != "" {
		status := models.DesignStatus(v)
		if !models.ValidStatus(status) {
			return c.JSON(http.StatusBadRequest, errorBody("invalid status filter"))
		}
		filter.Status = &status
	}

	if v := c.QueryParam("collection"); v != "" {
		collectionID, err := uuid.Parse(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorBody("invalid collection filter"))
		}
		filter.CollectionID = &collectionID
	}

	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return c.JSON(http.StatusBadRequest, errorBody("invalid limit"))
		}
		filter.Limit = limit
	}

	designs, err := h.designs.List(c.Request().Context(), actor, filter)
	if err != nil {
		return respondError(c, err)
	}

	if designs == nil {
		designs = []*models.Design{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"designs": designs,
	})
}

// GetUsage summarizes the actor's stored designs
// GET /api/v1/designs/usage
func (h *DesignHandler) GetUsage(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	usage, err := h.designs.Usage(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, usage)
}
