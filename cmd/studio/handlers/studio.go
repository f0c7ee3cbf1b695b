package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/inkwell/studio/cmd/studio/middleware"
	"github.com/inkwell/studio/cmd/studio/service"
	"github.com/inkwell/studio/common/models"
	"github.com/labstack/echo/v4"
)

// StudioHandler handles studio and settings requests
type StudioHandler struct {
	settings *service.SettingsService
}

// NewStudioHandler creates a new studio handler
func NewStudioHandler(settings *service.SettingsService) *StudioHandler {
	return &StudioHandler{settings: settings}
}

type createStudioRequest struct {
	Name string `json:"name"`
}

// CreateStudio registers a studio owned by the actor
// POST /api/v1/studios
func (h *StudioHandler) CreateStudio(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	req := &createStudioRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, errorBody("name is required"))
	}

	studio, err := h.settings.CreateStudio(c.Request().Context(), actor, req.Name)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, studio)
}

// GetStudio retrieves a studio with its settings
// GET /api/v1/studios/:id
func (h *StudioHandler) GetStudio(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid studio id"))
	}

	studio, err := h.settings.GetStudio(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, studio)
}

// PatchSettings merge-patches a studio's settings document
// PATCH /api/v1/studios/:id/settings
func (h *StudioHandler) PatchSettings(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid studio id"))
	}

	patch, err := io.ReadAll(c.Request().Body)
	if err != nil || len(patch) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody("malformed settings patch"))
	}

	studio, err := h.settings.ApplySettingsPatch(c.Request().Context(), actor, id, patch)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, studio)
}

// CollectionHandler handles library collection requests
type CollectionHandler struct {
	collections *service.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

type createCollectionRequest struct {
	Name string `json:"name"`
}

// CreateCollection adds a collection to the actor's library
// POST /api/v1/collections
func (h *CollectionHandler) CreateCollection(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	req := &createCollectionRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("malformed request body"))
	}

	collection, err := h.collections.Create(c.Request().Context(), actor, req.Name)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, collection)
}

// ListCollections lists the actor's collections
// GET /api/v1/collections
func (h *CollectionHandler) ListCollections(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	collections, err := h.collections.List(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, err)
	}

	if collections == nil {
		collections = []*models.Collection{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"collections": collections,
	})
}

// DeleteCollection removes a collection, detaching its designs
// DELETE /api/v1/collections/:id
func (h *CollectionHandler) DeleteCollection(c echo.Context) error {
	actor, err := middleware.RequireActor(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid collection id"))
	}

	if err := h.collections.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
