package handlers

import (
	"errors"
	"net/http"

	"github.com/inkwell/studio/common/models"
	"github.com/labstack/echo/v4"
)

// respondError maps domain errors onto HTTP status codes.
// Services wrap sentinels from common/models; nothing else leaks out.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, errorBody("forbidden"))
	case errors.Is(err, models.ErrImmutableField):
		return c.JSON(http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, models.ErrNotReady):
		return c.JSON(http.StatusConflict, errorBody("design is not finished yet"))
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, models.ErrCycleDetected):
		// Corrupt lineage surfaces as a generic unavailable state,
		// not a crash of the share view
		return c.JSON(http.StatusInternalServerError, errorBody("history unavailable"))
	default:
		return c.JSON(http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(msg string) map[string]interface{} {
	return map[string]interface{}{"error": msg}
}
