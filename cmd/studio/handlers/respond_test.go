package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell/studio/common/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("design x: %w", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("only the owner: %w", models.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("parent_id: %w", models.ErrImmutableField), http.StatusConflict},
		{fmt.Errorf("no image yet: %w", models.ErrNotReady), http.StatusConflict},
		{fmt.Errorf("bad field: %w", models.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("revisited node: %w", models.ErrCycleDetected), http.StatusInternalServerError},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		require.NoError(t, respondError(c, tc.err))
		assert.Equal(t, tc.want, rec.Code, "error: %v", tc.err)
	}
}

func TestRespondError_CycleHidesDetail(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := fmt.Errorf("design a revisits b: %w", models.ErrCycleDetected)
	require.NoError(t, respondError(c, err))

	assert.NotContains(t, rec.Body.String(), "revisits", "internal walk detail stays out of the response")
	assert.Contains(t, rec.Body.String(), "history unavailable")
}
