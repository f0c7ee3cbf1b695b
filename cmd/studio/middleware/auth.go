package middleware

import (
	"net/http"

	"github.com/inkwell/studio/common/clients"
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ActorKey is the context key for the authenticated actor id
	ActorKey ContextKey = "actor_id"

	// AdminHeader marks requests from the admin dashboard proxy
	AdminHeader = "X-Admin"
)

// ExtractActor extracts the X-User-ID header set by the external auth
// provider and stores it in the request context. Session handling itself
// is delegated; by the time requests reach this service the identity is
// just a trusted header.
func ExtractActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := c.Request().Header.Get("X-User-ID")
			if actor != "" {
				c.Set(string(ActorKey), actor)

				// Also thread it through the request context so outbound
				// clients propagate the acting user
				req := c.Request()
				c.SetRequest(req.WithContext(clients.WithActorID(req.Context(), actor)))
			}
			return next(c)
		}
	}
}

// GetActor retrieves the actor id from the request context
// Returns empty string if not set
func GetActor(c echo.Context) string {
	actor := c.Get(string(ActorKey))
	if actor == nil {
		return ""
	}
	return actor.(string)
}

// RequireActor ensures an actor id exists in context
func RequireActor(c echo.Context) (string, error) {
	actor := GetActor(c)
	if actor == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required (X-User-ID header missing)")
	}
	return actor, nil
}

// IsAdmin reports whether the request carries the admin marker
func IsAdmin(c echo.Context) bool {
	return c.Request().Header.Get(AdminHeader) == "true"
}
