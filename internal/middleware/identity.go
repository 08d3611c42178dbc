package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/service"
)

// Actor builds the service identity from the values JWTAuth stored.  An
// unauthenticated context yields the zero Actor.
func Actor(c echo.Context) service.Actor {
	name, _ := c.Get(CtxUsername).(string)
	id, _ := c.Get(CtxUserID).(uint64)
	role, _ := c.Get(CtxRole).(string)
	return service.Actor{Username: name, UserID: id, Admin: role == model.RoleAdmin}
}

// currentUser keys rate limit buckets; anonymous callers share "anon".
func currentUser(c echo.Context) string {
	if name, ok := c.Get(CtxUsername).(string); ok && name != "" {
		return name
	}
	return "anon"
}

// currentRole keys cached responses so admin and user views never mix.
func currentRole(c echo.Context) string {
	if role, ok := c.Get(CtxRole).(string); ok && role != "" {
		return role
	}
	return "anon"
}

// AccessChecker is satisfied by service.AccessService.
type AccessChecker interface {
	CheckSuggestionAccess(ctx context.Context, a service.Actor) error
}

// RequireSuggestionAccess lets the admin and users holding suggestion access
// through.  The check reads the store on every request, so a revoke applies
// immediately even to tokens issued before it.
func RequireSuggestionAccess(checker AccessChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := checker.CheckSuggestionAccess(c.Request().Context(), Actor(c))
			switch {
			case err == nil:
				return next(c)
			case errors.Is(err, service.ErrAccessDenied):
				return c.JSON(http.StatusForbidden, echo.Map{"error": "suggestion access not granted"})
			default:
				slog.Error("access check failed", "error", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
		}
	}
}
