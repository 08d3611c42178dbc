package handler // package handler contains the echo handlers for the JSON API

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/service"
)

// storeTimeout bounds the store calls made by a single request.
const storeTimeout = 5 * time.Second

func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// CachePurger drops cached listings after a mutation.  A nil
// *middleware.ResponseCache satisfies it and does nothing.
type CachePurger interface {
	Purge(ctx context.Context)
}

type noPurge struct{}

func (noPurge) Purge(context.Context) {}

func orNoPurge(p CachePurger) CachePurger {
	if p == nil {
		return noPurge{}
	}
	return p
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
}

// respondError maps service errors to status codes.  Anything unrecognised
// is logged and reported as a generic 500.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrEmptyInput),
		errors.Is(err, service.ErrInvalidContact),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrPasswordTooLong),
		errors.Is(err, service.ErrReservedUsername):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateUsername):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidTicket):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err)
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
