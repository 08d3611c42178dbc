package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/service"
)

// AdminHandler serves the admin's user management endpoints.
type AdminHandler struct {
	Access *service.AccessService
}

func NewAdminHandler(access *service.AccessService) *AdminHandler {
	return &AdminHandler{Access: access}
}

type userView struct {
	ID               uint64 `json:"id"`
	Username         string `json:"username"`
	SuggestionAccess bool   `json:"suggestion_access"`
}

type accessReq struct {
	Granted *bool `json:"granted"`
}

// ListUsers returns every user ordered by id.  Passwords and contact
// numbers are never included.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	users, err := h.Access.ListUsers(ctx, middleware.Actor(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID, Username: u.Username, SuggestionAccess: u.SuggestionAccess})
	}
	return c.JSON(http.StatusOK, out)
}

// SetAccess grants or revokes suggestion access.  The body must name the
// new value explicitly.
func (h *AdminHandler) SetAccess(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	var req accessReq
	if err := c.Bind(&req); err != nil || req.Granted == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "granted (bool) required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Access.SetAccess(ctx, middleware.Actor(c), id, *req.Granted); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "suggestion_access": *req.Granted})
}

// DeleteUser removes a user and ends their sessions.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Access.DeleteUser(ctx, middleware.Actor(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
