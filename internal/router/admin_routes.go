package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/handler"
	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/model"
)

// RegisterAdmin registers ADMIN-only endpoints under /v1/admin.  r may be
// nil when replies are disabled.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, s *handler.SuggestionHandler, r *handler.ReplyHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Users ----
	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id/access", a.SetAccess)
	g.DELETE("/users/:id", a.DeleteUser)

	// ---- Suggestions ----
	g.DELETE("/suggestions/:id", s.Delete)

	// ---- Replies ----
	if r != nil {
		g.POST("/suggestions/:id/replies", r.Create)
		g.DELETE("/replies/:id", r.Delete)
	}
}
