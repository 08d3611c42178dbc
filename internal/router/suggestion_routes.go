package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/handler"
	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/model"
)

// RegisterSuggestions registers the suggestion board for users holding
// suggestion access and for the admin.  r may be nil when replies are
// disabled.
func RegisterSuggestions(e *echo.Echo, s *handler.SuggestionHandler, r *handler.ReplyHandler,
	jwtSecret string, access middleware.AccessChecker, cache *middleware.ResponseCache) {
	g := e.Group("/v1/suggestions",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		middleware.RequireSuggestionAccess(access),
	)
	g.GET("", s.List, cache.Middleware())
	g.POST("", s.Submit)
	if r != nil {
		g.GET("/:id/replies", r.List)
	}
}
