package router // package router wires handlers and middleware onto echo route groups

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/handler"
	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints.  Everything under /v1/auth
// is unauthenticated and goes through limiter; /v1/me and /v1/logout need
// a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/admin/login", a.AdminLogin)
	g.POST("/refresh", a.Refresh)
	g.POST("/password/verify", a.VerifyContact)
	g.POST("/password/reset", a.ResetPassword)

	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	)
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)
}

// Deps is everything Register needs.  Replies is nil when replies are
// disabled; Cache and Limiter may be no-ops.
type Deps struct {
	DB          *sql.DB
	JWTSecret   string
	Auth        *handler.AuthHandler
	Suggestions *handler.SuggestionHandler
	Replies     *handler.ReplyHandler
	Admin       *handler.AdminHandler
	Access      middleware.AccessChecker
	Cache       *middleware.ResponseCache
	Limiter     echo.MiddlewareFunc
}

// Register installs every route group on e.
func Register(e *echo.Echo, d Deps) {
	limiter := d.Limiter
	if limiter == nil {
		limiter = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret, limiter)
	RegisterSuggestions(e, d.Suggestions, d.Replies, d.JWTSecret, d.Access, d.Cache)
	RegisterAdmin(e, d.Admin, d.Suggestions, d.Replies, d.JWTSecret)
}
