package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/service"
)

// AuthHandler serves registration, login, session and password reset
// endpoints.
type AuthHandler struct {
	Access *service.AccessService
}

func NewAuthHandler(access *service.AccessService) *AuthHandler {
	return &AuthHandler{Access: access}
}

// ----- DTOs -----

type registerReq struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ContactNumber string `json:"contact_number"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type verifyReq struct {
	Username      string `json:"username"`
	ContactNumber string `json:"contact_number"`
}
type resetReq struct {
	ResetToken      string `json:"reset_token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID               uint64 `json:"id,omitempty"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	SuggestionAccess bool   `json:"suggestion_access"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func sessionResp(s service.Session, access bool) authResp {
	return authResp{
		User:    userPart{ID: s.UserID, Username: s.Username, Role: s.Role, SuggestionAccess: access},
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp},
	}
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
}

// Register creates a user and returns a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, sess, err := h.Access.Register(ctx, req.Username, req.Password, req.ContactNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionResp(sess, u.SuggestionAccess))
}

// Login authenticates a regular user.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, sess, err := h.Access.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess, u.SuggestionAccess))
}

// AdminLogin authenticates the admin identity.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := h.Access.AdminAuthenticate(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess, true))
}

// Refresh rotates a refresh token and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	sess, err := h.Access.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}
	access := sess.Role == model.RoleAdmin
	if !access {
		if u, err := h.Access.Me(ctx, service.Actor{Username: sess.Username, UserID: sess.UserID}); err == nil {
			access = u.SuggestionAccess
		}
	}
	return c.JSON(http.StatusOK, sessionResp(sess, access))
}

// VerifyContact checks a username and contact number and returns a reset
// token valid for one password change.
func (h *AuthHandler) VerifyContact(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	ticket, err := h.Access.VerifyContact(ctx, req.Username, req.ContactNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"username":    ticket.Username,
		"reset_token": ticket.Token,
		"expires":     ticket.Expires,
	})
}

// ResetPassword sets a new password using a reset token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Access.ResetPassword(ctx, req.ResetToken, req.NewPassword, req.ConfirmPassword); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Logout revokes the refresh token in the body, or every session of the
// caller when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	// An empty body binds cleanly and ends every session of the caller.
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Access.Logout(ctx, middleware.Actor(c), req.RefreshToken); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's identity and current access flag.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	a := middleware.Actor(c)
	u, err := h.Access.Me(ctx, a)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, userPart{
		ID:               u.ID,
		Username:         u.Username,
		Role:             a.Role(),
		SuggestionAccess: u.SuggestionAccess,
	})
}
