package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suggestion-box/internal/handler"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
	"github.com/iliyamo/suggestion-box/internal/service"
	"github.com/iliyamo/suggestion-box/internal/testutil"
)

func newServer(t *testing.T, repliesEnabled bool) *echo.Echo {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	users := repository.NewUserRepo(db)
	var replyRepo *repository.ReplyRepo
	if repliesEnabled {
		replyRepo = repository.NewReplyRepo(db)
	}

	access := service.NewAccessService(cfg, users, repository.NewTokenRepo(db), queue.NopPublisher{})
	suggestions := service.NewSuggestionService(users, repository.NewSuggestionRepo(db), replyRepo, nil)
	var replies *handler.ReplyHandler
	if repliesEnabled {
		replies = handler.NewReplyHandler(service.NewReplyService(replyRepo, nil), nil, cfg.AdminUsername)
	}

	e := echo.New()
	Register(e, Deps{
		DB:          db,
		JWTSecret:   cfg.JWTSecret,
		Auth:        handler.NewAuthHandler(access),
		Suggestions: handler.NewSuggestionHandler(suggestions, nil, cfg.AdminUsername),
		Replies:     replies,
		Admin:       handler.NewAdminHandler(access),
		Access:      access,
	})
	return e
}

func do(t *testing.T, e *echo.Echo, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, testutil.MakeRequest(method, path, body, token))
	return rec
}

type session struct {
	User struct {
		ID               uint64 `json:"id"`
		Username         string `json:"username"`
		Role             string `json:"role"`
		SuggestionAccess bool   `json:"suggestion_access"`
	} `json:"user"`
	Access  struct{ Token string } `json:"access"`
	Refresh struct{ Token string } `json:"refresh"`
}

type suggestionJSON struct {
	ID       uint64 `json:"id"`
	Author   string `json:"author"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Replies  []struct {
		ID       uint64 `json:"id"`
		Author   string `json:"author"`
		Username string `json:"username"`
		Text     string `json:"text"`
	} `json:"replies"`
}

func register(t *testing.T, e *echo.Echo, username string) session {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": username, "password": "pw", "contact_number": "0123456789",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s session
	testutil.DecodeJSON(t, rec, &s)
	return s
}

func adminLogin(t *testing.T, e *echo.Echo) session {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/v1/auth/admin/login", map[string]string{
		"username": "omadmin", "password": "ompass",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s session
	testutil.DecodeJSON(t, rec, &s)
	return s
}

func TestHealth(t *testing.T) {
	e := newServer(t, true)
	rec := do(t, e, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	e := newServer(t, true)
	s := register(t, e, "asha")
	assert.Equal(t, "USER", s.User.Role)
	assert.False(t, s.User.SuggestionAccess)

	rec := do(t, e, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "asha", "password": "x", "contact_number": "0123456789",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "bo", "password": "x", "contact_number": "123",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", map[string]string{"username": "asha", "password": "pw"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/auth/login", map[string]string{"username": "asha", "password": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/auth/admin/login", map[string]string{"username": "omadmin", "password": "bad"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/me", nil, s.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	testutil.DecodeJSON(t, rec, &me)
	assert.Equal(t, "asha", me.Username)

	rec = do(t, e, http.MethodGet, "/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuggestionFlow(t *testing.T) {
	e := newServer(t, true)
	user := register(t, e, "asha")
	admin := adminLogin(t, e)

	// no access yet
	rec := do(t, e, http.MethodPost, "/v1/suggestions", map[string]string{"text": "hello"}, user.Access.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, e, http.MethodGet, "/v1/suggestions", nil, user.Access.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// users cannot reach admin routes
	rec = do(t, e, http.MethodGet, "/v1/admin/users", nil, user.Access.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	grant := fmt.Sprintf("/v1/admin/users/%d/access", user.User.ID)
	rec = do(t, e, http.MethodPatch, grant, map[string]bool{"granted": true}, admin.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, e, http.MethodPatch, grant, map[string]string{}, admin.Access.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, e, http.MethodPatch, "/v1/admin/users/999/access", map[string]bool{"granted": true}, admin.Access.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the token issued before the grant works now
	rec = do(t, e, http.MethodPost, "/v1/suggestions", map[string]string{"text": "   "}, user.Access.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/suggestions", map[string]string{"text": "hello"}, user.Access.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created suggestionJSON
	testutil.DecodeJSON(t, rec, &created)

	replyPath := fmt.Sprintf("/v1/admin/suggestions/%d/replies", created.ID)
	rec = do(t, e, http.MethodPost, replyPath, map[string]string{"text": "thanks"}, user.Access.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, e, http.MethodPost, replyPath, map[string]string{"text": "thanks"}, admin.Access.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// users see labels only
	rec = do(t, e, http.MethodGet, "/v1/suggestions", nil, user.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []suggestionJSON
	testutil.DecodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "User", list[0].Author)
	assert.Empty(t, list[0].Username)
	require.Len(t, list[0].Replies, 1)
	assert.Equal(t, "Admin", list[0].Replies[0].Author)
	assert.Empty(t, list[0].Replies[0].Username)

	// admins also see usernames
	rec = do(t, e, http.MethodGet, "/v1/suggestions", nil, admin.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	testutil.DecodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "asha", list[0].Username)

	// deleting keeps the replies reachable
	del := fmt.Sprintf("/v1/admin/suggestions/%d", created.ID)
	rec = do(t, e, http.MethodDelete, del, nil, admin.Access.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodDelete, del, nil, admin.Access.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, fmt.Sprintf("/v1/suggestions/%d/replies", created.ID), nil, user.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var replies []struct{ Text string }
	testutil.DecodeJSON(t, rec, &replies)
	require.Len(t, replies, 1)
	assert.Equal(t, "thanks", replies[0].Text)

	// revoke applies immediately
	rec = do(t, e, http.MethodPatch, grant, map[string]bool{"granted": false}, admin.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/suggestions", map[string]string{"text": "again"}, user.Access.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminUsers(t *testing.T) {
	e := newServer(t, true)
	asha := register(t, e, "asha")
	register(t, e, "bo")
	admin := adminLogin(t, e)

	rec := do(t, e, http.MethodGet, "/v1/admin/users", nil, admin.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []struct {
		ID       uint64 `json:"id"`
		Username string `json:"username"`
	}
	testutil.DecodeJSON(t, rec, &users)
	require.Len(t, users, 2)
	assert.Equal(t, "asha", users[0].Username)
	assert.NotContains(t, rec.Body.String(), "contact")
	assert.NotContains(t, rec.Body.String(), "password")

	path := fmt.Sprintf("/v1/admin/users/%d", asha.User.ID)
	rec = do(t, e, http.MethodDelete, path, nil, admin.Access.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodDelete, path, nil, admin.Access.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": asha.Refresh.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPasswordResetAndLogout(t *testing.T) {
	e := newServer(t, true)
	s := register(t, e, "asha")

	rec := do(t, e, http.MethodPost, "/v1/auth/password/verify", map[string]string{
		"username": "asha", "contact_number": "1111111111",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/password/verify", map[string]string{
		"username": "asha", "contact_number": "0123456789",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ticket struct {
		ResetToken string `json:"reset_token"`
	}
	testutil.DecodeJSON(t, rec, &ticket)
	require.NotEmpty(t, ticket.ResetToken)

	rec = do(t, e, http.MethodPost, "/v1/auth/password/reset", map[string]string{
		"reset_token": ticket.ResetToken, "new_password": "newpw", "confirm_password": "nope",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/auth/password/reset", map[string]string{
		"reset_token": ticket.ResetToken, "new_password": "newpw", "confirm_password": "newpw",
	}, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", map[string]string{"username": "asha", "password": "newpw"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fresh session
	testutil.DecodeJSON(t, rec, &fresh)

	// the registration session was ended by the reset
	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": s.Refresh.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/logout", map[string]string{"refresh_token": fresh.Refresh.Token}, fresh.Access.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": fresh.Refresh.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRejectsMalformedBody(t *testing.T) {
	e := newServer(t, true)
	s := register(t, e, "asha")

	req := httptest.NewRequest(http.MethodPost, "/v1/logout", strings.NewReader(`{"refresh_token":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Access.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// nothing was revoked by the rejected call
	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": s.Refresh.Token}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var next session
	testutil.DecodeJSON(t, rec, &next)

	// no body at all still ends every session
	rec = do(t, e, http.MethodPost, "/v1/logout", nil, next.Access.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, e, http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": next.Refresh.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	e := newServer(t, true)
	rec := do(t, e, http.MethodPost, "/v1/auth/register", map[string]string{
		"username": "asha", "password": strings.Repeat("p", 73), "contact_number": "0123456789",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/auth/login", map[string]string{"username": "asha", "password": "pw"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRepliesDisabled(t *testing.T) {
	e := newServer(t, false)
	admin := adminLogin(t, e)

	rec := do(t, e, http.MethodPost, "/v1/suggestions", map[string]string{"text": "hello"}, admin.Access.Token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, e, http.MethodPost, "/v1/admin/suggestions/1/replies", map[string]string{"text": "x"}, admin.Access.Token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, e, http.MethodGet, "/v1/suggestions", nil, admin.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []suggestionJSON
	testutil.DecodeJSON(t, rec, &list)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Replies)
}
