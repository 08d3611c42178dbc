package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suggestion-box/internal/config"
	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/service"
	"github.com/iliyamo/suggestion-box/internal/utils"
)

const secret = "test-jwt-secret"

func run(t *testing.T, req *http.Request, h echo.HandlerFunc, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/x", h, mw...)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, username string, id uint64, role string) *http.Request {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, username, id, role, 5)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return req
}

func TestJWTAuth(t *testing.T) {
	var got service.Actor
	h := func(c echo.Context) error {
		got = Actor(c)
		return c.NoContent(http.StatusOK)
	}

	rec := run(t, bearer(t, "asha", 7, model.RoleUser), h, JWTAuth(secret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.Actor{Username: "asha", UserID: 7}, got)

	rec = run(t, bearer(t, "omadmin", 0, model.RoleAdmin), h, JWTAuth(secret))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, got.Admin)

	rec = run(t, httptest.NewRequest(http.MethodGet, "/x", nil), h, JWTAuth(secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = run(t, req, h, JWTAuth(secret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = run(t, bearer(t, "asha", 7, model.RoleUser), h, JWTAuth("another-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	rec := run(t, bearer(t, "asha", 7, model.RoleUser), ok, JWTAuth(secret), RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = run(t, bearer(t, "omadmin", 0, model.RoleAdmin), ok, JWTAuth(secret), RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type stubChecker struct{ err error }

func (s stubChecker) CheckSuggestionAccess(context.Context, service.Actor) error { return s.err }

func TestRequireSuggestionAccess(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"granted", nil, http.StatusOK},
		{"denied", service.ErrAccessDenied, http.StatusForbidden},
		{"store failure", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := run(t, bearer(t, "asha", 7, model.RoleUser), ok, JWTAuth(secret), RequireSuggestionAccess(stubChecker{tt.err}))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDisabledRedisMiddlewarePassesThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "fresh") }

	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil)
	assert.Nil(t, rc)
	rc.Purge(context.Background())

	limiter := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	for i := 0; i < 3; i++ {
		rec := run(t, httptest.NewRequest(http.MethodGet, "/x", nil), ok, limiter, rc.Middleware())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "fresh", rec.Body.String())
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
}

func TestCacheKeySeparatesRoles(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "sb:cache", KeyStrategy: "role_route_query"}
	e := echo.New()
	key := func(role string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/v1/suggestions", nil), httptest.NewRecorder())
		c.SetPath("/v1/suggestions")
		c.Set(CtxRole, role)
		return cacheKeyFrom(cfg, c)
	}
	assert.NotEqual(t, key(model.RoleAdmin), key(model.RoleUser))
	assert.Equal(t, key(model.RoleUser), key(model.RoleUser))
	assert.Contains(t, key(model.RoleUser), "sb:cache:")
}

func TestPayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")

	key := buildRateKey(config.RateLimitConfig{Prefix: "sb:rl", KeyStrategy: "ip_route"}, c)
	assert.Equal(t, "sb:rl:ip:10.0.0.1:route:POST /v1/auth/login", key)
}
