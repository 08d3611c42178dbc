// Package testutil holds helpers shared by package tests: an in-memory
// store with the full schema, a standard config and request builders.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suggestion-box/internal/config"
	"github.com/iliyamo/suggestion-box/internal/database"
)

// SetupTestDB opens a private in-memory SQLite database with the schema
// applied.  It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err, "open test database")
	require.NoError(t, database.CreateSchema(context.Background(), db, database.DriverSQLite), "create schema")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// GetTestConfig returns a configuration with cheap bcrypt and the default
// admin pair.
func GetTestConfig() config.Config {
	return config.Config{
		Env:            "test",
		Port:           "0",
		DBDriver:       database.DriverSQLite,
		DBPath:         ":memory:",
		JWTSecret:      "test-jwt-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 1,
		ResetTTLMin:    5,
		BcryptCost:     4,
		AdminUsername:  "omadmin",
		AdminPassword:  "ompass",
		RepliesEnabled: true,
		EventLogDir:    "logs",
	}
}

// MakeRequest creates an HTTP test request with an optional JSON body and
// bearer token.
func MakeRequest(method, path string, body any, token string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// DecodeJSON decodes the recorded response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), "decode body: %s", w.Body.String())
}
