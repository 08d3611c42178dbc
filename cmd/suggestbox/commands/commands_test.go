package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI against a fresh SQLite file and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// flag variables keep their values between executions
	jsonOutput = false
	dbPath = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "box.db")
	t.Setenv("JWT_SECRET", "cli-test-secret")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", path)
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("EVENTS_ENABLED", "false")
	return path
}

func seedUser(t *testing.T, username string) uint64 {
	t.Helper()
	s, err := openStores(context.Background())
	require.NoError(t, err)
	defer s.Close()
	u, _, err := s.access.Register(context.Background(), username, "pw", "0123456789")
	require.NoError(t, err)
	return u.ID
}

func TestMigrate(t *testing.T) {
	path := setupEnv(t)
	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready")
	assert.Contains(t, out, path)
}

func TestUsersCommands(t *testing.T) {
	setupEnv(t)
	id := strconv.FormatUint(seedUser(t, "asha"), 10)

	out, err := execute(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "asha")
	assert.NotContains(t, out, "omadmin")

	_, err = execute(t, "users", "grant", id)
	require.NoError(t, err)

	out, err = execute(t, "users", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"suggestion_access": true`)

	_, err = execute(t, "users", "revoke", id)
	require.NoError(t, err)

	_, err = execute(t, "users", "grant", "abc")
	assert.Error(t, err)
	_, err = execute(t, "users", "grant", "99")
	assert.Error(t, err)

	out, err = execute(t, "users", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = execute(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no users")
}

func TestSuggestionsList(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "suggestions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no suggestions")

	s, err := openStores(context.Background())
	require.NoError(t, err)
	_, err = s.suggestions.Submit(context.Background(), s.admin, "longer lunch")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	out, err = execute(t, "suggestions", "list", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "longer lunch")
	assert.Contains(t, out, `"username": "omadmin"`)
}

func TestCommandsRunWithoutJWTSecret(t *testing.T) {
	setupEnv(t)
	seedUser(t, "asha")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	out, err := execute(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "asha")

	out, err = execute(t, "suggestions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no suggestions")
}
