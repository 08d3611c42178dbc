package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/testutil"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(testutil.SetupTestDB(t))

	id, err := users.Create(ctx, "asha", "pw", "0123456789")
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := users.Create(ctx, "asha", "other", "9999999999")
		assert.ErrorIs(t, err, ErrUsernameExists)

		u, err := users.GetByUsername(ctx, "asha")
		require.NoError(t, err)
		assert.Equal(t, "pw", u.Password)
		assert.Equal(t, "0123456789", u.ContactNumber)
	})

	t.Run("new users have no access", func(t *testing.T) {
		u, err := users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, u.SuggestionAccess)
	})

	t.Run("set access is idempotent", func(t *testing.T) {
		require.NoError(t, users.SetAccess(ctx, id, true))
		require.NoError(t, users.SetAccess(ctx, id, true))
		u, err := users.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, u.SuggestionAccess)
	})

	t.Run("unknown ids", func(t *testing.T) {
		assert.ErrorIs(t, users.SetAccess(ctx, 999, true), ErrNotFound)
		assert.ErrorIs(t, users.Delete(ctx, 999), ErrNotFound)
		_, err := users.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, users.UpdatePassword(ctx, "nobody", "x"), ErrNotFound)
	})

	t.Run("list skips excluded username", func(t *testing.T) {
		_, err := users.Create(ctx, "omadmin", "legacy", "")
		require.NoError(t, err)
		list, err := users.ListExcept(ctx, "omadmin")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "asha", list[0].Username)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, id))
		assert.ErrorIs(t, users.Delete(ctx, id), ErrNotFound)
	})
}

func TestSuggestionAndReplyRepos(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	suggestions := NewSuggestionRepo(db)
	replies := NewReplyRepo(db)

	first, err := suggestions.Create(ctx, "asha", "more plants")
	require.NoError(t, err)
	second, err := suggestions.Create(ctx, "omadmin", "quiet hours")
	require.NoError(t, err)

	list, err := suggestions.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Suggestion{first, second}, list)

	r1, err := replies.Create(ctx, first.ID, "omadmin", "ordered")
	require.NoError(t, err)
	_, err = replies.Create(ctx, second.ID, "omadmin", "agreed")
	require.NoError(t, err)

	// a reply may point at a suggestion that never existed
	_, err = replies.Create(ctx, 4242, "omadmin", "stray")
	require.NoError(t, err)

	require.NoError(t, suggestions.Delete(ctx, first.ID))
	assert.ErrorIs(t, suggestions.Delete(ctx, first.ID), ErrNotFound)
	_, err = suggestions.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	orphans, err := replies.ListBySuggestion(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.Reply{r1}, orphans)

	all, err := replies.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, replies.Delete(ctx, r1.ID))
	assert.ErrorIs(t, replies.Delete(ctx, r1.ID), ErrNotFound)
}

func TestTokenRepo(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenRepo(testutil.SetupTestDB(t))
	exp := time.Now().Add(time.Hour)

	require.NoError(t, tokens.Store(ctx, "asha", model.TokenReset, "h1", exp))
	require.NoError(t, tokens.Store(ctx, "asha", model.TokenRefresh, "h2", exp))
	require.NoError(t, tokens.Store(ctx, "asha", model.TokenRefresh, "old", time.Now().Add(-time.Minute)))

	t.Run("kind must match", func(t *testing.T) {
		_, err := tokens.Validate(ctx, model.TokenRefresh, "h1")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		_, err := tokens.Validate(ctx, model.TokenRefresh, "old")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("consume is single use", func(t *testing.T) {
		subject, err := tokens.Consume(ctx, model.TokenReset, "h1")
		require.NoError(t, err)
		assert.Equal(t, "asha", subject)
		_, err = tokens.Consume(ctx, model.TokenReset, "h1")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("revoke all for subject", func(t *testing.T) {
		subject, err := tokens.Validate(ctx, model.TokenRefresh, "h2")
		require.NoError(t, err)
		assert.Equal(t, "asha", subject)
		require.NoError(t, tokens.RevokeAllForSubject(ctx, "asha", model.TokenRefresh))
		_, err = tokens.Validate(ctx, model.TokenRefresh, "h2")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}
