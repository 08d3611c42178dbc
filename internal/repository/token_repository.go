package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/suggestion-box/internal/model"
)

// TokenRepo persists refresh tokens and password reset tickets by hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a token hash row.
func (r *TokenRepo) Store(ctx context.Context, subject, kind, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tokens (subject, kind, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)",
		subject, kind, tokenHash, exp.UTC(), time.Now().UTC())
	return err
}

// lookup returns an active token of the given kind.
func (r *TokenRepo) lookup(ctx context.Context, kind, tokenHash string) (model.Token, error) {
	var (
		t         model.Token
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, subject, kind, token_hash, expires_at, revoked_at, created_at FROM tokens WHERE token_hash=? AND kind=? LIMIT 1",
		tokenHash, kind).Scan(&t.ID, &t.Subject, &t.Kind, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Token{}, ErrTokenInvalid
	}
	if err != nil {
		return model.Token{}, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	if t.RevokedAt != nil || time.Now().UTC().After(t.ExpiresAt) {
		return model.Token{}, ErrTokenInvalid
	}
	return t, nil
}

// Validate returns the subject of a non-revoked, non-expired token.
func (r *TokenRepo) Validate(ctx context.Context, kind, tokenHash string) (string, error) {
	t, err := r.lookup(ctx, kind, tokenHash)
	return t.Subject, err
}

// Consume validates a token and revokes it in the same step.  Of two
// concurrent callers presenting the same token only one succeeds.
func (r *TokenRepo) Consume(ctx context.Context, kind, tokenHash string) (string, error) {
	t, err := r.lookup(ctx, kind, tokenHash)
	if err != nil {
		return "", err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET revoked_at=? WHERE id=? AND revoked_at IS NULL",
		time.Now().UTC(), t.ID)
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n != 1 {
		return "", ErrTokenInvalid
	}
	return t.Subject, nil
}

// RevokeByHash marks a token as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		time.Now().UTC(), tokenHash)
	return err
}

// RevokeAllForSubject revokes the subject's active tokens of one kind, or of
// every kind when kind is empty.
func (r *TokenRepo) RevokeAllForSubject(ctx context.Context, subject, kind string) error {
	q := "UPDATE tokens SET revoked_at=? WHERE subject=? AND revoked_at IS NULL"
	args := []any{time.Now().UTC(), subject}
	if kind != "" {
		q += " AND kind=?"
		args = append(args, kind)
	}
	_, err := r.DB.ExecContext(ctx, q, args...)
	return err
}
