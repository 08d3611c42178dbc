package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/suggestion-box/internal/database"
	"github.com/iliyamo/suggestion-box/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, password, contact_number, suggestion_access"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u       model.User
		contact sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Password, &contact, &u.SuggestionAccess)
	u.ContactNumber = contact.String
	return u, err
}

// Create inserts a user without suggestion access and returns its ID.  The
// password must already be in its stored form.
func (r *UserRepo) Create(ctx context.Context, username, password, contact string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password, contact_number, suggestion_access) VALUES (?,?,?,?)",
		username, password, contact, false)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// ListExcept returns every user ordered by id, skipping the given username.
// The admin listing passes the admin identity here so it never shows up even
// if a database from the old app contains such a row.
func (r *UserRepo) ListExcept(ctx context.Context, excluded string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username<>? ORDER BY id", excluded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetAccess writes the suggestion_access flag.  Writing the current value
// again succeeds; an unknown id returns ErrNotFound.
func (r *UserRepo) SetAccess(ctx context.Context, id uint64, granted bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET suggestion_access=? WHERE id=?", granted, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the stored password of username.
func (r *UserRepo) UpdatePassword(ctx context.Context, username, password string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password=? WHERE username=?", password, username)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByUsername(ctx, username); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user by id and returns ErrNotFound if nothing was removed.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
