package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/suggestion-box/internal/model"
)

// SuggestionRepo encapsulates queries on the suggestions table.
type SuggestionRepo struct {
	db *sql.DB
}

func NewSuggestionRepo(db *sql.DB) *SuggestionRepo {
	return &SuggestionRepo{db: db}
}

// Create inserts a suggestion and returns it with its generated id.
func (r *SuggestionRepo) Create(ctx context.Context, username, text string) (model.Suggestion, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO suggestions (username, suggestion) VALUES (?, ?)", username, text)
	if err != nil {
		return model.Suggestion{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Suggestion{}, err
	}
	return model.Suggestion{ID: uint64(id), Username: username, Text: text}, nil
}

// GetByID fetches a single suggestion.
func (r *SuggestionRepo) GetByID(ctx context.Context, id uint64) (model.Suggestion, error) {
	var s model.Suggestion
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, suggestion FROM suggestions WHERE id = ?", id).Scan(&s.ID, &s.Username, &s.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Suggestion{}, ErrNotFound
	}
	return s, err
}

// List returns all suggestions in insertion order.
func (r *SuggestionRepo) List(ctx context.Context) ([]model.Suggestion, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, username, suggestion FROM suggestions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Suggestion{}
	for rows.Next() {
		var s model.Suggestion
		if err := rows.Scan(&s.ID, &s.Username, &s.Text); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes one suggestion.  Replies pointing at it are left alone.
func (r *SuggestionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM suggestions WHERE id = ?", id)
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
