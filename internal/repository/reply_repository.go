package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/suggestion-box/internal/model"
)

// ReplyRepo encapsulates queries on the replies table.
type ReplyRepo struct {
	db *sql.DB
}

func NewReplyRepo(db *sql.DB) *ReplyRepo {
	return &ReplyRepo{db: db}
}

// Create inserts a reply.  The suggestion id is stored as given.
func (r *ReplyRepo) Create(ctx context.Context, suggestionID uint64, username, text string) (model.Reply, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO replies (suggestion_id, username, reply) VALUES (?, ?, ?)",
		suggestionID, username, text)
	if err != nil {
		return model.Reply{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reply{}, err
	}
	return model.Reply{ID: uint64(id), SuggestionID: suggestionID, Username: username, Text: text}, nil
}

// ListBySuggestion returns the replies of one suggestion in insertion order,
// whether or not the suggestion still exists.
func (r *ReplyRepo) ListBySuggestion(ctx context.Context, suggestionID uint64) ([]model.Reply, error) {
	return r.query(ctx,
		"SELECT id, suggestion_id, username, reply FROM replies WHERE suggestion_id = ? ORDER BY id",
		suggestionID)
}

// ListAll returns every reply ordered by id.  Used to build the threaded
// listing with one query instead of one per suggestion.
func (r *ReplyRepo) ListAll(ctx context.Context) ([]model.Reply, error) {
	return r.query(ctx, "SELECT id, suggestion_id, username, reply FROM replies ORDER BY id")
}

func (r *ReplyRepo) query(ctx context.Context, q string, args ...any) ([]model.Reply, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reply{}
	for rows.Next() {
		var rp model.Reply
		if err := rows.Scan(&rp.ID, &rp.SuggestionID, &rp.Username, &rp.Text); err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// Delete removes one reply.
func (r *ReplyRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM replies WHERE id = ?", id)
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
