package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
)

// Actor is the authenticated identity a command runs as.  It is built from
// access token claims by the HTTP layer and by hand in the CLI.
type Actor struct {
	Username string
	UserID   uint64 // zero for the admin
	Admin    bool
}

func (a Actor) Role() string {
	if a.Admin {
		return model.RoleAdmin
	}
	return model.RoleUser
}

func requireAdmin(a Actor) error {
	if !a.Admin {
		return ErrAccessDenied
	}
	return nil
}

// resolveUser loads the row behind a non-admin actor by id, the stable
// key.  The username must still match: a token issued before its user was
// deleted must not act as a later account that reused the name.
func resolveUser(ctx context.Context, users *repository.UserRepo, a Actor) (model.User, error) {
	u, err := users.GetByID(ctx, a.UserID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && u.Username != a.Username) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// checkSuggestionAccess reads the user row on every call so a grant or
// revoke takes effect on the user's next action, not their next login.
func checkSuggestionAccess(ctx context.Context, users *repository.UserRepo, a Actor) error {
	if a.Admin {
		return nil
	}
	u, err := resolveUser(ctx, users, a)
	if errors.Is(err, ErrNotFound) {
		return ErrAccessDenied
	}
	if err != nil {
		return err
	}
	if !u.SuggestionAccess {
		return ErrAccessDenied
	}
	return nil
}

// publish sends ev and logs failures; events never fail a command.
func publish(ctx context.Context, p queue.Publisher, ev queue.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.Warn("publish event failed", "type", ev.Type, "error", err)
	}
}

// notFound maps the repository sentinel onto the service one.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
