package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/suggestion-box/internal/config"
	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
	"github.com/iliyamo/suggestion-box/internal/utils"
)

// contactNumberLen is the exact length a contact number must have.
const contactNumberLen = 10

// Session is the result of a successful login: a short-lived access token
// and a refresh token stored by hash.
type Session struct {
	Username string
	UserID   uint64
	Role     string
	Access   utils.AccessToken
	Refresh  utils.OpaqueToken
}

// ResetTicket proves the holder matched a user's contact number.  It is
// single use and expires after RESET_TOKEN_TTL_MIN.
type ResetTicket struct {
	Username string
	Token    string
	Expires  time.Time
}

// AccessService handles registration, login for users and the admin,
// sessions, password reset and the admin's user controls.
type AccessService struct {
	cfg    config.Config
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	events queue.Publisher
}

func NewAccessService(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo, events queue.Publisher) *AccessService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AccessService{cfg: cfg, users: users, tokens: tokens, events: events}
}

// AdminActor is the identity the CLI acts as.
func (s *AccessService) AdminActor() Actor {
	return Actor{Username: s.cfg.AdminUsername, Admin: true}
}

// Register creates a user without suggestion access and logs them in.
func (s *AccessService) Register(ctx context.Context, username, password, contact string) (model.User, Session, error) {
	username = strings.TrimSpace(username)
	contact = strings.TrimSpace(contact)
	if username == "" || password == "" || contact == "" {
		return model.User{}, Session{}, ErrEmptyInput
	}
	if utf8.RuneCountInString(contact) != contactNumberLen {
		return model.User{}, Session{}, ErrInvalidContact
	}
	if s.isAdminName(username) {
		return model.User{}, Session{}, ErrReservedUsername
	}
	if len(password) > utils.MaxPasswordBytes {
		return model.User{}, Session{}, ErrPasswordTooLong
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, Session{}, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.users.Create(ctx, username, hash, contact)
	if errors.Is(err, repository.ErrUsernameExists) {
		return model.User{}, Session{}, ErrDuplicateUsername
	}
	if err != nil {
		return model.User{}, Session{}, fmt.Errorf("create user: %w", err)
	}

	u := model.User{ID: id, Username: username, Password: hash, ContactNumber: contact}
	sess, err := s.issueSession(ctx, username, id, model.RoleUser)
	if err != nil {
		return model.User{}, Session{}, err
	}
	slog.Info("user registered", "user_id", id)
	return u, sess, nil
}

// Authenticate checks a regular user's credentials.  Unknown usernames and
// wrong passwords give the same error.
func (s *AccessService) Authenticate(ctx context.Context, username, password string) (model.User, Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, Session{}, ErrEmptyInput
	}
	if s.isAdminName(username) {
		return model.User{}, Session{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, Session{}, fmt.Errorf("load user: %w", err)
	}
	ok, legacy := utils.VerifyPassword(u.Password, password, s.cfg.LegacyPlaintext)
	if !ok {
		return model.User{}, Session{}, ErrInvalidCredentials
	}
	if legacy {
		s.upgradePassword(ctx, u.Username, password)
	}

	sess, err := s.issueSession(ctx, u.Username, u.ID, model.RoleUser)
	if err != nil {
		return model.User{}, Session{}, err
	}
	return u, sess, nil
}

// upgradePassword replaces a plaintext password with its hash.  Failure only
// means the upgrade is retried on the next login.
func (s *AccessService) upgradePassword(ctx context.Context, username, password string) {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err == nil {
		err = s.users.UpdatePassword(ctx, username, hash)
	}
	if err != nil {
		slog.Warn("legacy password upgrade failed", "username", username, "error", err)
		return
	}
	slog.Info("legacy password upgraded", "username", username)
}

// IsAdmin reports whether the pair matches the configured admin credentials.
func (s *AccessService) IsAdmin(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	return userOK && passOK
}

func (s *AccessService) isAdminName(username string) bool {
	return strings.EqualFold(strings.TrimSpace(username), s.cfg.AdminUsername)
}

// AdminAuthenticate logs in the admin bypass identity.
func (s *AccessService) AdminAuthenticate(ctx context.Context, username, password string) (Session, error) {
	if !s.IsAdmin(username, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issueSession(ctx, s.cfg.AdminUsername, 0, model.RoleAdmin)
}

func (s *AccessService) issueSession(ctx context.Context, username string, userID uint64, role string) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, username, userID, role, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewOpaqueToken(time.Duration(s.cfg.RefreshTTLDays) * 24 * time.Hour)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokens.Store(ctx, username, model.TokenRefresh, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("save refresh token: %w", err)
	}
	return Session{Username: username, UserID: userID, Role: role, Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token: the presented one is consumed and a new
// session is issued.  Sessions of deleted users cannot be refreshed.
func (s *AccessService) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrEmptyInput
	}
	subject, err := s.tokens.Consume(ctx, model.TokenRefresh, utils.HashToken(raw))
	if errors.Is(err, repository.ErrTokenInvalid) {
		return Session{}, ErrInvalidTicket
	}
	if err != nil {
		return Session{}, fmt.Errorf("consume refresh token: %w", err)
	}
	if subject == s.cfg.AdminUsername {
		return s.issueSession(ctx, subject, 0, model.RoleAdmin)
	}
	u, err := s.users.GetByUsername(ctx, subject)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidTicket
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return s.issueSession(ctx, u.Username, u.ID, model.RoleUser)
}

// Logout ends one session when refreshToken is given, otherwise every
// session of the actor.
func (s *AccessService) Logout(ctx context.Context, a Actor, refreshToken string) error {
	if !a.Admin {
		if _, err := resolveUser(ctx, s.users, a); err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return s.tokens.RevokeAllForSubject(ctx, a.Username, model.TokenRefresh)
	}
	hash := utils.HashToken(refreshToken)
	subject, err := s.tokens.Validate(ctx, model.TokenRefresh, hash)
	if errors.Is(err, repository.ErrTokenInvalid) || (err == nil && subject != a.Username) {
		return ErrInvalidTicket
	}
	if err != nil {
		return fmt.Errorf("validate refresh token: %w", err)
	}
	return s.tokens.RevokeByHash(ctx, hash)
}

// VerifyContact is the first step of password reset.  On a match it issues
// a reset ticket; this is the only way to reach the verified state and it
// is independent of any login session.
func (s *AccessService) VerifyContact(ctx context.Context, username, contact string) (ResetTicket, error) {
	username = strings.TrimSpace(username)
	contact = strings.TrimSpace(contact)
	if username == "" || contact == "" {
		return ResetTicket{}, ErrEmptyInput
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return ResetTicket{}, ErrInvalidCredentials
	}
	if err != nil {
		return ResetTicket{}, fmt.Errorf("load user: %w", err)
	}
	if u.ContactNumber == "" || subtle.ConstantTimeCompare([]byte(u.ContactNumber), []byte(contact)) != 1 {
		return ResetTicket{}, ErrInvalidCredentials
	}

	// a new ticket replaces any earlier one
	if err := s.tokens.RevokeAllForSubject(ctx, u.Username, model.TokenReset); err != nil {
		return ResetTicket{}, fmt.Errorf("revoke reset tickets: %w", err)
	}
	tok, err := utils.NewOpaqueToken(time.Duration(s.cfg.ResetTTLMin) * time.Minute)
	if err != nil {
		return ResetTicket{}, fmt.Errorf("issue reset ticket: %w", err)
	}
	if err := s.tokens.Store(ctx, u.Username, model.TokenReset, utils.HashToken(tok.Raw), tok.Exp); err != nil {
		return ResetTicket{}, fmt.Errorf("save reset ticket: %w", err)
	}
	return ResetTicket{Username: u.Username, Token: tok.Raw, Expires: tok.Exp}, nil
}

// ResetPassword is the second step: it consumes the ticket and stores the
// new password.  There is no strength rule and no comparison with the old
// password.  All sessions of the user are ended.
func (s *AccessService) ResetPassword(ctx context.Context, ticket, newPassword, confirm string) error {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" || newPassword == "" {
		return ErrEmptyInput
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) > utils.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	username, err := s.tokens.Consume(ctx, model.TokenReset, utils.HashToken(ticket))
	if errors.Is(err, repository.ErrTokenInvalid) {
		return ErrInvalidTicket
	}
	if err != nil {
		return fmt.Errorf("consume reset ticket: %w", err)
	}

	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
		return notFound(err)
	}
	if err := s.tokens.RevokeAllForSubject(ctx, username, model.TokenRefresh); err != nil {
		slog.Warn("revoke sessions after reset failed", "username", username, "error", err)
	}
	slog.Info("password reset", "username", username)
	return nil
}

// Me returns the stored user behind a non-admin actor.  A token whose user
// was deleted gives ErrNotFound, even if the name was registered again.
func (s *AccessService) Me(ctx context.Context, a Actor) (model.User, error) {
	if a.Admin {
		return model.User{Username: a.Username, SuggestionAccess: true}, nil
	}
	return resolveUser(ctx, s.users, a)
}

// CheckSuggestionAccess returns ErrAccessDenied unless the actor is the
// admin or a user whose suggestion access is granted.
func (s *AccessService) CheckSuggestionAccess(ctx context.Context, a Actor) error {
	return checkSuggestionAccess(ctx, s.users, a)
}

// ListUsers returns all users except the admin identity.
func (s *AccessService) ListUsers(ctx context.Context, a Actor) ([]model.User, error) {
	if err := requireAdmin(a); err != nil {
		return nil, err
	}
	return s.users.ListExcept(ctx, s.cfg.AdminUsername)
}

// SetAccess grants or revokes suggestion access.  Repeating it is harmless;
// an unknown id returns ErrNotFound.
func (s *AccessService) SetAccess(ctx context.Context, a Actor, userID uint64, granted bool) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	if err := s.users.SetAccess(ctx, userID, granted); err != nil {
		return notFound(err)
	}
	publish(ctx, s.events, queue.Event{
		Type: queue.EventUserAccessChanged, Actor: a.Username, UserID: userID, Granted: &granted,
	})
	return nil
}

// DeleteUser removes a user by id and ends their sessions.  Suggestions
// they wrote stay.
func (s *AccessService) DeleteUser(ctx context.Context, a Actor, userID uint64) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound(err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return notFound(err)
	}
	if err := s.tokens.RevokeAllForSubject(ctx, u.Username, ""); err != nil {
		slog.Warn("revoke tokens of deleted user failed", "user_id", userID, "error", err)
	}
	publish(ctx, s.events, queue.Event{
		Type: queue.EventUserDeleted, Actor: a.Username, UserID: userID, Username: u.Username,
	})
	return nil
}
