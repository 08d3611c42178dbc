package model

import "time"

// Token kinds stored in the `tokens` table.
const (
	TokenRefresh = "refresh" // login session
	TokenReset   = "reset"   // password reset ticket, issued after contact verification
)

// Token models an entry in the `tokens` table.  Only the SHA-256 hash of
// the raw value is stored.  Subject is a username rather than a user id so
// the admin identity, which has no users row, can hold sessions too.
//
// Fields:
//  ID        – primary key identifier.
//  Subject   – username the token belongs to.
//  Kind      – TokenRefresh or TokenReset.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked or consumed (nil while active).
//  CreatedAt – timestamp of creation.
type Token struct {
	ID        uint64     // tokens.id
	Subject   string     // tokens.subject
	Kind      string     // tokens.kind
	TokenHash string     // tokens.token_hash
	ExpiresAt time.Time  // tokens.expires_at
	RevokedAt *time.Time // tokens.revoked_at (nullable)
	CreatedAt time.Time  // tokens.created_at
}
