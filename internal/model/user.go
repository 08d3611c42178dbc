package model

// User represents a row in the `users` table.  The admin bypass identity is
// never a User: it exists only as configuration.
//
// Fields:
//  ID               – primary key identifier, the stable key for admin operations.
//  Username         – unique login name.
//  Password         – bcrypt hash (or plaintext in databases written by the old app).
//  ContactNumber    – optional 10 character recovery secret.
//  SuggestionAccess – whether the user may submit and read suggestions.
type User struct {
	ID               uint64 // users.id
	Username         string // users.username
	Password         string // users.password
	ContactNumber    string // users.contact_number (NULL reads as "")
	SuggestionAccess bool   // users.suggestion_access
}

// Roles carried in access tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
