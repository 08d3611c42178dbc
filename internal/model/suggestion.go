package model

// Suggestion mirrors the `suggestions` table.  Username is a free-text
// author reference; it is the admin username for suggestions the admin
// posts.  Suggestions are never edited, only deleted.
type Suggestion struct {
	ID       uint64 `json:"id"`       // suggestions.id
	Username string `json:"username"` // suggestions.username
	Text     string `json:"text"`     // suggestions.suggestion
}

// Reply mirrors the `replies` table.  SuggestionID is not checked against
// suggestions; a reply whose suggestion was deleted stays readable.
type Reply struct {
	ID           uint64 `json:"id"`            // replies.id
	SuggestionID uint64 `json:"suggestion_id"` // replies.suggestion_id
	Username     string `json:"username"`      // replies.username
	Text         string `json:"text"`          // replies.reply
}
