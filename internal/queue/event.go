// Package queue defines message payloads exchanged over the message broker.
package queue

// Event types published on the suggestion.events queue.
const (
	EventSuggestionSubmitted = "suggestion.submitted"
	EventSuggestionDeleted   = "suggestion.deleted"
	EventReplyPosted         = "reply.posted"
	EventUserAccessChanged   = "user.access_changed"
	EventUserDeleted         = "user.deleted"
)

// Event is published after a state change so downstream consumers can
// audit moderation activity without querying the primary database.  Only
// the fields relevant to Type are set.
type Event struct {
	Type         string `json:"type"`
	Actor        string `json:"actor"`
	SuggestionID uint64 `json:"suggestion_id,omitempty"`
	ReplyID      uint64 `json:"reply_id,omitempty"`
	UserID       uint64 `json:"user_id,omitempty"`
	Username     string `json:"username,omitempty"`
	Granted      *bool  `json:"granted,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}
