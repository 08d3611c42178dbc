package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
)

// SuggestionThread is a suggestion together with its replies, the shape
// the listing endpoint returns.
type SuggestionThread struct {
	Suggestion model.Suggestion `json:"suggestion"`
	Replies    []model.Reply    `json:"replies"`
}

// SuggestionService creates, lists and deletes suggestions.
type SuggestionService struct {
	users          *repository.UserRepo
	suggestions    *repository.SuggestionRepo
	replies        *repository.ReplyRepo
	events         queue.Publisher
	repliesEnabled bool
}

// NewSuggestionService wires the service.  replies may be nil when the reply
// feature is turned off.
func NewSuggestionService(users *repository.UserRepo, suggestions *repository.SuggestionRepo, replies *repository.ReplyRepo, events queue.Publisher) *SuggestionService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &SuggestionService{
		users:          users,
		suggestions:    suggestions,
		replies:        replies,
		events:         events,
		repliesEnabled: replies != nil,
	}
}

// Submit stores a suggestion written by the actor.  Blank text is rejected
// before the access check so the error says what the caller can fix.
func (s *SuggestionService) Submit(ctx context.Context, a Actor, text string) (model.Suggestion, error) {
	if strings.TrimSpace(text) == "" {
		return model.Suggestion{}, ErrEmptyInput
	}
	if err := checkSuggestionAccess(ctx, s.users, a); err != nil {
		return model.Suggestion{}, err
	}
	sg, err := s.suggestions.Create(ctx, a.Username, text)
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("create suggestion: %w", err)
	}
	publish(ctx, s.events, queue.Event{
		Type: queue.EventSuggestionSubmitted, Actor: a.Username, SuggestionID: sg.ID,
	})
	return sg, nil
}

// ListAll returns every suggestion in insertion order.
func (s *SuggestionService) ListAll(ctx context.Context) ([]model.Suggestion, error) {
	return s.suggestions.List(ctx)
}

// ListWithReplies returns every suggestion with its replies attached.  Replies
// whose suggestion is gone do not appear here; ReplyService.ListFor still
// returns them.
func (s *SuggestionService) ListWithReplies(ctx context.Context) ([]SuggestionThread, error) {
	list, err := s.suggestions.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := map[uint64][]model.Reply{}
	if s.repliesEnabled {
		all, err := s.replies.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range all {
			byID[r.SuggestionID] = append(byID[r.SuggestionID], r)
		}
	}
	out := make([]SuggestionThread, 0, len(list))
	for _, sg := range list {
		replies := byID[sg.ID]
		if replies == nil {
			replies = []model.Reply{}
		}
		out = append(out, SuggestionThread{Suggestion: sg, Replies: replies})
	}
	return out, nil
}

// Delete removes a suggestion.  Its replies are kept.
func (s *SuggestionService) Delete(ctx context.Context, a Actor, id uint64) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	if err := s.suggestions.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	publish(ctx, s.events, queue.Event{
		Type: queue.EventSuggestionDeleted, Actor: a.Username, SuggestionID: id,
	})
	return nil
}
