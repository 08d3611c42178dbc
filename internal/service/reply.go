package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
)

// ReplyService manages admin replies to suggestions.
type ReplyService struct {
	replies *repository.ReplyRepo
	events  queue.Publisher
}

func NewReplyService(replies *repository.ReplyRepo, events queue.Publisher) *ReplyService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &ReplyService{replies: replies, events: events}
}

// AddReply stores a reply from the admin.  The suggestion id is not
// checked; replying to a deleted suggestion creates an orphan.
func (s *ReplyService) AddReply(ctx context.Context, a Actor, suggestionID uint64, text string) (model.Reply, error) {
	if err := requireAdmin(a); err != nil {
		return model.Reply{}, err
	}
	if strings.TrimSpace(text) == "" {
		return model.Reply{}, ErrEmptyInput
	}
	r, err := s.replies.Create(ctx, suggestionID, a.Username, text)
	if err != nil {
		return model.Reply{}, fmt.Errorf("create reply: %w", err)
	}
	publish(ctx, s.events, queue.Event{
		Type: queue.EventReplyPosted, Actor: a.Username, SuggestionID: suggestionID, ReplyID: r.ID,
	})
	return r, nil
}

// ListFor returns the replies to one suggestion, including orphans.
func (s *ReplyService) ListFor(ctx context.Context, suggestionID uint64) ([]model.Reply, error) {
	return s.replies.ListBySuggestion(ctx, suggestionID)
}

// Delete removes one reply.
func (s *ReplyService) Delete(ctx context.Context, a Actor, id uint64) error {
	if err := requireAdmin(a); err != nil {
		return err
	}
	return notFound(s.replies.Delete(ctx, id))
}
