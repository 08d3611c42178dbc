package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/model"
	"github.com/iliyamo/suggestion-box/internal/service"
)

// Author labels shown instead of usernames to regular users.
const (
	authorAdmin = "Admin"
	authorUser  = "User"
)

// SuggestionHandler serves the suggestion listing and submission endpoints
// and the admin delete.
type SuggestionHandler struct {
	Suggestions   *service.SuggestionService
	Cache         CachePurger
	AdminUsername string
}

func NewSuggestionHandler(s *service.SuggestionService, cache CachePurger, adminUsername string) *SuggestionHandler {
	return &SuggestionHandler{Suggestions: s, Cache: orNoPurge(cache), AdminUsername: adminUsername}
}

type replyView struct {
	ID           uint64 `json:"id"`
	SuggestionID uint64 `json:"suggestion_id"`
	Author       string `json:"author"`
	Username     string `json:"username,omitempty"`
	Text         string `json:"text"`
}

type suggestionView struct {
	ID       uint64      `json:"id"`
	Author   string      `json:"author"`
	Username string      `json:"username,omitempty"`
	Text     string      `json:"text"`
	Replies  []replyView `json:"replies"`
}

// author returns the label and, for admin viewers only, the username.
func author(username, adminUsername string, viewerIsAdmin bool) (string, string) {
	label := authorUser
	if username == adminUsername {
		label = authorAdmin
	}
	if !viewerIsAdmin {
		return label, ""
	}
	return label, username
}

func toReplyView(r model.Reply, adminUsername string, admin bool) replyView {
	label, name := author(r.Username, adminUsername, admin)
	return replyView{ID: r.ID, SuggestionID: r.SuggestionID, Author: label, Username: name, Text: r.Text}
}

type submitReq struct {
	Text string `json:"text"`
}

// List returns every suggestion with its replies.
func (h *SuggestionHandler) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	threads, err := h.Suggestions.ListWithReplies(ctx)
	if err != nil {
		return respondError(c, err)
	}
	admin := middleware.Actor(c).Admin
	out := make([]suggestionView, 0, len(threads))
	for _, t := range threads {
		label, name := author(t.Suggestion.Username, h.AdminUsername, admin)
		v := suggestionView{
			ID:       t.Suggestion.ID,
			Author:   label,
			Username: name,
			Text:     t.Suggestion.Text,
			Replies:  make([]replyView, 0, len(t.Replies)),
		}
		for _, r := range t.Replies {
			v.Replies = append(v.Replies, toReplyView(r, h.AdminUsername, admin))
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, out)
}

// Submit stores a suggestion from the caller.
func (h *SuggestionHandler) Submit(c echo.Context) error {
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	a := middleware.Actor(c)
	sg, err := h.Suggestions.Submit(ctx, a, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	h.Cache.Purge(ctx)

	label, name := author(sg.Username, h.AdminUsername, a.Admin)
	return c.JSON(http.StatusCreated, suggestionView{
		ID: sg.ID, Author: label, Username: name, Text: sg.Text, Replies: []replyView{},
	})
}

// Delete removes a suggestion; its replies stay.
func (h *SuggestionHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Suggestions.Delete(ctx, middleware.Actor(c), id); err != nil {
		return respondError(c, err)
	}
	h.Cache.Purge(ctx)
	return c.NoContent(http.StatusNoContent)
}
