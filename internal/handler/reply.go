package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/suggestion-box/internal/middleware"
	"github.com/iliyamo/suggestion-box/internal/service"
)

// ReplyHandler serves reply endpoints.  It is only registered when replies
// are enabled.
type ReplyHandler struct {
	Replies       *service.ReplyService
	Cache         CachePurger
	AdminUsername string
}

func NewReplyHandler(r *service.ReplyService, cache CachePurger, adminUsername string) *ReplyHandler {
	return &ReplyHandler{Replies: r, Cache: orNoPurge(cache), AdminUsername: adminUsername}
}

// List returns the replies to one suggestion, including replies whose
// suggestion was deleted.
func (h *ReplyHandler) List(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	replies, err := h.Replies.ListFor(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	admin := middleware.Actor(c).Admin
	out := make([]replyView, 0, len(replies))
	for _, r := range replies {
		out = append(out, toReplyView(r, h.AdminUsername, admin))
	}
	return c.JSON(http.StatusOK, out)
}

// Create posts an admin reply to a suggestion.
func (h *ReplyHandler) Create(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	var req submitReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	a := middleware.Actor(c)
	r, err := h.Replies.AddReply(ctx, a, id, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusCreated, toReplyView(r, h.AdminUsername, a.Admin))
}

// Delete removes one reply.
func (h *ReplyHandler) Delete(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Replies.Delete(ctx, middleware.Actor(c), id); err != nil {
		return respondError(c, err)
	}
	h.Cache.Purge(ctx)
	return c.NoContent(http.StatusNoContent)
}
