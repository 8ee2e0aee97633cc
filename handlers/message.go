package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/pkg/ratelimit"
	"github.com/akinalp/leasehub/services"
)

// MessageHandler serves thread reads, sends, deletes and search.
type MessageHandler struct {
	messageService services.MessageService
	messageLimiter *ratelimit.MessageRateLimiter
}

// NewMessageHandler creates the handler. A nil messageLimiter disables
// send rate limiting.
func NewMessageHandler(messageService services.MessageService, messageLimiter *ratelimit.MessageRateLimiter) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		messageLimiter: messageLimiter,
	}
}

// List godoc
// GET /api/conversations/{id}/messages?before=ID&limit=50
//
//   - before: id of the oldest message the client has; empty for the newest page
//   - limit: default 50, max 100
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := h.messageService.List(r.Context(), user.ID, r.PathValue("id"), queryInt(r, "limit"), r.URL.Query().Get("before"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// Send godoc
// POST /api/conversations/{id}/messages
// Body: { "content": "...", "attachments"?: [{name, url, type, size}] }
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if h.messageLimiter != nil && !h.messageLimiter.Allow(user.ID) {
		retryAfter := h.messageLimiter.CooldownSeconds(user.ID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("you are sending messages too fast, please wait %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), user.ID, r.PathValue("id"), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}

// Delete godoc
// DELETE /api/messages/{id}
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	msg, err := h.messageService.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// Search godoc
// GET /api/conversations/search?q=lease&limit=20
func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	results, err := h.messageService.Search(r.Context(), user.ID, r.URL.Query().Get("q"), queryInt(r, "limit"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if results == nil {
		results = []models.MessageSearchResult{}
	}
	pkg.JSON(w, http.StatusOK, results)
}
