package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/services"
)

// ConversationHandler serves the conversation routes. Authorization lives in
// the service; the handler only maps its errors.
type ConversationHandler struct {
	convService services.ConversationService
}

// NewConversationHandler creates the handler.
func NewConversationHandler(convService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

// List godoc
// GET /api/conversations?page=1&limit=20
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := h.convService.List(r.Context(), user.ID, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// Create godoc
// POST /api/conversations
// Body: { "participantIds": [...], "subject"?, "listingType"?, "listingId"?, "initialMessage"? }
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.convService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, conv)
}

// Direct godoc
// POST /api/conversations/direct
// Body: { "userId": "...", "listingType"?, "listingId"? }
//
// 201 when the conversation was created, 200 when it already existed.
func (h *ConversationHandler) Direct(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.DirectConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, created, err := h.convService.GetOrCreateDirect(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	pkg.JSON(w, status, conv)
}

// UnreadCount godoc
// GET /api/conversations/unread-count
func (h *ConversationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	n, err := h.convService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]int{"unreadCount": n})
}

// Get godoc
// GET /api/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	conv, err := h.convService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conv)
}

// MarkRead godoc
// POST /api/conversations/{id}/read
// Body (optional): { "messageId": "..." }
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.MarkReadRequest
	if err := decodeOptional(r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.convService.MarkAsRead(r.Context(), user.ID, r.PathValue("id"), req.MessageID); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "conversation marked as read"})
}

// Mute godoc
// PATCH /api/conversations/{id}/mute
// Body: { "muted": true }
func (h *ConversationHandler) Mute(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.MuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.convService.SetMuted(r.Context(), user.ID, r.PathValue("id"), req.Muted); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"muted": req.Muted})
}

// AddParticipant godoc
// POST /api/conversations/{id}/participants
// Body: { "userId": "..." }
func (h *ConversationHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conv, err := h.convService.AddParticipant(r.Context(), user.ID, r.PathValue("id"), req.UserID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conv)
}

// Leave godoc
// DELETE /api/conversations/{id}/participants/me
func (h *ConversationHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.convService.Leave(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "left conversation"})
}

// Reconcile godoc
// POST /api/conversations/{id}/reconcile
func (h *ConversationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	conv, err := h.convService.Reconcile(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, conv)
}
