package main

import (
	"net/http"

	"github.com/akinalp/leasehub/middleware"
	"github.com/akinalp/leasehub/repository"
	"github.com/akinalp/leasehub/services"
	"github.com/akinalp/leasehub/ws"
)

// initRoutes binds every endpoint to mux.
//
// Literal segments ("direct", "unread-count", "search") win over {id} in
// Go's pattern matching, so their order below is only for readability.
func initRoutes(
	mux *http.ServeMux,
	h *Handlers,
	authService services.AuthService,
	userRepo repository.UserRepository,
	cookieName string,
	sockets *ws.Server,
	uploads http.Handler,
) {
	authMw := middleware.NewAuthMiddleware(authService, userRepo, cookieName)
	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}

	// ─── Public ───
	mux.HandleFunc("GET /api/health", h.Health.Check)
	mux.HandleFunc("POST /api/auth/register", h.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	// ─── User ───
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))

	// ─── Conversations ───
	mux.Handle("GET /api/conversations", auth(h.Conversation.List))
	mux.Handle("POST /api/conversations", auth(h.Conversation.Create))
	mux.Handle("POST /api/conversations/direct", auth(h.Conversation.Direct))
	mux.Handle("GET /api/conversations/unread-count", auth(h.Conversation.UnreadCount))
	mux.Handle("GET /api/conversations/search", auth(h.Message.Search))
	mux.Handle("GET /api/conversations/{id}", auth(h.Conversation.Get))
	mux.Handle("POST /api/conversations/{id}/read", auth(h.Conversation.MarkRead))
	mux.Handle("PATCH /api/conversations/{id}/mute", auth(h.Conversation.Mute))
	mux.Handle("POST /api/conversations/{id}/participants", auth(h.Conversation.AddParticipant))
	mux.Handle("DELETE /api/conversations/{id}/participants/me", auth(h.Conversation.Leave))
	mux.Handle("POST /api/conversations/{id}/reconcile", auth(h.Conversation.Reconcile))

	// ─── Messages ───
	mux.Handle("GET /api/conversations/{id}/messages", auth(h.Message.List))
	mux.Handle("POST /api/conversations/{id}/messages", auth(h.Message.Send))
	mux.Handle("DELETE /api/messages/{id}", auth(h.Message.Delete))

	// ─── Attachments ───
	mux.Handle("POST /api/attachments", auth(h.Upload.Upload))
	if uploads != nil {
		mux.Handle("GET "+uploadsPrefix, http.StripPrefix(uploadsPrefix, uploads))
	}

	// ─── Properties ───
	mux.Handle("GET /api/properties", auth(h.Property.List))
	mux.Handle("POST /api/properties", auth(h.Property.Create))
	mux.Handle("GET /api/properties/{id}", auth(h.Property.Get))
	mux.Handle("PATCH /api/properties/{id}", auth(h.Property.Update))
	mux.Handle("DELETE /api/properties/{id}", auth(h.Property.Delete))
	mux.Handle("PATCH /api/properties/{id}/status", auth(h.Property.ChangeStatus))

	// ─── Deals ───
	mux.Handle("GET /api/deals", auth(h.Deal.List))
	mux.Handle("POST /api/deals", auth(h.Deal.Create))
	mux.Handle("GET /api/deals/{id}", auth(h.Deal.Get))
	mux.Handle("PATCH /api/deals/{id}", auth(h.Deal.Update))

	// ─── Dashboard ───
	mux.Handle("GET /api/dashboard/kpis", auth(h.Dashboard.KPIs))

	// ─── Sockets ───
	// Authenticated inside the handshake: browsers cannot set headers on an
	// upgrade request, so the cookie or ?token= is read there.
	mux.HandleFunc("GET /ws/{namespace}", sockets.HandleConnection)
}
