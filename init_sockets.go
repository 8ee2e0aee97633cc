package main

import (
	"context"
	"log/slog"

	"github.com/akinalp/leasehub/config"
	"github.com/akinalp/leasehub/realtime"
	"github.com/akinalp/leasehub/repository"
	"github.com/akinalp/leasehub/services"
	"github.com/akinalp/leasehub/ws"
)

// Sockets holds the socket transport and its two namespaces.
type Sockets struct {
	Server    *ws.Server
	Messaging *realtime.MessagingSocket
	Dashboard *realtime.DashboardSocket
}

// socketGate adapts the conversation store to the messaging protocol.
//
// A socket read goes straight to the repository: the socket relays
// message:read itself, so the HTTP path in ConversationService (which
// relays too) must not be used here.
type socketGate struct {
	convs  repository.ConversationRepository
	unread services.UnreadService
}

func (g socketGate) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	return g.convs.IsParticipant(ctx, conversationID, userID)
}

func (g socketGate) ConversationIDsForUser(ctx context.Context, userID string, limit int) ([]string, error) {
	return g.convs.ListIDsForUser(ctx, userID, limit)
}

func (g socketGate) MarkAsRead(ctx context.Context, conversationID, userID string) error {
	if _, err := g.convs.MarkAsRead(ctx, conversationID, userID); err != nil {
		return err
	}
	g.unread.Invalidate(ctx, userID)
	return nil
}

func (g socketGate) UnreadTotal(ctx context.Context, userID string) (int, error) {
	return g.unread.Total(ctx, userID)
}

// initSockets registers /ws/messaging and /ws/dashboard. Both share the
// access token verifier used by the HTTP middleware.
func initSockets(
	cfg *config.Config,
	auth services.AuthService,
	convs repository.ConversationRepository,
	unread services.UnreadService,
	logger *slog.Logger,
) *Sockets {
	server := ws.NewServer(cfg.Server.AllowedOrigins, logger)
	authenticate := ws.TokenAuthenticator(auth, cfg.JWT.CookieName)

	return &Sockets{
		Server:    server,
		Messaging: realtime.NewMessagingSocket(server, authenticate, socketGate{convs: convs, unread: unread}, cfg.Socket.MaxAutoJoinRooms, logger),
		Dashboard: realtime.NewDashboardSocket(server, authenticate, logger),
	}
}
