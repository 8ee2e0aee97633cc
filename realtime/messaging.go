package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/ws"
)

// opTimeout bounds the store calls made while handling one client event.
const opTimeout = 5 * time.Second

// ConversationGate is what the messaging protocol needs from the store.
// main adapts the conversation repository and the unread service to it.
type ConversationGate interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	// ConversationIDsForUser lists up to limit active conversations.
	ConversationIDsForUser(ctx context.Context, userID string, limit int) ([]string, error)
	// MarkAsRead marks the whole conversation read for userID.
	MarkAsRead(ctx context.Context, conversationID, userID string) error
	// UnreadTotal is the badge count after a read.
	UnreadTotal(ctx context.Context, userID string) (int, error)
}

// MessagingSocket serves /ws/messaging.
//
// Connection lifecycle:
//
//	unauthenticated -> handshake fails -> 401, nothing else
//	authenticated   -> personal room + up to maxRooms conversation rooms
//	active          -> conversation:join/leave, typing:start/stop, message:read
//	disconnected    -> rooms dropped, nothing persisted
type MessagingSocket struct {
	ns       *ws.Namespace
	gate     ConversationGate
	maxRooms int
	logger   *slog.Logger
}

// NewMessagingSocket registers the messaging namespace on server.
func NewMessagingSocket(server *ws.Server, auth ws.Authenticator, gate ConversationGate, maxRooms int, logger *slog.Logger) *MessagingSocket {
	s := &MessagingSocket{
		ns:       server.Namespace(MessagingNamespace, auth),
		gate:     gate,
		maxRooms: maxRooms,
		logger:   logger.With("component", "messaging_socket"),
	}

	s.ns.OnConnect(s.autoJoin)
	s.ns.On(OpConversationJoin, s.handleJoin)
	s.ns.On(OpConversationLeave, s.handleLeave)
	s.ns.On(OpTypingStart, s.handleTyping(true))
	s.ns.On(OpTypingStop, s.handleTyping(false))
	s.ns.On(OpMessageRead, s.handleRead)

	return s
}

// autoJoin rebuilds room membership from the store on every connection.
func (s *MessagingSocket) autoJoin(c *ws.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ids, err := s.gate.ConversationIDsForUser(ctx, c.UserID(), s.maxRooms)
	if err != nil {
		// the client can still join rooms explicitly
		s.logger.Error("failed to load conversations for auto-join", "user_id", c.UserID(), "error", err)
		return
	}
	for _, id := range ids {
		s.ns.Join(c, ws.ConversationRoom(id))
	}
	s.logger.Debug("auto-joined conversation rooms", "user_id", c.UserID(), "rooms", len(ids))
}

// authorize re-validates participancy; the store is the source of truth,
// not the client's view of its rooms.
func (s *MessagingSocket) authorize(c *ws.Client, conversationID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ok, err := s.gate.IsParticipant(ctx, conversationID, c.UserID())
	if err != nil {
		s.logger.Error("participant check failed", "user_id", c.UserID(), "conversation_id", conversationID, "error", err)
		c.EmitError("could not verify conversation access")
		return false
	}
	if !ok {
		c.EmitError("not a participant of this conversation")
		return false
	}
	return true
}

// ─── Client events ───

func (s *MessagingSocket) handleJoin(c *ws.Client, data json.RawMessage) {
	id, ok := conversationRef(data)
	if !ok {
		c.EmitError("conversationId is required")
		return
	}
	if !s.authorize(c, id) {
		return
	}

	s.ns.Join(c, ws.ConversationRoom(id))
	c.Emit(ws.Event{Op: OpConversationJoined, Data: ConversationAckData{ConversationID: id}})
}

// handleLeave needs no check: leaving a room grants nothing.
func (s *MessagingSocket) handleLeave(c *ws.Client, data json.RawMessage) {
	id, ok := conversationRef(data)
	if !ok {
		c.EmitError("conversationId is required")
		return
	}

	s.ns.Leave(c, ws.ConversationRoom(id))
	c.Emit(ws.Event{Op: OpConversationLeft, Data: ConversationAckData{ConversationID: id}})
}

// handleTyping relays to the other sockets of the room. Nothing is stored
// and delivery is not guaranteed.
func (s *MessagingSocket) handleTyping(isTyping bool) ws.HandlerFunc {
	op := OpTypingStop
	if isTyping {
		op = OpTypingStart
	}

	return func(c *ws.Client, data json.RawMessage) {
		id, ok := conversationRef(data)
		if !ok {
			c.EmitError("conversationId is required")
			return
		}
		if !s.authorize(c, id) {
			return
		}

		s.ns.EmitToRoomExcept(ws.ConversationRoom(id), c, ws.Event{
			Op: op,
			Data: TypingData{
				ConversationID: id,
				UserID:         c.UserID(),
				IsTyping:       isTyping,
				Timestamp:      now(),
			},
		})
	}
}

// handleRead marks the conversation read, relays the acknowledgment to the
// other sockets in the room and sends the reader its new badge count.
func (s *MessagingSocket) handleRead(c *ws.Client, data json.RawMessage) {
	req, ok := decodeReadRequest(data)
	if !ok {
		c.EmitError("conversationId is required")
		return
	}
	if !s.authorize(c, req.ConversationID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.gate.MarkAsRead(ctx, req.ConversationID, c.UserID()); err != nil {
		s.logger.Error("mark as read failed", "user_id", c.UserID(), "conversation_id", req.ConversationID, "error", err)
		c.EmitError("failed to mark conversation as read")
		return
	}

	s.ns.EmitToRoomExcept(ws.ConversationRoom(req.ConversationID), c, ws.Event{
		Op: OpMessageRead,
		Data: MessageReadData{
			ConversationID: req.ConversationID,
			UserID:         c.UserID(),
			MessageID:      req.MessageID,
			Timestamp:      now(),
		},
	})

	total, err := s.gate.UnreadTotal(ctx, c.UserID())
	if err != nil {
		s.logger.Warn("unread total unavailable after read", "user_id", c.UserID(), "error", err)
		return
	}
	s.EmitUnreadCountUpdate(c.UserID(), total)
}

// ─── Server primitives ───

// EmitNewMessage broadcasts a new message to the conversation room.
func (s *MessagingSocket) EmitNewMessage(conversationID string, msg *models.Message) {
	s.ns.EmitToRoom(ws.ConversationRoom(conversationID), ws.Event{
		Op:   OpMessageNew,
		Data: MessageNewData{Message: msg, Timestamp: now()},
	})
}

// EmitMessageDeleted broadcasts a deletion to the conversation room.
func (s *MessagingSocket) EmitMessageDeleted(conversationID, messageID string) {
	s.ns.EmitToRoom(ws.ConversationRoom(conversationID), ws.Event{
		Op:   OpMessageDeleted,
		Data: MessageDeletedData{MessageID: messageID, ConversationID: conversationID, Timestamp: now()},
	})
}

// EmitNewConversation unicasts to each user's personal room, which reaches
// users that have not joined the conversation room yet.
func (s *MessagingSocket) EmitNewConversation(userIDs []string, conv *models.ConversationDetails) {
	ev := ws.Event{Op: OpConversationNew, Data: ConversationNewData{Conversation: conv, Timestamp: now()}}
	for _, id := range userIDs {
		s.ns.EmitToRoom(ws.UserRoom(id), ev)
	}
}

// EmitUnreadCountUpdate sends the badge count to the user's personal room.
func (s *MessagingSocket) EmitUnreadCountUpdate(userID string, count int) {
	s.ns.EmitToRoom(ws.UserRoom(userID), ws.Event{
		Op:   OpUnreadUpdate,
		Data: UnreadUpdateData{UnreadCount: count, Timestamp: now()},
	})
}

// EmitConversationUpdated refreshes the inbox preview of each user.
func (s *MessagingSocket) EmitConversationUpdated(userIDs []string, conversationID string, lastMessage *models.Message) {
	ev := ws.Event{
		Op:   OpConversationUpdated,
		Data: ConversationUpdatedData{ConversationID: conversationID, LastMessage: lastMessage, Timestamp: now()},
	}
	for _, id := range userIDs {
		s.ns.EmitToRoom(ws.UserRoom(id), ev)
	}
}

// EmitMessageRead relays a read acknowledgment that did not come from a
// socket (the HTTP mark-read route) to the conversation room.
func (s *MessagingSocket) EmitMessageRead(conversationID, userID string, messageID *string) {
	s.ns.EmitToRoom(ws.ConversationRoom(conversationID), ws.Event{
		Op: OpMessageRead,
		Data: MessageReadData{
			ConversationID: conversationID,
			UserID:         userID,
			MessageID:      messageID,
			Timestamp:      now(),
		},
	})
}

// RemoveUserFromConversation drops every socket of userID from the
// conversation room, after the user left the conversation.
func (s *MessagingSocket) RemoveUserFromConversation(userID, conversationID string) {
	room := ws.ConversationRoom(conversationID)
	for _, c := range s.ns.ClientsInRoom(ws.UserRoom(userID)) {
		s.ns.Leave(c, room)
	}
}

// IsUserConnected reports whether the user has at least one socket.
func (s *MessagingSocket) IsUserConnected(userID string) bool {
	return s.ns.IsRoomOccupied(ws.UserRoom(userID))
}
