package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg/eventbus"
)

// MessagingBroadcaster is the part of the messaging socket the events need.
// realtime.MessagingSocket satisfies it.
type MessagingBroadcaster interface {
	EmitNewMessage(conversationID string, msg *models.Message)
	EmitMessageDeleted(conversationID, messageID string)
	EmitNewConversation(userIDs []string, conv *models.ConversationDetails)
	EmitUnreadCountUpdate(userID string, count int)
	EmitConversationUpdated(userIDs []string, conversationID string, lastMessage *models.Message)
	EmitMessageRead(conversationID, userID string, messageID *string)
	RemoveUserFromConversation(userID, conversationID string)
	IsUserConnected(userID string) bool
}

// Domain event types published to the event stream.
const (
	EventConversationCreated = "conversation.created"
	EventMessageSent         = "message.sent"
	EventMessageDeleted      = "message.deleted"
	EventConversationRead    = "conversation.read"
	EventParticipantAdded    = "participant.added"
	EventParticipantLeft     = "participant.left"
)

// MessageEvents bridges committed conversation and message mutations to the
// messaging socket, the unread cache, the notification dispatcher and the
// event stream.
//
// Every step is best effort: a failure is logged and swallowed, so a caller
// never sees an error for a mutation that already committed.
type MessageEvents interface {
	ConversationCreated(ctx context.Context, conv *models.ConversationDetails)
	MessageSent(ctx context.Context, msg *models.Message, participantIDs []string)
	MessageDeleted(ctx context.Context, msg *models.Message, participantIDs []string)
	// ConversationRead is the HTTP mark-read path; the socket path relays
	// on its own.
	ConversationRead(ctx context.Context, conversationID, userID string, messageID *string)
	ParticipantAdded(ctx context.Context, conv *models.ConversationDetails, userID, actorID string)
	ParticipantLeft(ctx context.Context, conversationID, userID string, remaining []string)
}

type messageEvents struct {
	unread    UnreadService
	notifier  NotificationDispatcher
	bcast     MessagingBroadcaster
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewMessageEvents creates the message event service. bcast and notifier may
// be nil.
func NewMessageEvents(
	unread UnreadService,
	notifier NotificationDispatcher,
	bcast MessagingBroadcaster,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) MessageEvents {
	return &messageEvents{
		unread:    unread,
		notifier:  notifier,
		bcast:     bcast,
		publisher: publisher,
		logger:    logger.With("component", "message_events"),
	}
}

func (e *messageEvents) ConversationCreated(ctx context.Context, conv *models.ConversationDetails) {
	ids := conv.ParticipantIDs()
	e.publish(ctx, EventConversationCreated, conv.ID, conv.CreatedBy, conv)

	for _, id := range others(ids, conv.CreatedBy) {
		e.unread.Invalidate(ctx, id)
	}

	if e.bcast != nil {
		e.bcast.EmitNewConversation(ids, conv)
		if conv.LastMessage != nil {
			for _, id := range others(ids, conv.CreatedBy) {
				if e.bcast.IsUserConnected(id) {
					e.pushUnread(ctx, id)
				}
			}
		}
	}

	if conv.LastMessage != nil && e.notifier != nil {
		e.notifier.Notify(conv.ID, conv.CreatedBy, conv.LastMessage.Content)
	}
}

// MessageSent broadcasts to the room, then refreshes the badge and inbox
// preview of every connected recipient. Offline recipients only lose their
// cached badge.
func (e *messageEvents) MessageSent(ctx context.Context, msg *models.Message, participantIDs []string) {
	e.publish(ctx, EventMessageSent, msg.ConversationID, msg.SenderID, msg)

	recipients := others(participantIDs, msg.SenderID)
	for _, id := range recipients {
		e.unread.Invalidate(ctx, id)
	}

	if e.bcast != nil {
		e.bcast.EmitNewMessage(msg.ConversationID, msg)

		var online []string
		for _, id := range participantIDs {
			if e.bcast.IsUserConnected(id) {
				online = append(online, id)
			}
		}
		for _, id := range online {
			if id != msg.SenderID {
				e.pushUnread(ctx, id)
			}
		}
		if len(online) > 0 {
			e.bcast.EmitConversationUpdated(online, msg.ConversationID, msg)
		}
	}

	if e.notifier != nil && len(recipients) > 0 {
		e.notifier.Notify(msg.ConversationID, msg.SenderID, msg.Content)
	}
}

// MessageDeleted broadcasts the tombstone. A deleted unread message stops
// counting, so every participant's badge is refreshed.
func (e *messageEvents) MessageDeleted(ctx context.Context, msg *models.Message, participantIDs []string) {
	e.publish(ctx, EventMessageDeleted, msg.ConversationID, msg.SenderID, map[string]string{"messageId": msg.ID})

	for _, id := range participantIDs {
		e.unread.Invalidate(ctx, id)
	}
	if e.bcast == nil {
		return
	}

	e.bcast.EmitMessageDeleted(msg.ConversationID, msg.ID)
	for _, id := range participantIDs {
		if e.bcast.IsUserConnected(id) {
			e.pushUnread(ctx, id)
		}
	}
}

func (e *messageEvents) ConversationRead(ctx context.Context, conversationID, userID string, messageID *string) {
	e.publish(ctx, EventConversationRead, conversationID, userID, nil)
	e.unread.Invalidate(ctx, userID)
	if e.bcast == nil {
		return
	}

	e.bcast.EmitMessageRead(conversationID, userID, messageID)
	if e.bcast.IsUserConnected(userID) {
		e.pushUnread(ctx, userID)
	}
}

// ParticipantAdded tells the new participant about the conversation and the
// others about the changed participant list.
func (e *messageEvents) ParticipantAdded(ctx context.Context, conv *models.ConversationDetails, userID, actorID string) {
	e.publish(ctx, EventParticipantAdded, conv.ID, actorID, map[string]string{"userId": userID})
	if e.bcast == nil {
		return
	}

	e.bcast.EmitNewConversation([]string{userID}, conv)
	e.bcast.EmitConversationUpdated(others(conv.ParticipantIDs(), userID), conv.ID, conv.LastMessage)
}

func (e *messageEvents) ParticipantLeft(ctx context.Context, conversationID, userID string, remaining []string) {
	e.publish(ctx, EventParticipantLeft, conversationID, userID, nil)
	e.unread.Invalidate(ctx, userID)
	if e.bcast == nil {
		return
	}

	e.bcast.RemoveUserFromConversation(userID, conversationID)
	if e.bcast.IsUserConnected(userID) {
		e.pushUnread(ctx, userID)
	}
	if len(remaining) > 0 {
		e.bcast.EmitConversationUpdated(remaining, conversationID, nil)
	}
}

// pushUnread recomputes and emits the badge count of a connected user.
func (e *messageEvents) pushUnread(ctx context.Context, userID string) {
	n, err := e.unread.Total(ctx, userID)
	if err != nil {
		e.logger.Error("failed to recompute unread count", "user_id", userID, "error", err)
		return
	}
	e.bcast.EmitUnreadCountUpdate(userID, n)
}

func (e *messageEvents) publish(ctx context.Context, typ, aggregateID, actorID string, payload any) {
	publish(ctx, e.publisher, e.logger, eventbus.Event{
		Type:        typ,
		AggregateID: aggregateID,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	})
}
