package repository

import (
	"context"

	"github.com/akinalp/leasehub/models"
)

// ConversationRepository owns conversations and their participant rows.
//
// Membership rules:
//   - a participant row with left_at NULL is active; only active rows count
//     for the participant gate, unread counters and the inbox
//   - re-adding a departed user reactivates the same row
//
// Authorization is not checked here; services call IsParticipant first.
type ConversationRepository interface {
	// Create inserts the conversation and one participant row per distinct id
	// of {creatorID} ∪ participantIDs in one transaction. An unknown user id
	// is ErrBadRequest.
	Create(ctx context.Context, creatorID string, participantIDs []string, subject *string, listing *models.ListingContext) (*models.Conversation, error)

	// CreateWithMessage is Create plus the creator's first message, committed
	// together. The message counts as unread for every other participant.
	CreateWithMessage(ctx context.Context, creatorID string, participantIDs []string, subject *string, listing *models.ListingContext, content string) (*models.Conversation, error)

	// GetOrCreateDirect returns the conversation whose active participants are
	// exactly {a, b}, creating it when none exists. created reports which.
	GetOrCreateDirect(ctx context.Context, a, b string, listing *models.ListingContext) (conv *models.Conversation, created bool, err error)

	GetByID(ctx context.Context, id string) (*models.Conversation, error)

	// FindByIDWithDetails enriches the conversation for viewerID: active
	// participants, last non-deleted message, viewer's unread counter and,
	// for two-party conversations, the other participant.
	FindByIDWithDetails(ctx context.Context, id, viewerID string) (*models.ConversationDetails, error)

	// FindByUserID pages the user's active conversations, most recent
	// activity first. page is 1-based.
	FindByUserID(ctx context.Context, userID string, page, limit int) (*models.ConversationPage, error)

	// ListIDsForUser returns up to limit active conversation ids, most recent
	// activity first.
	ListIDsForUser(ctx context.Context, userID string, limit int) ([]string, error)

	// ActiveParticipantIDs lists the user ids of the active participants.
	ActiveParticipantIDs(ctx context.Context, conversationID string) ([]string, error)

	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)

	// MarkAsRead zeroes the reader's counter and writes the missing receipts
	// for other senders' messages in one transaction. It returns the number
	// of receipts written; a second call returns 0.
	MarkAsRead(ctx context.Context, conversationID, userID string) (int, error)

	AddParticipant(ctx context.Context, conversationID, userID string) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
	SetMuted(ctx context.Context, conversationID, userID string, muted bool) error

	// GetTotalUnreadCount sums the denormalized counters of active rows.
	GetTotalUnreadCount(ctx context.Context, userID string) (int, error)

	// ReconcileUnread rewrites every active counter of the conversation from
	// the receipts.
	ReconcileUnread(ctx context.Context, conversationID string) error
}
