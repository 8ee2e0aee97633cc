package repository

import (
	"context"

	"github.com/akinalp/leasehub/models"
)

// MessageRepository owns messages and read receipts.
//
// Content validation and the sender-only delete rule live in the service.
type MessageRepository interface {
	// Create inserts the message, bumps the conversation's last_message_at
	// and increments the counter of every other active participant, all in
	// one transaction. The returned message carries its sender.
	Create(ctx context.Context, conversationID, senderID, content string, attachments []models.Attachment) (*models.Message, error)

	GetByID(ctx context.Context, id string) (*models.Message, error)

	// FindByConversationID returns up to limit messages older than the
	// message before (newest page when empty), oldest first. Soft-deleted
	// messages stay in place as tombstones.
	FindByConversationID(ctx context.Context, conversationID string, limit int, before string) (*models.MessagePage, error)

	// Delete soft-deletes the message and reconciles the conversation's
	// unread counters in the same transaction. Deleting twice is a no-op.
	Delete(ctx context.Context, id string) (*models.Message, error)

	// Search matches content case-insensitively inside the user's active
	// conversations, newest first. Deleted messages never match.
	Search(ctx context.Context, userID, query string, limit int) ([]models.MessageSearchResult, error)

	// GetUnreadCount is the authoritative unread count computed from receipts.
	GetUnreadCount(ctx context.Context, conversationID, userID string) (int, error)
}
