package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DeletedMessageContent replaces the content of a soft-deleted message.
const DeletedMessageContent = "[message deleted]"

const (
	maxMessageLength   = 5000
	maxAttachmentCount = 10
)

// MessageStatus moves from sent to read once any receipt exists.
type MessageStatus string

const (
	MessageStatusSent MessageStatus = "sent"
	MessageStatusRead MessageStatus = "read"
)

// Message is a row of the messages table. Sender is filled by enriched reads.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	Content        string        `json:"content"`
	Attachments    []Attachment  `json:"attachments"`
	Status         MessageStatus `json:"status"`
	IsDeleted      bool          `json:"isDeleted"`
	DeletedAt      *time.Time    `json:"deletedAt"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Sender         *UserSummary  `json:"sender,omitempty"`
}

// Attachment is a stored upload referenced by a message. Messages keep the
// list as a JSON column.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// MessagePage is one page of a thread, oldest first.
//
// NextCursor is the id of the oldest returned message and is set only when
// HasMore; pass it back as ?before= for the previous page.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	HasMore    bool      `json:"hasMore"`
	Total      int       `json:"total"` // non-deleted messages in the conversation
	NextCursor *string   `json:"nextCursor"`
}

// SendMessageRequest is the body of POST /api/conversations/{id}/messages.
type SendMessageRequest struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
}

// Validate trims the content; it must be 1-5000 characters and carry at most
// 10 attachments, each with a name and a URL.
func (r *SendMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	n := utf8.RuneCountInString(r.Content)
	if n < 1 {
		return fmt.Errorf("message content is required")
	}
	if n > maxMessageLength {
		return fmt.Errorf("message content must be at most %d characters", maxMessageLength)
	}
	if len(r.Attachments) > maxAttachmentCount {
		return fmt.Errorf("at most %d attachments per message", maxAttachmentCount)
	}
	for _, a := range r.Attachments {
		if a.Name == "" || a.URL == "" {
			return fmt.Errorf("attachment name and url are required")
		}
	}
	return nil
}

// MessageSearchResult is a search hit with the conversation it belongs to.
type MessageSearchResult struct {
	Message
	ConversationSubject *string `json:"conversationSubject"`
}
