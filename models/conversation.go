package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ListingType is the kind of marketplace listing a conversation is about.
type ListingType string

const (
	ListingTypeProperty ListingType = "property"
	ListingTypeDemand   ListingType = "demand"
)

// ListingContext optionally links a conversation to a listing.
type ListingContext struct {
	Type ListingType `json:"type"`
	ID   string      `json:"id"`
}

// Conversation is a row of the conversations table.
type Conversation struct {
	ID            string          `json:"id"`
	Subject       *string         `json:"subject"`
	Listing       *ListingContext `json:"listing"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	LastMessageAt *time.Time      `json:"lastMessageAt"`
}

// Participant is an active participant row joined with the user directory.
type Participant struct {
	UserSummary
	LastReadAt  *time.Time `json:"lastReadAt"`
	UnreadCount int        `json:"unreadCount"`
	IsMuted     bool       `json:"isMuted"`
	JoinedAt    time.Time  `json:"joinedAt"`
}

// ConversationDetails is the enriched view of a conversation for one viewer.
//
// OtherParticipant is set only for two-party conversations.
type ConversationDetails struct {
	Conversation
	Participants     []Participant `json:"participants"`
	LastMessage      *Message      `json:"lastMessage"`
	UnreadCount      int           `json:"unreadCount"`
	IsMuted          bool          `json:"isMuted"`
	OtherParticipant *Participant  `json:"otherParticipant"`
}

// ParticipantIDs returns the user ids of the active participants.
func (d *ConversationDetails) ParticipantIDs() []string {
	ids := make([]string, len(d.Participants))
	for i, p := range d.Participants {
		ids[i] = p.ID
	}
	return ids
}

// ConversationPage is one page of a user's inbox.
type ConversationPage struct {
	Conversations []ConversationDetails `json:"conversations"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
	HasMore       bool                  `json:"hasMore"`
}

// CreateConversationRequest is the body of POST /api/conversations.
type CreateConversationRequest struct {
	ParticipantIDs []string    `json:"participantIds"`
	Subject        *string     `json:"subject"`
	ListingType    ListingType `json:"listingType"`
	ListingID      string      `json:"listingId"`
	InitialMessage *string     `json:"initialMessage"`
}

// Validate trims optional text and checks the listing pair.
func (r *CreateConversationRequest) Validate() error {
	if len(r.ParticipantIDs) == 0 {
		return fmt.Errorf("at least one participant is required")
	}
	if len(r.ParticipantIDs) > 50 {
		return fmt.Errorf("at most 50 participants")
	}
	if r.Subject != nil {
		s := strings.TrimSpace(*r.Subject)
		if utf8.RuneCountInString(s) > 200 {
			return fmt.Errorf("subject must be at most 200 characters")
		}
		if s == "" {
			r.Subject = nil
		} else {
			r.Subject = &s
		}
	}
	if r.InitialMessage != nil {
		m := strings.TrimSpace(*r.InitialMessage)
		if utf8.RuneCountInString(m) > maxMessageLength {
			return fmt.Errorf("message content must be at most %d characters", maxMessageLength)
		}
		if m == "" {
			r.InitialMessage = nil
		} else {
			r.InitialMessage = &m
		}
	}
	_, err := listingContext(r.ListingType, r.ListingID)
	return err
}

// Listing returns the listing context or nil when none was given.
func (r *CreateConversationRequest) Listing() *ListingContext {
	l, _ := listingContext(r.ListingType, r.ListingID)
	return l
}

// DirectConversationRequest is the body of POST /api/conversations/direct.
type DirectConversationRequest struct {
	UserID      string      `json:"userId"`
	ListingType ListingType `json:"listingType"`
	ListingID   string      `json:"listingId"`
}

// Validate requires the other user and a consistent listing pair.
func (r *DirectConversationRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("userId is required")
	}
	_, err := listingContext(r.ListingType, r.ListingID)
	return err
}

// Listing returns the listing context or nil when none was given.
func (r *DirectConversationRequest) Listing() *ListingContext {
	l, _ := listingContext(r.ListingType, r.ListingID)
	return l
}

func listingContext(t ListingType, id string) (*ListingContext, error) {
	if t == "" && id == "" {
		return nil, nil
	}
	if t != ListingTypeProperty && t != ListingTypeDemand {
		return nil, fmt.Errorf("listingType must be property or demand")
	}
	if id == "" {
		return nil, fmt.Errorf("listingId is required with listingType")
	}
	return &ListingContext{Type: t, ID: id}, nil
}

// MarkReadRequest is the optional body of POST /api/conversations/{id}/read.
// MessageID is accepted for compatibility; the whole conversation is marked.
type MarkReadRequest struct {
	MessageID *string `json:"messageId"`
}

// MuteRequest is the body of PATCH /api/conversations/{id}/mute.
type MuteRequest struct {
	Muted bool `json:"muted"`
}

// AddParticipantRequest is the body of POST /api/conversations/{id}/participants.
type AddParticipantRequest struct {
	UserID string `json:"userId"`
}
