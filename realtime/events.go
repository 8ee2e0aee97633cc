// Package realtime implements the messaging and dashboard socket protocols
// on top of the ws transport.
//
// Both protocols share the same handshake (ws.TokenAuthenticator) and the
// same personal room convention (ws.UserRoom). Messaging adds conversation
// rooms; dashboard only unicasts to personal rooms.
package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/akinalp/leasehub/models"
)

// Namespace names, served at /ws/{name}.
const (
	MessagingNamespace = "messaging"
	DashboardNamespace = "dashboard"
)

// Client -> server ops of the messaging namespace.
const (
	OpConversationJoin  = "conversation:join"
	OpConversationLeave = "conversation:leave"
	OpTypingStart       = "typing:start"
	OpTypingStop        = "typing:stop"
	OpMessageRead       = "message:read"
)

// Server -> client ops of the messaging namespace.
const (
	OpMessageNew          = "message:new"
	OpMessageDeleted      = "message:deleted"
	OpConversationNew     = "conversation:new"
	OpConversationUpdated = "conversation:updated"
	OpUnreadUpdate        = "unread:update"

	// join/leave acks, so clients know when room broadcasts start or stop
	OpConversationJoined = "conversation:joined"
	OpConversationLeft   = "conversation:left"
)

// Server -> client op of the dashboard namespace; entity ops are
// "<entity>:<action>" (property:created, deal:updated, ...).
const OpKPIUpdate = "kpi:update"

// ─── Payloads ───

// MessageNewData is the payload of OpMessageNew.
type MessageNewData struct {
	Message   *models.Message `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessageDeletedData is the payload of OpMessageDeleted.
type MessageDeletedData struct {
	MessageID      string    `json:"messageId"`
	ConversationID string    `json:"conversationId"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationNewData is the payload of OpConversationNew, sent to each
// participant's personal room.
type ConversationNewData struct {
	Conversation *models.ConversationDetails `json:"conversation"`
	Timestamp    time.Time                   `json:"timestamp"`
}

// ConversationUpdatedData carries the new last message for inbox previews.
type ConversationUpdatedData struct {
	ConversationID string          `json:"conversationId"`
	LastMessage    *models.Message `json:"lastMessage"`
	Timestamp      time.Time       `json:"timestamp"`
}

// UnreadUpdateData is a user's total unread count across conversations.
type UnreadUpdateData struct {
	UnreadCount int       `json:"unreadCount"`
	Timestamp   time.Time `json:"timestamp"`
}

// TypingData is relayed to the rest of the conversation room on typing:start
// and typing:stop.
type TypingData struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	IsTyping       bool      `json:"isTyping"`
	Timestamp      time.Time `json:"timestamp"`
}

// MessageReadData is a read receipt. MessageID is set only when the reader
// named a message.
type MessageReadData struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	MessageID      *string   `json:"messageId,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationAckData acks a join or leave.
type ConversationAckData struct {
	ConversationID string `json:"conversationId"`
}

// KPIUpdateData is the payload of OpKPIUpdate.
type KPIUpdateData struct {
	KPIs      any       `json:"kpis"`
	Timestamp time.Time `json:"timestamp"`
}

// ─── Inbound decoding ───

// conversationRef accepts both a bare id ("c1") and {"conversationId": "c1"}.
func conversationRef(data json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		id = strings.TrimSpace(id)
		return id, id != ""
	}

	var obj struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", false
	}
	id = strings.TrimSpace(obj.ConversationID)
	return id, id != ""
}

type readRequest struct {
	ConversationID string  `json:"conversationId"`
	MessageID      *string `json:"messageId"`
}

func decodeReadRequest(data json.RawMessage) (readRequest, bool) {
	var req readRequest
	if err := json.Unmarshal(data, &req); err != nil {
		id, ok := conversationRef(data)
		return readRequest{ConversationID: id}, ok
	}
	req.ConversationID = strings.TrimSpace(req.ConversationID)
	return req, req.ConversationID != ""
}

func now() time.Time { return time.Now().UTC() }
