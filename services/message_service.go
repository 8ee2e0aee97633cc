package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/repository"
)

const (
	defaultThreadLimit = 50
	maxThreadLimit     = 100
	defaultSearchLimit = 20
	maxSearchLimit     = 50
	minSearchQuery     = 2
)

// MessageService reads and writes messages on behalf of a participant.
type MessageService interface {
	// List returns a page of the thread, oldest first. before is the id of
	// the oldest message the client already has.
	List(ctx context.Context, userID, conversationID string, limit int, before string) (*models.MessagePage, error)
	Send(ctx context.Context, userID, conversationID string, req *models.SendMessageRequest) (*models.Message, error)
	// Delete soft-deletes a message. Only its sender may delete it.
	Delete(ctx context.Context, userID, messageID string) (*models.Message, error)
	Search(ctx context.Context, userID, query string, limit int) ([]models.MessageSearchResult, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	events      MessageEvents
}

// NewMessageService creates the message service.
func NewMessageService(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	events MessageEvents,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		events:      events,
	}
}

func (s *messageService) List(ctx context.Context, userID, conversationID string, limit int, before string) (*models.MessagePage, error) {
	if err := authorizeParticipant(ctx, s.convRepo, userID, conversationID); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByConversationID(ctx, conversationID, clampLimit(limit, defaultThreadLimit, maxThreadLimit), before)
}

// Send stores the message and fans it out. The store transaction already
// bumped every other participant's counter; the events only refresh caches
// and sockets.
func (s *messageService) Send(ctx context.Context, userID, conversationID string, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if err := authorizeParticipant(ctx, s.convRepo, userID, conversationID); err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.Create(ctx, conversationID, userID, req.Content, req.Attachments)
	if err != nil {
		return nil, err
	}

	participants, err := s.convRepo.ActiveParticipantIDs(ctx, conversationID)
	if err != nil {
		// the message is stored; only the fan-out is degraded
		participants = []string{userID}
	}
	s.events.MessageSent(ctx, msg, participants)
	return msg, nil
}

func (s *messageService) Delete(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := authorizeParticipant(ctx, s.convRepo, userID, msg.ConversationID); err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, fmt.Errorf("%w: only the sender can delete a message", pkg.ErrForbidden)
	}
	if msg.IsDeleted {
		return msg, nil
	}

	deleted, err := s.messageRepo.Delete(ctx, messageID)
	if err != nil {
		return nil, err
	}

	participants, _ := s.convRepo.ActiveParticipantIDs(ctx, deleted.ConversationID)
	s.events.MessageDeleted(ctx, deleted, participants)
	return deleted, nil
}

func (s *messageService) Search(ctx context.Context, userID, query string, limit int) ([]models.MessageSearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchQuery {
		return nil, fmt.Errorf("%w: search query must be at least %d characters", pkg.ErrBadRequest, minSearchQuery)
	}
	return s.messageRepo.Search(ctx, userID, query, clampLimit(limit, defaultSearchLimit, maxSearchLimit))
}
