package services

import (
	"context"
	"fmt"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/repository"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 50
)

// ConversationService is the authorization gate in front of the
// conversation store. Every operation on an existing conversation checks
// that the caller is an active participant: an unknown conversation is
// ErrNotFound, a conversation the caller is not in is ErrForbidden.
type ConversationService interface {
	// Create makes a group conversation, optionally with a first message.
	Create(ctx context.Context, userID string, req *models.CreateConversationRequest) (*models.ConversationDetails, error)
	// GetOrCreateDirect returns the two-party conversation with another user.
	GetOrCreateDirect(ctx context.Context, userID string, req *models.DirectConversationRequest) (*models.ConversationDetails, bool, error)
	List(ctx context.Context, userID string, page, limit int) (*models.ConversationPage, error)
	Get(ctx context.Context, userID, conversationID string) (*models.ConversationDetails, error)
	MarkAsRead(ctx context.Context, userID, conversationID string, messageID *string) error
	SetMuted(ctx context.Context, userID, conversationID string, muted bool) error
	AddParticipant(ctx context.Context, userID, conversationID, newUserID string) (*models.ConversationDetails, error)
	// Leave is self-removal; nobody removes someone else.
	Leave(ctx context.Context, userID, conversationID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	// Reconcile rewrites the conversation's unread counters from receipts.
	Reconcile(ctx context.Context, userID, conversationID string) (*models.ConversationDetails, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	unread   UnreadService
	events   MessageEvents
}

// NewConversationService creates the conversation service.
func NewConversationService(
	convRepo repository.ConversationRepository,
	unread UnreadService,
	events MessageEvents,
) ConversationService {
	return &conversationService{
		convRepo: convRepo,
		unread:   unread,
		events:   events,
	}
}

func (s *conversationService) Create(ctx context.Context, userID string, req *models.CreateConversationRequest) (*models.ConversationDetails, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	var (
		conv *models.Conversation
		err  error
	)
	if req.InitialMessage != nil {
		conv, err = s.convRepo.CreateWithMessage(ctx, userID, req.ParticipantIDs, req.Subject, req.Listing(), *req.InitialMessage)
	} else {
		conv, err = s.convRepo.Create(ctx, userID, req.ParticipantIDs, req.Subject, req.Listing())
	}
	if err != nil {
		return nil, err
	}

	details, err := s.convRepo.FindByIDWithDetails(ctx, conv.ID, userID)
	if err != nil {
		return nil, err
	}

	s.events.ConversationCreated(ctx, details)
	return details, nil
}

func (s *conversationService) GetOrCreateDirect(ctx context.Context, userID string, req *models.DirectConversationRequest) (*models.ConversationDetails, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	conv, created, err := s.convRepo.GetOrCreateDirect(ctx, userID, req.UserID, req.Listing())
	if err != nil {
		return nil, false, err
	}

	details, err := s.convRepo.FindByIDWithDetails(ctx, conv.ID, userID)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.events.ConversationCreated(ctx, details)
	}
	return details, created, nil
}

func (s *conversationService) List(ctx context.Context, userID string, page, limit int) (*models.ConversationPage, error) {
	if page < 1 {
		page = 1
	}
	return s.convRepo.FindByUserID(ctx, userID, page, clampLimit(limit, defaultInboxLimit, maxInboxLimit))
}

func (s *conversationService) Get(ctx context.Context, userID, conversationID string) (*models.ConversationDetails, error) {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.convRepo.FindByIDWithDetails(ctx, conversationID, userID)
}

func (s *conversationService) MarkAsRead(ctx context.Context, userID, conversationID string, messageID *string) error {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}
	if _, err := s.convRepo.MarkAsRead(ctx, conversationID, userID); err != nil {
		return err
	}

	s.events.ConversationRead(ctx, conversationID, userID, messageID)
	return nil
}

func (s *conversationService) SetMuted(ctx context.Context, userID, conversationID string, muted bool) error {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.convRepo.SetMuted(ctx, conversationID, userID, muted)
}

// AddParticipant lets any active participant bring someone in. Adding an
// active participant again is a no-op.
func (s *conversationService) AddParticipant(ctx context.Context, userID, conversationID, newUserID string) (*models.ConversationDetails, error) {
	if newUserID == "" {
		return nil, fmt.Errorf("%w: userId is required", pkg.ErrBadRequest)
	}
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	already, err := s.convRepo.IsParticipant(ctx, conversationID, newUserID)
	if err != nil {
		return nil, err
	}
	if !already {
		if err := s.convRepo.AddParticipant(ctx, conversationID, newUserID); err != nil {
			return nil, err
		}
	}

	details, err := s.convRepo.FindByIDWithDetails(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	if !already {
		s.events.ParticipantAdded(ctx, details, newUserID, userID)
	}
	return details, nil
}

func (s *conversationService) Leave(ctx context.Context, userID, conversationID string) error {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return err
	}
	if err := s.convRepo.RemoveParticipant(ctx, conversationID, userID); err != nil {
		return err
	}

	// best effort: the leave already committed
	remaining, _ := s.convRepo.ActiveParticipantIDs(ctx, conversationID)
	s.events.ParticipantLeft(ctx, conversationID, userID, remaining)
	return nil
}

func (s *conversationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.unread.Total(ctx, userID)
}

func (s *conversationService) Reconcile(ctx context.Context, userID, conversationID string) (*models.ConversationDetails, error) {
	if err := s.authorize(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	if err := s.convRepo.ReconcileUnread(ctx, conversationID); err != nil {
		return nil, err
	}

	ids, err := s.convRepo.ActiveParticipantIDs(ctx, conversationID)
	if err == nil {
		for _, id := range ids {
			s.unread.Invalidate(ctx, id)
		}
	}
	return s.convRepo.FindByIDWithDetails(ctx, conversationID, userID)
}

// authorize distinguishes a missing conversation from one the caller is not
// in.
func (s *conversationService) authorize(ctx context.Context, userID, conversationID string) error {
	return authorizeParticipant(ctx, s.convRepo, userID, conversationID)
}

func authorizeParticipant(ctx context.Context, convRepo repository.ConversationRepository, userID, conversationID string) error {
	if _, err := convRepo.GetByID(ctx, conversationID); err != nil {
		return err
	}
	ok, err := convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
	}
	return nil
}
