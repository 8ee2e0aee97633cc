package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/akinalp/leasehub/pkg/email"
	"github.com/akinalp/leasehub/repository"
)

const (
	notifyTimeout      = 30 * time.Second
	notifyPreviewRunes = 140
)

// PresenceChecker reports whether a user has a live messaging socket.
type PresenceChecker interface {
	IsUserConnected(userID string) bool
}

// NotificationDispatcher emails offline participants about a new message.
//
// Notify returns immediately; the work runs on its own goroutine with its own
// timeout, detached from the request. Delivery is at most once and best
// effort.
type NotificationDispatcher interface {
	Notify(conversationID, senderID, content string)
	// Wait blocks until every dispatched notification finished. Used on
	// shutdown and in tests.
	Wait()
}

type notificationDispatcher struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
	sender   email.EmailSender
	presence PresenceChecker
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewNotificationDispatcher creates the dispatcher. A nil sender disables it.
func NewNotificationDispatcher(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	sender email.EmailSender,
	presence PresenceChecker,
	logger *slog.Logger,
) NotificationDispatcher {
	return &notificationDispatcher{
		convRepo: convRepo,
		userRepo: userRepo,
		sender:   sender,
		presence: presence,
		logger:   logger.With("component", "notification_dispatcher"),
	}
}

func (d *notificationDispatcher) Notify(conversationID, senderID, content string) {
	if d.sender == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("notification dispatch panicked", "conversation_id", conversationID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		sent, err := d.dispatch(ctx, conversationID, senderID, content)
		if err != nil {
			d.logger.Error("notification dispatch failed", "conversation_id", conversationID, "error", err)
			return
		}
		if sent > 0 {
			d.logger.Info("message notifications sent", "conversation_id", conversationID, "count", sent)
		}
	}()
}

func (d *notificationDispatcher) Wait() { d.wg.Wait() }

// dispatch sends one email per active, non-muted, offline recipient with an
// email address. A failed send is logged and does not stop the others.
func (d *notificationDispatcher) dispatch(ctx context.Context, conversationID, senderID, content string) (int, error) {
	conv, err := d.convRepo.FindByIDWithDetails(ctx, conversationID, senderID)
	if err != nil {
		return 0, err
	}

	senderName := ""
	var recipients []string
	for _, p := range conv.Participants {
		if p.ID == senderID {
			senderName = p.DisplayName
			continue
		}
		if p.IsMuted {
			continue
		}
		if d.presence != nil && d.presence.IsUserConnected(p.ID) {
			continue
		}
		recipients = append(recipients, p.ID)
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	users, err := d.userRepo.GetByIDs(ctx, recipients)
	if err != nil {
		return 0, err
	}

	subject := ""
	if conv.Subject != nil {
		subject = *conv.Subject
	}

	sent := 0
	for _, id := range recipients {
		u, ok := users[id]
		if !ok || u.Email == "" {
			continue
		}
		err := d.sender.SendMessageNotification(ctx, email.MessageNotification{
			ToEmail:        u.Email,
			RecipientName:  u.DisplayName,
			SenderName:     senderName,
			ConversationID: conversationID,
			Subject:        subject,
			Preview:        preview(content),
		})
		if err != nil {
			d.logger.Warn("notification email failed", "conversation_id", conversationID, "user_id", id, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func preview(content string) string {
	if utf8.RuneCountInString(content) <= notifyPreviewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:notifyPreviewRunes]) + "…"
}
