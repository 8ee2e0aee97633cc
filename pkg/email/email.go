// Package email sends transactional email.
//
// Services depend on the EmailSender interface; the Resend implementation is
// wired in main only when an API key, sender address and app URL are set.
package email

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// MessageNotification describes one "you have a new message" email.
type MessageNotification struct {
	ToEmail        string
	RecipientName  string
	SenderName     string
	ConversationID string
	Subject        string // conversation subject, may be empty
	Preview        string
}

// EmailSender sends email.
type EmailSender interface {
	SendMessageNotification(ctx context.Context, n MessageNotification) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewResendSender returns an EmailSender backed by the Resend API.
//
// apiKey: Resend API key (re_xxxxxxxx).
// fromEmail: sender address on a verified Resend domain.
// appURL: public app URL used for the "open conversation" link.
func NewResendSender(apiKey, fromEmail, appURL string) EmailSender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		appURL:    appURL,
	}
}

func (s *resendSender) SendMessageNotification(ctx context.Context, n MessageNotification) error {
	link := ConversationLink(s.appURL, n.ConversationID)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Leasehub <%s>", s.fromEmail),
		To:      []string{n.ToEmail},
		Subject: Subject(n),
		Html: fmt.Sprintf(
			`<p>Hi %s,</p><p>%s sent you a message:</p><blockquote>%s</blockquote><p><a href="%s">Open conversation</a></p>`,
			html.EscapeString(n.RecipientName),
			html.EscapeString(n.SenderName),
			html.EscapeString(n.Preview),
			link,
		),
		Text: fmt.Sprintf("%s sent you a message:\n\n%s\n\n%s", n.SenderName, n.Preview, link),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send message notification: %w", err)
	}
	return nil
}

// Subject builds the notification subject line.
func Subject(n MessageNotification) string {
	if n.Subject != "" {
		return fmt.Sprintf("New message from %s: %s", n.SenderName, n.Subject)
	}
	return fmt.Sprintf("New message from %s", n.SenderName)
}

// ConversationLink builds the deep link to a conversation.
func ConversationLink(appURL, conversationID string) string {
	return fmt.Sprintf("%s/messages/%s", appURL, conversationID)
}
