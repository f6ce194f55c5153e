package core

import (
	"context"
	"net/mail"
)

type (
	// EmailMessage is a plain-text email to be dispatched by an EmailService.
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently. Dispatch is best-effort:
		// delivery failures are logged by the service and never surface to
		// the caller.
		SendMessages(messages ...*EmailMessage)
	}

	// FollowerDirectory resolves the email addresses of a user's followers
	// for notification fan-out. An empty result is a legal no-op.
	FollowerDirectory interface {
		FollowerEmails(ctx context.Context, userID string) ([]mail.Address, error)
	}
)

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To)+len(m.Cc)+len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool { return m.BodyStr != "" }
