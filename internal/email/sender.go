// internal/email/sender.go
//
// Provider client for transactional sends.
//
// Context
// -------
// The Resend SDK is isolated behind the small Provider interface so the
// service (and its tests) never touch the SDK types directly: tests inject
// a fake, production injects NewResendProvider.  If the provider ever
// changes, only this file does.
package email

import (
	"context"

	"github.com/resend/resend-go/v2"
)

// Message is one outbound transactional email.
type Message struct {
	From    string
	ReplyTo string
	To      []string
	Subject string
	HTML    string
}

// Provider sends one templated email and returns the provider-assigned
// message id.
type Provider interface {
	Send(ctx context.Context, m Message) (string, error)
}

// ResendProvider is the production Provider.
type ResendProvider struct {
	client *resend.Client
}

// NewResendProvider builds a provider around the given API key.
func NewResendProvider(apiKey string) *ResendProvider {
	return &ResendProvider{client: resend.NewClient(apiKey)}
}

// Send submits the message and returns Resend's message id.
func (p *ResendProvider) Send(ctx context.Context, m Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    m.From,
		To:      m.To,
		Subject: m.Subject,
		Html:    m.HTML,
	}
	if m.ReplyTo != "" {
		params.ReplyTo = m.ReplyTo
	}

	sent, err := p.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}
