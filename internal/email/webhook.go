// internal/email/webhook.go
//
// Inbound provider delivery events.
//
// Context
// -------
// Resend posts a JSON event whenever a message's delivery state changes.
// Event types we do not track map to an explicit "ignored" outcome (the
// endpoint still answers 200 so the provider stops redelivering), and an
// unknown message id is likewise ignored rather than erroring.
//
// Idempotence: replaying `email.delivered` must not move the recorded
// delivery timestamp, which MarkDelivered guarantees with COALESCE.
// Bounces and complaints additionally append an audit row so the
// suppression history survives later status changes.
package email

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/metrics"
)

// WebhookEvent is the provider's JSON payload.
type WebhookEvent struct {
	Type      string      `json:"type" validate:"required"`
	CreatedAt string      `json:"created_at"`
	Data      WebhookData `json:"data" validate:"required"`
}

// WebhookData is the event body.  Only the fields our bookkeeping reads are
// declared; everything else the provider sends is dropped on decode.
type WebhookData struct {
	EmailID      string   `json:"email_id" validate:"required"`
	To           []string `json:"to"`
	From         string   `json:"from"`
	Subject      string   `json:"subject"`
	DeliveredAt  string   `json:"delivered_at,omitempty"`
	BouncedAt    string   `json:"bounced_at,omitempty"`
	ComplainedAt string   `json:"complained_at,omitempty"`
}

var validate = validator.New()

// Validate reports the first structural problem with the payload, if any.
func (e *WebhookEvent) Validate() error {
	return validate.Struct(e)
}

// Outcome is the webhook handling result the HTTP layer reports back.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeIgnored Outcome = "ignored"
)

// eventStatus maps provider event types to lifecycle statuses.  Types
// absent here (delivery_delayed, opened, clicked, …) are ignored.
var eventStatus = map[string]Status{
	"email.sent":       StatusSent,
	"email.delivered":  StatusDelivered,
	"email.bounced":    StatusBounced,
	"email.complained": StatusComplained,
}

// HandleWebhook applies one delivery event to the matching log row.
func (s *Service) HandleWebhook(ctx context.Context, ev WebhookEvent) (Outcome, error) {
	metrics.WebhookEventsTotal.WithLabelValues(ev.Type).Inc()

	status, tracked := eventStatus[ev.Type]
	if !tracked {
		zap.S().Debugw("webhook event ignored", "type", ev.Type)
		return OutcomeIgnored, nil
	}

	l, err := s.repo.ByProviderMessageID(ctx, ev.Data.EmailID)
	if err != nil {
		return "", err
	}
	if l == nil {
		zap.S().Debugw("webhook for unknown message", "type", ev.Type, "email_id", ev.Data.EmailID)
		return OutcomeIgnored, nil
	}

	switch status {
	case StatusDelivered:
		if err := s.repo.MarkDelivered(ctx, ev.Data.EmailID, eventTime(ev.Data.DeliveredAt)); err != nil {
			return "", err
		}

	case StatusBounced, StatusComplained:
		if err := s.repo.ApplyStatus(ctx, ev.Data.EmailID, status); err != nil {
			return "", err
		}
		audit := &Event{EmailLogID: l.ID, EventType: ev.Type, Recipient: l.Recipient}
		if err := s.repo.InsertEvent(ctx, audit); err != nil {
			// The status change stood; losing the audit row is log-worthy
			// but not a reason to make the provider redeliver.
			zap.S().Errorw("audit event insert failed", "email_log", l.ID, "err", err)
		}

	default: // StatusSent
		if err := s.repo.ApplyStatus(ctx, ev.Data.EmailID, status); err != nil {
			return "", err
		}
	}

	zap.S().Infow("webhook applied", "type", ev.Type, "email_log", l.ID, "status", status)
	return OutcomeApplied, nil
}

// eventTime parses the provider's RFC 3339 timestamp, falling back to now.
func eventTime(raw string) time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
