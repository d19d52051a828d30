// internal/email/model.go
//
// Types for transactional email dispatch and delivery tracking.
//
// Context
// -------
// Every send is logged as one `email_logs` row whose status walks a small
// lifecycle:
//
//	pending → sent → delivered
//	pending → failed                  (provider rejected the send)
//	sent    → bounced | complained    (provider webhook events)
//
// Transitions beyond `sent` are driven exclusively by inbound provider
// webhooks; the app never polls.  Bounce and complaint events additionally
// append an `email_events` audit row.
package email

import (
	"time"

	"github.com/google/uuid"
)

//
// Status lifecycle
//

type Status string

const (
	StatusPending    Status = "pending"
	StatusSent       Status = "sent"
	StatusDelivered  Status = "delivered"
	StatusFailed     Status = "failed"
	StatusBounced    Status = "bounced"
	StatusComplained Status = "complained"
)

//
// Templates
//

// Template identifiers.  Each names a layout under templates/email/ plus a
// subject line in the service's subject table.
const (
	TemplateContactNotification    = "contact-notification"
	TemplateSpeakingNotification   = "speaking-notification"
	TemplateConsultingNotification = "consulting-notification"
	TemplateNewsletterWelcome      = "newsletter-welcome"
	TemplateResourceDelivery       = "resource-delivery"
	TemplateWaitlistConfirmation   = "waitlist-confirmation"
)

//
// Rows
//

// Log mirrors one row of `email_logs`.  Subject and HTML are persisted at
// dispatch time so a retry can replay the exact message without re-deriving
// template data.
type Log struct {
	ID                uint64     `db:"id"`
	Template          string     `db:"template"`
	Recipient         string     `db:"recipient"`
	Subject           string     `db:"subject"`
	HTML              string     `db:"html"`
	Status            Status     `db:"status"`
	ProviderMessageID string     `db:"provider_message_id"`
	RetryCount        int        `db:"retry_count"`
	LastError         string     `db:"last_error"`
	DeliveredAt       *time.Time `db:"delivered_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Event mirrors one row of `email_events`, the audit trail appended on
// bounce and complaint webhooks.
type Event struct {
	ID         uuid.UUID `db:"id"`
	EmailLogID uint64    `db:"email_log_id"`
	EventType  string    `db:"event_type"`
	Recipient  string    `db:"recipient"`
	CreatedAt  time.Time `db:"created_at"`
}

//
// Statistics
//

// StatusCounts aggregates log rows by status for one scope (overall or one
// template).
type StatusCounts struct {
	Pending    int `json:"pending"`
	Sent       int `json:"sent"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
	Bounced    int `json:"bounced"`
	Complained int `json:"complained"`
}

// Total sums every status bucket.
func (c StatusCounts) Total() int {
	return c.Pending + c.Sent + c.Delivered + c.Failed + c.Bounced + c.Complained
}

// SuccessRate is the percentage of rows the provider accepted.  Zero when
// there are no rows, so callers never divide by zero.
func (c StatusCounts) SuccessRate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Sent+c.Delivered) * 100 / float64(total)
}

// DeliveryRate is the percentage of accepted sends the provider confirmed
// delivered.  Zero when nothing was accepted.
func (c StatusCounts) DeliveryRate() float64 {
	accepted := c.Sent + c.Delivered + c.Bounced + c.Complained
	if accepted == 0 {
		return 0
	}
	return float64(c.Delivered) * 100 / float64(accepted)
}

// Stats is the payload of GET /api/email/stats.
type Stats struct {
	From       time.Time               `json:"from"`
	To         time.Time               `json:"to"`
	Overall    StatusCounts            `json:"overall"`
	ByTemplate map[string]StatusCounts `json:"by_template"`
	Recent     []Log                   `json:"recent"`
}
