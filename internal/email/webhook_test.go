// internal/email/webhook_test.go
//
// Unit-tests for inbound delivery-event handling.
//
// Context
// -------
// The behaviours pinned down here:
//
//   • delivered events backfill delivered_at with COALESCE, so a replay
//     never moves an already-recorded timestamp
//   • bounce events flip the status and append an audit row
//   • unknown event types and unknown message ids are ignored outright,
//     with no writes
//
// Run: go test ./internal/email -v

package email

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func deliveredRow() *sqlmock.Rows {
	return logRows().AddRow(
		21, TemplateNewsletterWelcome, "sam@example.com", "S", "<p>s</p>",
		StatusSent, "re_xyz", 0, "", nil, sampleTime, sampleTime)
}

func TestWebhookDeliveredBackfillsTimestamp(t *testing.T) {
	p := &fakeProvider{ids: []string{""}, errs: []error{nil}}
	svc, mock := newMockService(t, p, okRender)

	at := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_message_id = ?")).
		WithArgs("re_xyz").
		WillReturnRows(deliveredRow())
	mock.ExpectExec(regexp.QuoteMeta("COALESCE(delivered_at, ?)")).
		WithArgs(StatusDelivered, at, "re_xyz").
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := svc.HandleWebhook(context.Background(), WebhookEvent{
		Type: "email.delivered",
		Data: WebhookData{EmailID: "re_xyz", DeliveredAt: at.Format(time.RFC3339)},
	})
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if out != OutcomeApplied {
		t.Fatalf("outcome = %q, want applied", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestWebhookBounceAppendsAudit(t *testing.T) {
	p := &fakeProvider{ids: []string{""}, errs: []error{nil}}
	svc, mock := newMockService(t, p, okRender)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_message_id = ?")).
		WithArgs("re_xyz").
		WillReturnRows(deliveredRow())
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_logs SET status = ?")).
		WithArgs(StatusBounced, "re_xyz").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_events")).
		WithArgs(sqlmock.AnyArg(), uint64(21), "email.bounced", "sam@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := svc.HandleWebhook(context.Background(), WebhookEvent{
		Type: "email.bounced",
		Data: WebhookData{EmailID: "re_xyz"},
	})
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if out != OutcomeApplied {
		t.Fatalf("outcome = %q, want applied", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestWebhookUnknownTypeIgnored(t *testing.T) {
	p := &fakeProvider{ids: []string{""}, errs: []error{nil}}
	svc, mock := newMockService(t, p, okRender)
	// No expectations: an untracked event must not touch the database.

	out, err := svc.HandleWebhook(context.Background(), WebhookEvent{
		Type: "email.opened",
		Data: WebhookData{EmailID: "re_xyz"},
	})
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if out != OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL activity: %v", err)
	}
}

func TestWebhookUnknownMessageIgnored(t *testing.T) {
	p := &fakeProvider{ids: []string{""}, errs: []error{nil}}
	svc, mock := newMockService(t, p, okRender)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE provider_message_id = ?")).
		WithArgs("re_missing").
		WillReturnRows(logRows())

	out, err := svc.HandleWebhook(context.Background(), WebhookEvent{
		Type: "email.delivered",
		Data: WebhookData{EmailID: "re_missing"},
	})
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if out != OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestWebhookValidate(t *testing.T) {
	ev := WebhookEvent{Type: "email.delivered"}
	if err := ev.Validate(); err == nil {
		t.Fatal("expected validation error for missing email_id")
	}

	ev.Data.EmailID = "re_xyz"
	if err := ev.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
