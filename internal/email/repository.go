// internal/email/repository.go
//
// Persistence for email logs and audit events.
//
// Context
// -------
// The send path inserts a `pending` row and flips it to `sent` or `failed`;
// webhook handling flips rows by provider message id; the retry endpoint
// reads `failed` rows back out.  All writes are single statements; the only
// multi-writer touch point is the webhook status update, a benign
// read-then-write race the counters tolerate.
//
// Notes
// -----
//   - `delivered_at` is backfilled with COALESCE so webhook replays never
//     overwrite an already-recorded timestamp.
//   - `retry_count` is bumped atomically in SQL (`retry_count + 1`).
package email

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const logCols = `id, template, recipient, subject, html, status, provider_message_id,
	retry_count, last_error, delivered_at, created_at, updated_at`

// Repository is the email persistence layer.  Construct with NewRepository
// and inject; no package-level singleton.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

//
// ── Send path ───────────────────────────────────────────────────────────
//

// CreateLog inserts a pending row and fills in the generated id.
func (r *Repository) CreateLog(ctx context.Context, l *Log) error {
	const q = `INSERT INTO email_logs
	    (template, recipient, subject, html, status, retry_count, created_at, updated_at)
	    VALUES (?, ?, ?, ?, ?, 0, NOW(), NOW())`

	res, err := r.db.ExecContext(ctx, q, l.Template, l.Recipient, l.Subject, l.HTML, StatusPending)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	l.Status = StatusPending
	return nil
}

// MarkSent records provider acceptance.
func (r *Repository) MarkSent(ctx context.Context, id uint64, providerMessageID string) error {
	const q = `UPDATE email_logs
	    SET status = ?, provider_message_id = ?, last_error = '', updated_at = NOW()
	    WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, StatusSent, providerMessageID, id)
	return err
}

// MarkFailed records a provider rejection, keeping the error message.
func (r *Repository) MarkFailed(ctx context.Context, id uint64, errMsg string) error {
	const q = `UPDATE email_logs SET status = ?, last_error = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, StatusFailed, errMsg, id)
	return err
}

//
// ── Webhook path ────────────────────────────────────────────────────────
//

// ByProviderMessageID loads the log row a webhook event refers to.  A nil
// row with nil error means the id is unknown to us.
func (r *Repository) ByProviderMessageID(ctx context.Context, pid string) (*Log, error) {
	const q = "SELECT " + logCols + " FROM email_logs WHERE provider_message_id = ? LIMIT 1"

	var l Log
	if err := r.db.GetContext(ctx, &l, q, pid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// ApplyStatus sets the lifecycle status for the row matching the provider
// message id.
func (r *Repository) ApplyStatus(ctx context.Context, pid string, s Status) error {
	const q = `UPDATE email_logs SET status = ?, updated_at = NOW() WHERE provider_message_id = ?`
	_, err := r.db.ExecContext(ctx, q, s, pid)
	return err
}

// MarkDelivered sets status and backfills delivered_at only when unset, so
// replaying the same webhook leaves the first timestamp untouched.
func (r *Repository) MarkDelivered(ctx context.Context, pid string, at time.Time) error {
	const q = `UPDATE email_logs
	    SET status = ?, delivered_at = COALESCE(delivered_at, ?), updated_at = NOW()
	    WHERE provider_message_id = ?`
	_, err := r.db.ExecContext(ctx, q, StatusDelivered, at, pid)
	return err
}

// InsertEvent appends one audit row (bounce or complaint).
func (r *Repository) InsertEvent(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	const q = `INSERT INTO email_events (id, email_log_id, event_type, recipient, created_at)
	    VALUES (?, ?, ?, ?, NOW())`
	_, err := r.db.ExecContext(ctx, q, e.ID.String(), e.EmailLogID, e.EventType, e.Recipient)
	return err
}

//
// ── Retry path ──────────────────────────────────────────────────────────
//

// RetryFilter narrows which failed rows the retry endpoint considers.
type RetryFilter struct {
	Template   string // optional template filter
	HoursBack  int    // lookback window
	MaxRetries int    // retry ceiling
	Limit      int    // batch cap (Eligible only)
}

// Eligible returns failed rows still under the retry ceiling and inside the
// lookback window, oldest created first, capped at f.Limit.  Rows that
// failed at render time carry an empty body and can never be resent as-is,
// so they are excluded here rather than "succeeding" blank.
func (r *Repository) Eligible(ctx context.Context, f RetryFilter) ([]Log, error) {
	q := "SELECT " + logCols + ` FROM email_logs
	    WHERE status = ? AND retry_count < ? AND html <> ''
	      AND created_at >= NOW() - INTERVAL ? HOUR`
	args := []any{StatusFailed, f.MaxRetries, f.HoursBack}

	if f.Template != "" {
		q += " AND template = ?"
		args = append(args, f.Template)
	}
	q += " ORDER BY created_at ASC LIMIT ?"
	args = append(args, f.Limit)

	logs := []Log{}
	err := r.db.SelectContext(ctx, &logs, q, args...)
	return logs, err
}

// Exhausted returns failed rows that can no longer be retried: ceiling hit,
// or older than the lookback window.
func (r *Repository) Exhausted(ctx context.Context, f RetryFilter) ([]Log, error) {
	q := "SELECT " + logCols + ` FROM email_logs
	    WHERE status = ? AND (retry_count >= ? OR created_at < NOW() - INTERVAL ? HOUR)`
	args := []any{StatusFailed, f.MaxRetries, f.HoursBack}

	if f.Template != "" {
		q += " AND template = ?"
		args = append(args, f.Template)
	}
	q += " ORDER BY created_at ASC"

	logs := []Log{}
	err := r.db.SelectContext(ctx, &logs, q, args...)
	return logs, err
}

// MarkRetry records one re-attempt: the counter bumps atomically either way,
// and the status flips to sent or stays failed with the fresh error.
func (r *Repository) MarkRetry(ctx context.Context, id uint64, providerMessageID, errMsg string) error {
	if errMsg == "" {
		const q = `UPDATE email_logs
		    SET status = ?, provider_message_id = ?, last_error = '',
		        retry_count = retry_count + 1, updated_at = NOW()
		    WHERE id = ?`
		_, err := r.db.ExecContext(ctx, q, StatusSent, providerMessageID, id)
		return err
	}
	const q = `UPDATE email_logs
	    SET status = ?, last_error = ?, retry_count = retry_count + 1, updated_at = NOW()
	    WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, StatusFailed, errMsg, id)
	return err
}

//
// ── Statistics ──────────────────────────────────────────────────────────
//

// CountsByStatus aggregates rows created in [from, to] into one bucket set.
func (r *Repository) CountsByStatus(ctx context.Context, from, to time.Time) (StatusCounts, error) {
	const q = `SELECT status, COUNT(*) AS n FROM email_logs
	    WHERE created_at BETWEEN ? AND ? GROUP BY status`

	rows := []struct {
		Status Status `db:"status"`
		N      int    `db:"n"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, q, from, to); err != nil {
		return StatusCounts{}, err
	}

	var c StatusCounts
	for _, row := range rows {
		c.bump(row.Status, row.N)
	}
	return c, nil
}

// CountsByTemplate aggregates rows created in [from, to] per template.
func (r *Repository) CountsByTemplate(ctx context.Context, from, to time.Time) (map[string]StatusCounts, error) {
	const q = `SELECT template, status, COUNT(*) AS n FROM email_logs
	    WHERE created_at BETWEEN ? AND ? GROUP BY template, status`

	rows := []struct {
		Template string `db:"template"`
		Status   Status `db:"status"`
		N        int    `db:"n"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, q, from, to); err != nil {
		return nil, err
	}

	out := make(map[string]StatusCounts)
	for _, row := range rows {
		c := out[row.Template]
		c.bump(row.Status, row.N)
		out[row.Template] = c
	}
	return out, nil
}

// Recent returns the n most recent log rows, newest first.
func (r *Repository) Recent(ctx context.Context, n int) ([]Log, error) {
	const q = "SELECT " + logCols + " FROM email_logs ORDER BY created_at DESC LIMIT ?"
	logs := []Log{}
	err := r.db.SelectContext(ctx, &logs, q, n)
	return logs, err
}

// bump adds n to the bucket for s.  Unknown statuses are dropped rather
// than guessed at.
func (c *StatusCounts) bump(s Status, n int) {
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusSent:
		c.Sent += n
	case StatusDelivered:
		c.Delivered += n
	case StatusFailed:
		c.Failed += n
	case StatusBounced:
		c.Bounced += n
	case StatusComplained:
		c.Complained += n
	}
}
