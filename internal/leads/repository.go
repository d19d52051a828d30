// internal/leads/repository.go
//
// Write-once persistence for lead rows.
//
// Notes
// -----
//   - Every insert is a single named statement; sqlx flattens the embedded
//     Meta snapshot into the column list.
//   - Newsletter signups use INSERT IGNORE so resubscribing an address that
//     already exists is a silent no-op instead of a duplicate-key error.
package leads

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const metaCols = `ip_address, user_agent, browser, os, device, is_bot, referrer,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content, country_iso, city`

const metaVals = `:ip_address, :user_agent, :browser, :os, :device, :is_bot, :referrer,
	:utm_source, :utm_medium, :utm_campaign, :utm_term, :utm_content, :country_iso, :city`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) InsertContact(ctx context.Context, c *ContactSubmission) error {
	q := `INSERT INTO contact_submissions
	    (name, email, subject, message, ` + metaCols + `, created_at)
	    VALUES (:name, :email, :subject, :message, ` + metaVals + `, NOW())`
	res, err := r.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return err
	}
	return fillID(res, &c.ID)
}

func (r *Repository) InsertSpeaking(ctx context.Context, s *SpeakingInquiry) error {
	q := `INSERT INTO speaking_inquiries
	    (name, email, organization, event_name, event_date, audience_size,
	     topic, budget, message, ` + metaCols + `, created_at)
	    VALUES (:name, :email, :organization, :event_name, :event_date, :audience_size,
	     :topic, :budget, :message, ` + metaVals + `, NOW())`
	res, err := r.db.NamedExecContext(ctx, q, s)
	if err != nil {
		return err
	}
	return fillID(res, &s.ID)
}

func (r *Repository) InsertConsulting(ctx context.Context, c *ConsultingInquiry) error {
	q := `INSERT INTO consulting_inquiries
	    (name, email, company, role, challenge, budget, timeline, ` + metaCols + `, created_at)
	    VALUES (:name, :email, :company, :role, :challenge, :budget, :timeline, ` + metaVals + `, NOW())`
	res, err := r.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return err
	}
	return fillID(res, &c.ID)
}

func (r *Repository) InsertSubscriber(ctx context.Context, s *NewsletterSubscriber) error {
	q := `INSERT IGNORE INTO newsletter_subscribers
	    (email, name, ` + metaCols + `, created_at)
	    VALUES (:email, :name, ` + metaVals + `, NOW())`
	res, err := r.db.NamedExecContext(ctx, q, s)
	if err != nil {
		return err
	}
	return fillID(res, &s.ID)
}

func (r *Repository) InsertDownload(ctx context.Context, d *ResourceDownload) error {
	q := `INSERT INTO resource_downloads
	    (resource_id, resource_slug, email, name, ` + metaCols + `, created_at)
	    VALUES (:resource_id, :resource_slug, :email, :name, ` + metaVals + `, NOW())`
	res, err := r.db.NamedExecContext(ctx, q, d)
	if err != nil {
		return err
	}
	return fillID(res, &d.ID)
}

func (r *Repository) InsertWaitlist(ctx context.Context, w *WaitlistSignup) error {
	q := `INSERT INTO waitlist_signups
	    (email, name, company, use_case, ` + metaCols + `, created_at)
	    VALUES (:email, :name, :company, :use_case, ` + metaVals + `, NOW())`
	res, err := r.db.NamedExecContext(ctx, q, w)
	if err != nil {
		return err
	}
	return fillID(res, &w.ID)
}

// fillID copies the generated key onto the row.  INSERT IGNORE hitting a
// duplicate leaves id zero, which callers treat as "already subscribed".
func fillID(res interface{ LastInsertId() (int64, error) }, id *uint64) error {
	n, err := res.LastInsertId()
	if err != nil {
		return err
	}
	*id = uint64(n)
	return nil
}
