// internal/leads/model.go
//
// Lead rows: the six form submissions the site captures.
//
// Context
// -------
// Leads are write-once.  A row is inserted when the form posts, read back
// only by humans in the database, and never updated.  Every row carries the
// same request-metadata snapshot (IP, user agent, referrer, UTM, geo) taken
// from the enrichment middleware at submit time.
package leads

import (
	"time"

	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
)

// Form kinds, used as the Prometheus label and in log lines.
const (
	KindContact    = "contact"
	KindSpeaking   = "speaking"
	KindConsulting = "consulting"
	KindNewsletter = "newsletter"
	KindDownload   = "resource-download"
	KindWaitlist   = "waitlist"
)

// Meta is the request-metadata snapshot embedded in every lead row.
type Meta struct {
	IPAddress   string `db:"ip_address"`
	UserAgent   string `db:"user_agent"`
	Browser     string `db:"browser"`
	OS          string `db:"os"`
	Device      string `db:"device"`
	IsBot       bool   `db:"is_bot"`
	Referrer    string `db:"referrer"`
	UTMSource   string `db:"utm_source"`
	UTMMedium   string `db:"utm_medium"`
	UTMCampaign string `db:"utm_campaign"`
	UTMTerm     string `db:"utm_term"`
	UTMContent  string `db:"utm_content"`
	CountryISO  string `db:"country_iso"`
	City        string `db:"city"`
}

// MetaFrom snapshots the enrichment middleware's request info.  A nil info
// (middleware not run, as in tests) yields an empty snapshot.
func MetaFrom(ri *requestinfo.RequestInfo) Meta {
	if ri == nil {
		return Meta{}
	}
	m := Meta{
		UserAgent:   ri.UA.Raw,
		Browser:     ri.UA.Browser,
		OS:          ri.UA.OS,
		Device:      ri.UA.Device,
		IsBot:       ri.UA.IsBot,
		Referrer:    ri.Referrer,
		UTMSource:   ri.UTM.Source,
		UTMMedium:   ri.UTM.Medium,
		UTMCampaign: ri.UTM.Campaign,
		UTMTerm:     ri.UTM.Term,
		UTMContent:  ri.UTM.Content,
		CountryISO:  ri.Geo.CountryISO,
		City:        ri.Geo.City,
	}
	if ri.Geo.IP != nil {
		m.IPAddress = ri.Geo.IP.String()
	}
	return m
}

//
// ── Rows ────────────────────────────────────────────────────────────────
//

type ContactSubmission struct {
	ID      uint64 `db:"id"`
	Name    string `db:"name"`
	Email   string `db:"email"`
	Subject string `db:"subject"`
	Message string `db:"message"`
	Meta
	CreatedAt time.Time `db:"created_at"`
}

type SpeakingInquiry struct {
	ID           uint64 `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	Organization string `db:"organization"`
	EventName    string `db:"event_name"`
	EventDate    string `db:"event_date"` // free text, "Q3 2026" is valid
	AudienceSize string `db:"audience_size"`
	Topic        string `db:"topic"`
	Budget       string `db:"budget"`
	Message      string `db:"message"`
	Meta
	CreatedAt time.Time `db:"created_at"`
}

type ConsultingInquiry struct {
	ID        uint64 `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Company   string `db:"company"`
	Role      string `db:"role"`
	Challenge string `db:"challenge"`
	Budget    string `db:"budget"`
	Timeline  string `db:"timeline"`
	Meta
	CreatedAt time.Time `db:"created_at"`
}

type NewsletterSubscriber struct {
	ID    uint64 `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Meta
	CreatedAt time.Time `db:"created_at"`
}

// ResourceDownload records one download-form submission.  The matching
// counter bump on the resource row happens in the content layer.
type ResourceDownload struct {
	ID           uint64 `db:"id"`
	ResourceID   uint64 `db:"resource_id"`
	ResourceSlug string `db:"resource_slug"`
	Email        string `db:"email"`
	Name         string `db:"name"`
	Meta
	CreatedAt time.Time `db:"created_at"`
}

type WaitlistSignup struct {
	ID      uint64 `db:"id"`
	Email   string `db:"email"`
	Name    string `db:"name"`
	Company string `db:"company"`
	UseCase string `db:"use_case"`
	Meta
	CreatedAt time.Time `db:"created_at"`
}
