// internal/email/service.go
//
// Dispatch orchestration: send, retry, and statistics.
//
// Context
// -------
// Send is deliberately best-effort.  Lead capture must succeed even when
// the provider is down, so nothing here returns an error to the form
// handlers.  Failures are recorded on the log row, counted in Prometheus,
// and logged through Zap.  The retry endpoint later sweeps `failed` rows
// back through the provider under a bounded batch.
//
// Workflow (Send)
// ---------------
//  1. Insert a `pending` log row with the rendered subject and body.
//  2. Invoke the provider.
//  3. Flip the row to `sent` (keeping the provider message id, which later
//     webhook events key on) or `failed` (keeping the error message).
package email

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AveryQuinnMedia/avery-site/internal/metrics"
)

// Renderer produces the HTML body for a named email template.  The view
// engine satisfies this; tests supply a stub.
type Renderer func(name string, data map[string]any) (string, error)

// Options carries the send identity and retry policy from configuration.
type Options struct {
	From             string
	ReplyTo          string
	NotifyTo         string // inbox for internal lead notifications
	MaxRetries       int
	RetryWindowHours int
	RetryBatchCap    int
}

// Service owns email dispatch.  Everything is injected; there are no
// module-level client singletons.
type Service struct {
	repo     *Repository
	provider Provider
	render   Renderer
	opts     Options
}

func NewService(repo *Repository, provider Provider, render Renderer, opts Options) *Service {
	return &Service{repo: repo, provider: provider, render: render, opts: opts}
}

// subjects maps template identifiers to subject lines.
var subjects = map[string]string{
	TemplateContactNotification:    "New contact message from averyquinn.com",
	TemplateSpeakingNotification:   "New speaking inquiry",
	TemplateConsultingNotification: "New consulting inquiry",
	TemplateNewsletterWelcome:      "Welcome to the Signal Shift newsletter",
	TemplateResourceDelivery:       "Your download from Avery Quinn",
	TemplateWaitlistConfirmation:   "You're on the Draft Engine waitlist",
}

//
// ── Send ────────────────────────────────────────────────────────────────
//

// Send dispatches one templated email and returns the log row, or nil when
// even the log insert failed.  It never returns an error; see the package
// comment for why.
func (s *Service) Send(ctx context.Context, template, to string, data map[string]any) *Log {
	subject, ok := subjects[template]
	if !ok {
		zap.S().Warnw("unknown email template", "template", template)
		subject = template
	}

	html, renderErr := s.render(template, data)

	l := &Log{Template: template, Recipient: to, Subject: subject, HTML: html}
	if err := s.repo.CreateLog(ctx, l); err != nil {
		zap.S().Errorw("email log insert failed", "template", template, "err", err)
		return nil
	}

	if renderErr != nil {
		s.fail(ctx, l, "render: "+renderErr.Error())
		return l
	}

	pid, err := s.provider.Send(ctx, Message{
		From:    s.opts.From,
		ReplyTo: s.opts.ReplyTo,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		s.fail(ctx, l, err.Error())
		return l
	}

	if err := s.repo.MarkSent(ctx, l.ID, pid); err != nil {
		zap.S().Errorw("email log update failed", "id", l.ID, "err", err)
	}
	l.Status = StatusSent
	l.ProviderMessageID = pid
	metrics.EmailsSentTotal.WithLabelValues(template).Inc()
	return l
}

// Notify sends to the configured internal inbox.
func (s *Service) Notify(ctx context.Context, template string, data map[string]any) *Log {
	return s.Send(ctx, template, s.opts.NotifyTo, data)
}

func (s *Service) fail(ctx context.Context, l *Log, msg string) {
	zap.S().Warnw("email send failed", "template", l.Template, "id", l.ID, "err", msg)
	if err := s.repo.MarkFailed(ctx, l.ID, msg); err != nil {
		zap.S().Errorw("email log update failed", "id", l.ID, "err", err)
	}
	l.Status = StatusFailed
	l.LastError = msg
	metrics.EmailSendErrorsTotal.WithLabelValues(l.Template).Inc()
}

//
// ── Retry ───────────────────────────────────────────────────────────────
//

// RetrySummary categorizes failed rows for GET /api/email/retry.
type RetrySummary struct {
	Eligible  []Log `json:"eligible"`
	Exhausted []Log `json:"exhausted"`
}

// BatchResult reports one POST /api/email/retry invocation.
type BatchResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// normalizeFilter fills zero fields from configured policy defaults.
func (s *Service) normalizeFilter(f RetryFilter) RetryFilter {
	if f.HoursBack <= 0 {
		f.HoursBack = s.opts.RetryWindowHours
	}
	if f.MaxRetries <= 0 {
		f.MaxRetries = s.opts.MaxRetries
	}
	if f.Limit <= 0 || f.Limit > s.opts.RetryBatchCap {
		f.Limit = s.opts.RetryBatchCap
	}
	return f
}

// RetrySummary lists eligible and exhausted failed sends.
func (s *Service) RetrySummary(ctx context.Context, f RetryFilter) (RetrySummary, error) {
	f = s.normalizeFilter(f)

	var sum RetrySummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Eligible, err = s.repo.Eligible(gctx, f)
		return
	})
	g.Go(func() (err error) {
		sum.Exhausted, err = s.repo.Exhausted(gctx, f)
		return
	})
	err := g.Wait()
	return sum, err
}

// RetryBatch re-attempts one bounded batch of eligible rows, oldest created
// first.  Rows beyond the cap wait for a later invocation; there is no
// queueing or ordering guarantee beyond the oldest-first fetch.
func (s *Service) RetryBatch(ctx context.Context, f RetryFilter) (BatchResult, error) {
	f = s.normalizeFilter(f)

	logs, err := s.repo.Eligible(ctx, f)
	if err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	for i := range logs {
		l := &logs[i]
		res.Attempted++
		metrics.EmailRetriesTotal.Inc()

		pid, sendErr := s.provider.Send(ctx, Message{
			From:    s.opts.From,
			ReplyTo: s.opts.ReplyTo,
			To:      []string{l.Recipient},
			Subject: l.Subject,
			HTML:    l.HTML,
		})

		var msg string
		if sendErr != nil {
			msg = sendErr.Error()
			res.Failed++
		} else {
			res.Succeeded++
		}
		if err := s.repo.MarkRetry(ctx, l.ID, pid, msg); err != nil {
			zap.S().Errorw("retry bookkeeping failed", "id", l.ID, "err", err)
		}
	}

	zap.S().Infow("retry batch complete",
		"attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

//
// ── Statistics ──────────────────────────────────────────────────────────
//

// StatsFor aggregates delivery statistics for [from, to].  Backend failures
// degrade to zeroed buckets with a log line, matching the site-wide policy
// of never surfacing query errors.
func (s *Service) StatsFor(ctx context.Context, from, to time.Time) Stats {
	st := Stats{From: from, To: to, ByTemplate: map[string]StatusCounts{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.Overall, err = s.repo.CountsByStatus(gctx, from, to)
		return
	})
	g.Go(func() (err error) {
		st.ByTemplate, err = s.repo.CountsByTemplate(gctx, from, to)
		return
	})
	g.Go(func() (err error) {
		st.Recent, err = s.repo.Recent(gctx, 10)
		return
	})

	if err := g.Wait(); err != nil {
		zap.S().Warnw("email stats query failed", "err", err)
		return Stats{From: from, To: to, ByTemplate: map[string]StatusCounts{}, Recent: []Log{}}
	}
	if st.ByTemplate == nil {
		st.ByTemplate = map[string]StatusCounts{}
	}
	if st.Recent == nil {
		st.Recent = []Log{}
	}
	return st
}
