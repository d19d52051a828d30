// internal/leads/service.go
//
// Capture orchestration: persist the lead, then send best-effort email.
//
// Workflow
// --------
//  1. Insert the row.  An insert failure is the only error a form handler
//     ever sees; a lead we could not persist is a lost lead.
//  2. Count the capture in Prometheus.
//  3. Fire the notification and/or confirmation email.  Email failures are
//     already swallowed inside the email service; capture never fails
//     because the provider is down.
package leads

import (
	"context"

	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/email"
	"github.com/AveryQuinnMedia/avery-site/internal/metrics"
)

// Mailer is the slice of the email service the capture path uses.
type Mailer interface {
	Send(ctx context.Context, template, to string, data map[string]any) *email.Log
	Notify(ctx context.Context, template string, data map[string]any) *email.Log
}

type Service struct {
	repo *Repository
	mail Mailer
}

func NewService(repo *Repository, mail Mailer) *Service {
	return &Service{repo: repo, mail: mail}
}

func (s *Service) captured(kind string, id uint64) {
	metrics.LeadsCapturedTotal.WithLabelValues(kind).Inc()
	zap.S().Infow("lead captured", "kind", kind, "id", id)
}

// CaptureContact persists a contact submission and notifies the inbox.
func (s *Service) CaptureContact(ctx context.Context, c *ContactSubmission) error {
	if err := s.repo.InsertContact(ctx, c); err != nil {
		return err
	}
	s.captured(KindContact, c.ID)
	s.mail.Notify(ctx, email.TemplateContactNotification, map[string]any{
		"Name":    c.Name,
		"Email":   c.Email,
		"Subject": c.Subject,
		"Message": c.Message,
	})
	return nil
}

// CaptureSpeaking persists a speaking inquiry and notifies the inbox.
func (s *Service) CaptureSpeaking(ctx context.Context, q *SpeakingInquiry) error {
	if err := s.repo.InsertSpeaking(ctx, q); err != nil {
		return err
	}
	s.captured(KindSpeaking, q.ID)
	s.mail.Notify(ctx, email.TemplateSpeakingNotification, map[string]any{
		"Name":         q.Name,
		"Email":        q.Email,
		"Organization": q.Organization,
		"EventName":    q.EventName,
		"EventDate":    q.EventDate,
		"AudienceSize": q.AudienceSize,
		"Topic":        q.Topic,
		"Budget":       q.Budget,
		"Message":      q.Message,
	})
	return nil
}

// CaptureConsulting persists a consulting inquiry and notifies the inbox.
func (s *Service) CaptureConsulting(ctx context.Context, q *ConsultingInquiry) error {
	if err := s.repo.InsertConsulting(ctx, q); err != nil {
		return err
	}
	s.captured(KindConsulting, q.ID)
	s.mail.Notify(ctx, email.TemplateConsultingNotification, map[string]any{
		"Name":      q.Name,
		"Email":     q.Email,
		"Company":   q.Company,
		"Role":      q.Role,
		"Challenge": q.Challenge,
		"Budget":    q.Budget,
		"Timeline":  q.Timeline,
	})
	return nil
}

// CaptureNewsletter persists a subscriber and sends the welcome email.  A
// resubscribe (duplicate address) is treated as success without re-sending
// the welcome.
func (s *Service) CaptureNewsletter(ctx context.Context, sub *NewsletterSubscriber) error {
	if err := s.repo.InsertSubscriber(ctx, sub); err != nil {
		return err
	}
	if sub.ID == 0 {
		zap.S().Debugw("newsletter resubscribe ignored", "email", sub.Email)
		return nil
	}
	s.captured(KindNewsletter, sub.ID)
	s.mail.Send(ctx, email.TemplateNewsletterWelcome, sub.Email, map[string]any{
		"Name": sub.Name,
	})
	return nil
}

// CaptureDownload persists a download request and delivers the resource
// link.  The download-counter bump on the resource row is the content
// layer's job and is invoked by the form handler, not here.
func (s *Service) CaptureDownload(ctx context.Context, d *ResourceDownload, resourceTitle, fileURL string) error {
	if err := s.repo.InsertDownload(ctx, d); err != nil {
		return err
	}
	s.captured(KindDownload, d.ID)
	s.mail.Send(ctx, email.TemplateResourceDelivery, d.Email, map[string]any{
		"Name":          d.Name,
		"ResourceTitle": resourceTitle,
		"FileURL":       fileURL,
	})
	return nil
}

// CaptureWaitlist persists a waitlist signup and sends the confirmation.
func (s *Service) CaptureWaitlist(ctx context.Context, w *WaitlistSignup) error {
	if err := s.repo.InsertWaitlist(ctx, w); err != nil {
		return err
	}
	s.captured(KindWaitlist, w.ID)
	s.mail.Send(ctx, email.TemplateWaitlistConfirmation, w.Email, map[string]any{
		"Name":    w.Name,
		"Company": w.Company,
	})
	return nil
}
