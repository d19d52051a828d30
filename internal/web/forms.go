// internal/web/forms.go
//
// Lead form POST handlers.
//
// Workflow
// --------
// Each handler validates through the form registry, snapshots request
// metadata, captures the lead, and redirects 303 back to the page with
// ?submitted=1.  Validation failures re-render the page with field errors
// and a 422 so the visitor can fix their input; a persistence failure is
// the only 500 on this path.
package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/form"
	"github.com/AveryQuinnMedia/avery-site/internal/leads"
	"github.com/AveryQuinnMedia/avery-site/internal/requestinfo"
)

// submit runs shared validation plumbing.  On validation failure it
// re-renders the page and returns nil; the caller proceeds only with a
// clean map.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, formID, page string) map[string]any {
	clean, err := h.forms.Submit(formID, r)
	if err == nil {
		return clean
	}

	if !form.IsValidationError(err) {
		zap.S().Errorw("form submit failed", "form", formID, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}

	var ve form.ValidationError
	errors.As(err, &ve)
	p := h.newPage(r, "", "")
	p.FormErrors = ve.Fields
	// Content-Type must precede WriteHeader or the charset is lost.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)
	h.render(w, page, p)
	return nil
}

// capture finishes a lead: on success redirect 303, on failure 500.
func (h *Handler) capture(w http.ResponseWriter, r *http.Request, kind string, err error) {
	if err != nil {
		zap.S().Errorw("lead capture failed", "kind", kind, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, r.URL.Path+"?submitted=1", http.StatusSeeOther)
}

func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	clean := h.submit(w, r, "contact", "contact")
	if clean == nil {
		return
	}

	c := &leads.ContactSubmission{
		Name:    form.Str(clean, "name"),
		Email:   form.Str(clean, "email"),
		Subject: form.Str(clean, "subject"),
		Message: form.Str(clean, "message"),
		Meta:    leads.MetaFrom(requestinfo.FromContext(r.Context())),
	}
	h.capture(w, r, leads.KindContact, h.leads.CaptureContact(r.Context(), c))
}

func (h *Handler) SubmitSpeaking(w http.ResponseWriter, r *http.Request) {
	clean := h.submit(w, r, "speaking", "speaking")
	if clean == nil {
		return
	}

	q := &leads.SpeakingInquiry{
		Name:         form.Str(clean, "name"),
		Email:        form.Str(clean, "email"),
		Organization: form.Str(clean, "organization"),
		EventName:    form.Str(clean, "event_name"),
		EventDate:    form.Str(clean, "event_date"),
		AudienceSize: form.Str(clean, "audience_size"),
		Topic:        form.Str(clean, "topic"),
		Budget:       form.Str(clean, "budget"),
		Message:      form.Str(clean, "message"),
		Meta:         leads.MetaFrom(requestinfo.FromContext(r.Context())),
	}
	h.capture(w, r, leads.KindSpeaking, h.leads.CaptureSpeaking(r.Context(), q))
}

func (h *Handler) SubmitConsulting(w http.ResponseWriter, r *http.Request) {
	clean := h.submit(w, r, "consulting", "consulting")
	if clean == nil {
		return
	}

	q := &leads.ConsultingInquiry{
		Name:      form.Str(clean, "name"),
		Email:     form.Str(clean, "email"),
		Company:   form.Str(clean, "company"),
		Role:      form.Str(clean, "role"),
		Challenge: form.Str(clean, "challenge"),
		Budget:    form.Str(clean, "budget"),
		Timeline:  form.Str(clean, "timeline"),
		Meta:      leads.MetaFrom(requestinfo.FromContext(r.Context())),
	}
	h.capture(w, r, leads.KindConsulting, h.leads.CaptureConsulting(r.Context(), q))
}

// SubmitNewsletter accepts the footer signup embedded on several pages,
// so failures re-render the home page.
func (h *Handler) SubmitNewsletter(w http.ResponseWriter, r *http.Request) {
	clean := h.submit(w, r, "newsletter", "home")
	if clean == nil {
		return
	}

	sub := &leads.NewsletterSubscriber{
		Email: form.Str(clean, "email"),
		Name:  form.Str(clean, "name"),
		Meta:  leads.MetaFrom(requestinfo.FromContext(r.Context())),
	}
	h.capture(w, r, leads.KindNewsletter, h.leads.CaptureNewsletter(r.Context(), sub))
}

func (h *Handler) SubmitWaitlist(w http.ResponseWriter, r *http.Request) {
	clean := h.submit(w, r, "waitlist", "waitlist")
	if clean == nil {
		return
	}

	sg := &leads.WaitlistSignup{
		Email:   form.Str(clean, "email"),
		Name:    form.Str(clean, "name"),
		Company: form.Str(clean, "company"),
		UseCase: form.Str(clean, "use_case"),
		Meta:    leads.MetaFrom(requestinfo.FromContext(r.Context())),
	}
	h.capture(w, r, leads.KindWaitlist, h.leads.CaptureWaitlist(r.Context(), sg))
}

// SubmitDownload gates a resource file behind an email form.  The counter
// bump rides the same request; its failure is logged, not surfaced, since
// the lead and the delivery email already succeeded.
func (h *Handler) SubmitDownload(w http.ResponseWriter, r *http.Request) {
	res := h.content.GetResourceBySlug(r.Context(), chi.URLParam(r, "slug"))
	if res == nil || !res.IsActive {
		h.NotFound(w, r)
		return
	}

	clean := h.submit(w, r, "resource-download", "resources")
	if clean == nil {
		return
	}

	d := &leads.ResourceDownload{
		ResourceID:   res.ID,
		ResourceSlug: res.Slug,
		Email:        form.Str(clean, "email"),
		Name:         form.Str(clean, "name"),
		Meta:         leads.MetaFrom(requestinfo.FromContext(r.Context())),
	}
	if err := h.leads.CaptureDownload(r.Context(), d, res.Title, res.FileURL); err != nil {
		h.capture(w, r, leads.KindDownload, err)
		return
	}

	if err := h.content.IncrementDownload(r.Context(), res.ID); err != nil {
		zap.S().Warnw("download counter bump failed", "resource", res.Slug, "err", err)
	}
	http.Redirect(w, r, "/resources?submitted=1", http.StatusSeeOther)
}
