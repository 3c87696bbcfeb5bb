// Package contactform holds the contact form's state, validates it, and
// dispatches valid submissions to an email transport.
//
// A Form moves Idle -> Submitting -> Idle. It enters Submitting only from a
// validated Idle state and always returns to Idle when the send settles.
package contactform

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/contactsection/internal/domain/models"
	"github.com/dalemusser/contactsection/pantry/email"
	"go.uber.org/zap"
)

// Default routing identifiers. They identify the EmailJS service, template
// and public key; none of them is a secret.
const (
	DefaultServiceID  = "service_dgg9bko"
	DefaultTemplateID = "template_qm8i4c9"
	DefaultPublicKey  = "QDOoCCVxVQppmfFU9"
)

// Routing carries the fixed identifiers sent with every submission.
type Routing struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
}

// DefaultRouting returns the built-in identifiers.
func DefaultRouting() Routing {
	return Routing{
		ServiceID:  DefaultServiceID,
		TemplateID: DefaultTemplateID,
		PublicKey:  DefaultPublicKey,
	}
}

// Override returns r with every non-empty field of o applied.
func (r Routing) Override(o Routing) Routing {
	if o.ServiceID != "" {
		r.ServiceID = o.ServiceID
	}
	if o.TemplateID != "" {
		r.TemplateID = o.TemplateID
	}
	if o.PublicKey != "" {
		r.PublicKey = o.PublicKey
	}
	return r
}

// Outcome is the result of one Submit call.
type Outcome int

const (
	// OutcomeRejected: validation failed; nothing was sent.
	OutcomeRejected Outcome = iota
	// OutcomeSent: the transport accepted the message; the form was cleared.
	OutcomeSent
	// OutcomeFailed: the transport failed; the form keeps its values.
	OutcomeFailed
	// OutcomeBusy: another submission from this form is still in flight.
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "rejected"
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	}
	return "unknown"
}

// Notifications emitted by the dispatcher.
var (
	SentEvent = models.NotificationEvent{
		Title:       "Message sent!",
		Description: "Thanks for reaching out. I'll get back to you soon!",
		Severity:    models.SeverityInfo,
	}
	FailedEvent = models.NotificationEvent{
		Title:       "Failed to send",
		Description: "Something went wrong. Please try again or email me directly.",
		Severity:    models.SeverityError,
	}
)

// Submit button labels.
const (
	LabelIdle       = "Send Message"
	LabelSubmitting = "Sending..."
)

// View is a snapshot of everything the presentation reflects.
type View struct {
	State      models.FormState
	Submitting bool
}

// SubmitLabel is the submit control's text.
func (v View) SubmitLabel() string {
	if v.Submitting {
		return LabelSubmitting
	}
	return LabelIdle
}

// SubmitDisabled reports whether the submit control is disabled.
func (v View) SubmitDisabled() bool {
	return v.Submitting
}

// Form is one contact form instance. It is safe for concurrent use; the
// lock is never held across the send.
type Form struct {
	mu         sync.Mutex
	state      models.FormState
	submitting bool

	sender   email.TemplateSender
	notifier Notifier
	routing  Routing
	logger   *zap.Logger
	observer func(View)
}

// Option configures a Form.
type Option func(*Form)

// WithRouting sets the routing identifiers (default: DefaultRouting).
func WithRouting(r Routing) Option {
	return func(f *Form) {
		f.routing = r
	}
}

// WithLogger sets the logger used for send failures.
func WithLogger(l *zap.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithObserver registers fn to receive a View after every state change.
// fn runs without the form's lock held.
func WithObserver(fn func(View)) Option {
	return func(f *Form) {
		f.observer = fn
	}
}

// WithState seeds the form's field values.
func WithState(s models.FormState) Option {
	return func(f *Form) {
		f.state = s
	}
}

// New creates an idle form. notifier may be nil.
func New(sender email.TemplateSender, notifier Notifier, opts ...Option) *Form {
	f := &Form{
		sender:   sender,
		notifier: notifier,
		routing:  DefaultRouting(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// View returns the current snapshot.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// State returns the current field values.
func (f *Form) State() models.FormState {
	return f.View().State
}

// Submitting reports whether a send is outstanding.
func (f *Form) Submitting() bool {
	return f.View().Submitting
}

// Set replaces one field's value. Unknown fields are ignored.
func (f *Form) Set(field Field, value string) {
	f.update(func(s *models.FormState) {
		switch field {
		case FieldName:
			s.Name = value
		case FieldEmail:
			s.Email = value
		case FieldMessage:
			s.Message = value
		}
	})
}

// SetName replaces the name field.
func (f *Form) SetName(v string) { f.Set(FieldName, v) }

// SetEmail replaces the email field.
func (f *Form) SetEmail(v string) { f.Set(FieldEmail, v) }

// SetMessage replaces the message field.
func (f *Form) SetMessage(v string) { f.Set(FieldMessage, v) }

// SetState replaces all three fields at once.
func (f *Form) SetState(s models.FormState) {
	f.update(func(cur *models.FormState) { *cur = s })
}

// Submit validates the current values and, if they pass, sends them.
//
// A rejection emits one error notification and never reaches the sender.
// A send emits "sent" and clears the form, or emits "failed" and leaves the
// values untouched. The submitting flag is released however the send ends.
func (f *Form) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return OutcomeBusy
	}
	clean, err := Validate(f.state)
	if err != nil {
		f.mu.Unlock()
		var ve *ValidationError
		if errors.As(err, &ve) {
			f.notify(ctx, ve.Event())
		}
		return OutcomeRejected
	}
	f.submitting = true
	v := f.viewLocked()
	f.mu.Unlock()
	f.emit(v)

	defer f.release()

	if err := f.sender.SendTemplate(ctx, f.request(clean)); err != nil {
		f.logger.Warn("contact send failed",
			zap.String("service_id", f.routing.ServiceID),
			zap.String("template_id", f.routing.TemplateID),
			zap.Error(err),
		)
		f.notify(ctx, FailedEvent)
		return OutcomeFailed
	}

	f.notify(ctx, SentEvent)
	f.SetState(models.FormState{})
	return OutcomeSent
}

func (f *Form) request(s models.FormState) email.TemplateRequest {
	return email.TemplateRequest{
		ServiceID:  f.routing.ServiceID,
		TemplateID: f.routing.TemplateID,
		PublicKey:  f.routing.PublicKey,
		Params: map[string]string{
			email.ParamFromName:  s.Name,
			email.ParamFromEmail: s.Email,
			email.ParamMessage:   s.Message,
		},
	}
}

func (f *Form) release() {
	f.mu.Lock()
	f.submitting = false
	v := f.viewLocked()
	f.mu.Unlock()
	f.emit(v)
}

func (f *Form) update(fn func(*models.FormState)) {
	f.mu.Lock()
	fn(&f.state)
	v := f.viewLocked()
	f.mu.Unlock()
	f.emit(v)
}

func (f *Form) viewLocked() View {
	return View{State: f.state, Submitting: f.submitting}
}

func (f *Form) emit(v View) {
	if f.observer != nil {
		f.observer(v)
	}
}

func (f *Form) notify(ctx context.Context, ev models.NotificationEvent) {
	if f.notifier != nil {
		f.notifier.Notify(ctx, ev)
	}
}
