// Package contact serves the contact section: the HTML page with its HTMX
// form, and a JSON API for script clients.
package contact

import (
	"errors"
	"net/http"

	"github.com/dalemusser/contactsection/httputil"
	"github.com/dalemusser/contactsection/internal/app/contactform"
	"github.com/dalemusser/contactsection/internal/domain/models"
	"github.com/dalemusser/contactsection/metrics"
	"github.com/dalemusser/contactsection/pantry/email"
	"github.com/dalemusser/contactsection/templates"
	"go.uber.org/zap"
)

// PageTitle is the document title of the contact page.
const PageTitle = "Contact | Sujal Giri"

// Handler holds the collaborators every request shares. Each request builds
// its own contactform.Form, so no form state crosses requests.
type Handler struct {
	sender  email.TemplateSender
	routing contactform.Routing
	render  templates.Renderer
	logger  *zap.Logger
}

// NewHandler wires a Handler. sender is the configured email transport.
func NewHandler(sender email.TemplateSender, routing contactform.Routing, engine *templates.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sender:  sender,
		routing: routing,
		render:  templates.Renderer{Engine: engine, Logger: logger},
		logger:  logger,
	}
}

type pageData struct {
	Title        string
	View         contactform.View
	Notification *models.NotificationEvent
	Channels     []models.ContactChannel
	Location     models.Location
	BusyLabel    string
}

func (h *Handler) pageData(v contactform.View, ev *models.NotificationEvent) pageData {
	return pageData{
		Title:        PageTitle,
		View:         v,
		Notification: ev,
		Channels:     contactform.Channels(),
		Location:     contactform.OwnerLocation(),
		BusyLabel:    contactform.LabelSubmitting,
	}
}

// submission is the result of running one request's values through a Form.
type submission struct {
	outcome contactform.Outcome
	view    contactform.View
	event   *models.NotificationEvent
}

// submit runs state through a fresh Form and records the outcome metric.
func (h *Handler) submit(r *http.Request, state models.FormState) submission {
	var events contactform.Collector
	form := contactform.New(h.sender,
		contactform.LogNotifier(h.logger, &events),
		contactform.WithRouting(h.routing),
		contactform.WithLogger(h.logger),
		contactform.WithState(state),
	)

	outcome := form.Submit(r.Context())
	metrics.ObserveSubmission(outcome.String())

	s := submission{outcome: outcome, view: form.View()}
	if ev, ok := events.Last(); ok {
		s.event = &ev
	}
	return s
}

// ShowPage serves GET / and GET /contact with an empty form.
func (h *Handler) ShowPage(w http.ResponseWriter, r *http.Request) {
	h.render.Auto(w, r, http.StatusOK, pageTemplate,
		map[string]string{formTarget: formSnippet},
		h.pageData(contactform.View{}, nil))
}

// SubmitForm handles the form-encoded POST /contact. HTMX requests get only
// the form fragment back; others get the whole page. Either way the
// response is 200 so HTMX swaps the toast in.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	s := h.submit(r, models.FormState{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Message: r.PostForm.Get("message"),
	})

	h.render.Auto(w, r, http.StatusOK, pageTemplate,
		map[string]string{formTarget: formSnippet},
		h.pageData(s.view, s.event))
}

type apiRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type apiResponse struct {
	Outcome      string                    `json:"outcome"`
	Notification *models.NotificationEvent `json:"notification,omitempty"`
	Form         models.FormState          `json:"form"`
}

// apiStatus maps an outcome to the JSON endpoint's status code.
func apiStatus(o contactform.Outcome) int {
	switch o {
	case contactform.OutcomeSent:
		return http.StatusOK
	case contactform.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case contactform.OutcomeFailed:
		return http.StatusBadGateway
	case contactform.OutcomeBusy:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// SubmitJSON handles POST /api/contact.
func (h *Handler) SubmitJSON(w http.ResponseWriter, r *http.Request) {
	var in apiRequest
	if err := httputil.BindJSON(r, &in); err != nil {
		httputil.JSONError(w, httputil.StatusForBindError(err), "invalid_request", err.Error())
		return
	}

	s := h.submit(r, models.FormState{Name: in.Name, Email: in.Email, Message: in.Message})

	httputil.WriteJSON(w, apiStatus(s.outcome), apiResponse{
		Outcome:      s.outcome.String(),
		Notification: s.event,
		Form:         s.view.State,
	})
}

type channelsResponse struct {
	Channels []models.ContactChannel `json:"channels"`
	Location models.Location         `json:"location"`
}

// ListChannels handles GET /api/contact/channels.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, channelsResponse{
		Channels: contactform.Channels(),
		Location: contactform.OwnerLocation(),
	})
}
