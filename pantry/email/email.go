// Package email delivers contact-form submissions through a transactional
// email transport. Every transport implements TemplateSender: the caller
// names a template, supplies its variables, and the transport decides how
// that turns into a delivered message.
//
// Transports:
//   - EmailJSClient posts to the EmailJS REST API (templates live at EmailJS)
//   - Sender delivers over SMTP via github.com/wneessen/go-mail
//   - SESSender delivers through Amazon SES v2
//   - LogSender logs the request and succeeds (development)
//
// Sender and SESSender render templates locally from a TemplateStore.
package email

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Template variable keys sent with every contact submission.
const (
	ParamFromName  = "from_name"
	ParamFromEmail = "from_email"
	ParamMessage   = "message"
)

var (
	// ErrNoRecipients is returned when a message has no To addresses.
	ErrNoRecipients = errors.New("email: no recipients specified")

	// ErrEmptyBody is returned when a message has neither text nor HTML body.
	ErrEmptyBody = errors.New("email: message body is empty")
)

// TemplateRequest is one templated send.
//
// ServiceID, TemplateID and PublicKey are routing identifiers, not secrets.
// Transports that render locally use TemplateID to pick a template from
// their TemplateStore and ignore the other two.
type TemplateRequest struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	Params     map[string]string
}

// Validate checks the fields every transport needs.
func (r TemplateRequest) Validate() error {
	if strings.TrimSpace(r.TemplateID) == "" {
		return fmt.Errorf("email: template id is required")
	}
	if len(r.Params) == 0 {
		return fmt.Errorf("email: template params are empty")
	}
	return nil
}

// ParamNames returns the sorted parameter keys. Handy for logging a request
// without logging user content.
func (r TemplateRequest) ParamNames() []string {
	names := make([]string, 0, len(r.Params))
	for k := range r.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// TemplateSender sends a templated message.
type TemplateSender interface {
	SendTemplate(ctx context.Context, req TemplateRequest) error
}

// TemplateSenderFunc adapts a function to TemplateSender.
type TemplateSenderFunc func(ctx context.Context, req TemplateRequest) error

// SendTemplate calls f.
func (f TemplateSenderFunc) SendTemplate(ctx context.Context, req TemplateRequest) error {
	return f(ctx, req)
}

// Message represents an email message to be sent.
type Message struct {
	To       []string // Recipient email addresses
	Subject  string   // Email subject line
	TextBody string   // Plain text body (optional if HTMLBody is set)
	HTMLBody string   // HTML body (optional if TextBody is set)
	ReplyTo  string   // Reply-To address (optional)
}

func (m Message) check() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	if m.TextBody == "" && m.HTMLBody == "" {
		return ErrEmptyBody
	}
	return nil
}

// renderForDelivery renders req through store into a Message addressed to
// the given recipients. The submitter's address (if any) becomes Reply-To.
func renderForDelivery(store *TemplateStore, req TemplateRequest, to []string) (*Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("email: no template store configured")
	}
	msg, err := store.Render(req.TemplateID, req.Params)
	if err != nil {
		return nil, err
	}
	msg.To = to
	msg.ReplyTo = req.Params[ParamFromEmail]
	return msg, nil
}
