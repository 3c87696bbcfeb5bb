package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

// Config holds SMTP server configuration.
type Config struct {
	// Host is the SMTP server hostname (e.g., "email-smtp.us-east-1.amazonaws.com")
	Host string

	// Port is the SMTP server port (typically 587 for STARTTLS, 465 for SSL)
	Port int

	// Username for SMTP authentication
	Username string

	// Password for SMTP authentication
	Password string

	// FromAddress is the envelope sender. Contact submissions are sent from
	// this address with the submitter as Reply-To.
	FromAddress string

	// FromName is the sender display name (optional)
	FromName string

	// To receives every contact submission.
	To []string

	// UseTLS enables STARTTLS (default: true, recommended for port 587)
	UseTLS bool

	// UseSSL enables implicit SSL/TLS (for port 465)
	UseSSL bool

	// Timeout for SMTP operations (default: 30 seconds)
	Timeout time.Duration
}

// Sender sends emails using the configured SMTP server.
type Sender struct {
	cfg   Config
	store *TemplateStore
}

// NewSender creates a new SMTP sender. Templated sends render through store.
func NewSender(cfg Config, store *TemplateStore) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	// Default to TLS unless SSL is explicitly enabled
	if !cfg.UseSSL && cfg.Port != 465 {
		cfg.UseTLS = true
	}
	return &Sender{cfg: cfg, store: store}
}

// SendTemplate renders req and delivers it to the configured recipients.
func (s *Sender) SendTemplate(ctx context.Context, req TemplateRequest) error {
	msg, err := renderForDelivery(s.store, req, s.cfg.To)
	if err != nil {
		return err
	}
	return s.Send(ctx, *msg)
}

// Send sends an email message.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := msg.check(); err != nil {
		return err
	}

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	c, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("email: failed to create client: %w", err)
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}

	return nil
}

func (s *Sender) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return nil, fmt.Errorf("email: invalid from address: %w", err)
		}
	} else {
		if err := m.From(s.cfg.FromAddress); err != nil {
			return nil, fmt.Errorf("email: invalid from address: %w", err)
		}
	}

	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("email: invalid to address: %w", err)
	}

	// The submitter's address passed a permissive pattern only; a Reply-To
	// that go-mail refuses must not block delivery of the message itself.
	if msg.ReplyTo != "" {
		_ = m.ReplyTo(msg.ReplyTo)
	}

	m.Subject(msg.Subject)

	if msg.TextBody != "" && msg.HTMLBody != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	} else if msg.HTMLBody != "" {
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	} else {
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}

func (s *Sender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}

	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	if s.cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else if s.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	return opts
}
