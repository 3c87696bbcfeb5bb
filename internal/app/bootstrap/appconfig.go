package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/contactsection/config"
	"github.com/dalemusser/contactsection/internal/app/contactform"
	"github.com/dalemusser/contactsection/pantry/email"
)

// Email transports selectable with email_transport.
const (
	TransportEmailJS = "emailjs"
	TransportSMTP    = "smtp"
	TransportSES     = "ses"
	TransportLog     = "log"
)

// DefaultEmailTimeout bounds one transport call. Configured values must lie
// within [MinEmailTimeout, MaxEmailTimeout].
const (
	DefaultEmailTimeout = 15 * time.Second
	MinEmailTimeout     = time.Second
	MaxEmailTimeout     = 2 * time.Minute
)

// appKeys are the service's configuration keys on top of config.CoreConfig.
// Each is also a flag and a CONTACT_* environment variable.
var appKeys = []config.AppKey{
	{Name: "email_transport", Default: TransportEmailJS, Desc: "Email transport: emailjs | smtp | ses | log"},
	{Name: "email_timeout", Default: DefaultEmailTimeout, Desc: "Timeout for one email send"},
	{Name: "contact_to", Default: []string{}, Desc: "Recipients for smtp/ses transports"},

	{Name: "emailjs_service_id", Default: contactform.DefaultServiceID, Desc: "EmailJS service ID"},
	{Name: "emailjs_template_id", Default: contactform.DefaultTemplateID, Desc: "EmailJS template ID (also the local template name)"},
	{Name: "emailjs_public_key", Default: contactform.DefaultPublicKey, Desc: "EmailJS public key"},
	{Name: "emailjs_access_token", Default: "", Desc: "EmailJS private key for strict mode"},
	{Name: "emailjs_api_url", Default: email.DefaultEmailJSURL, Desc: "EmailJS send endpoint"},

	{Name: "smtp_host", Default: "", Desc: "SMTP server host"},
	{Name: "smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password"},
	{Name: "smtp_from", Default: "", Desc: "SMTP envelope sender"},
	{Name: "smtp_from_name", Default: "Portfolio Contact", Desc: "SMTP sender display name"},
	{Name: "smtp_use_ssl", Default: false, Desc: "Use implicit TLS (port 465)"},

	{Name: "ses_region", Default: "", Desc: "AWS region for SES"},
	{Name: "ses_from", Default: "", Desc: "Verified SES sender address"},
	{Name: "ses_access_key", Default: "", Desc: "Static AWS access key (optional)"},
	{Name: "ses_secret_key", Default: "", Desc: "Static AWS secret key (optional)"},
	{Name: "ses_endpoint", Default: "", Desc: "SES endpoint override"},
}

// AppConfig is the validated service configuration.
type AppConfig struct {
	Transport    string
	EmailTimeout time.Duration
	Routing      contactform.Routing

	EmailJS email.EmailJSConfig
	SMTP    email.Config
	SES     email.SESConfig
}

// appConfigFrom maps loaded key values onto AppConfig.
func appConfigFrom(vals config.AppConfigValues) AppConfig {
	timeout := vals.Duration("email_timeout", DefaultEmailTimeout)
	to := vals.StringSlice("contact_to")

	return AppConfig{
		Transport:    strings.ToLower(strings.TrimSpace(vals.String("email_transport"))),
		EmailTimeout: timeout,
		Routing: contactform.DefaultRouting().Override(contactform.Routing{
			ServiceID:  vals.String("emailjs_service_id"),
			TemplateID: vals.String("emailjs_template_id"),
			PublicKey:  vals.String("emailjs_public_key"),
		}),
		EmailJS: email.EmailJSConfig{
			URL:         vals.String("emailjs_api_url"),
			AccessToken: vals.String("emailjs_access_token"),
			Timeout:     timeout,
		},
		SMTP: email.Config{
			Host:        vals.String("smtp_host"),
			Port:        vals.Int("smtp_port"),
			Username:    vals.String("smtp_username"),
			Password:    vals.String("smtp_password"),
			FromAddress: vals.String("smtp_from"),
			FromName:    vals.String("smtp_from_name"),
			To:          to,
			UseSSL:      vals.Bool("smtp_use_ssl"),
			Timeout:     timeout,
		},
		SES: email.SESConfig{
			Region:      vals.String("ses_region"),
			FromAddress: vals.String("ses_from"),
			To:          to,
			AccessKey:   vals.String("ses_access_key"),
			SecretKey:   vals.String("ses_secret_key"),
			Endpoint:    vals.String("ses_endpoint"),
		},
	}
}

// Validate reports every missing or inconsistent setting for the selected
// transport in one error.
func (c AppConfig) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.EmailTimeout < MinEmailTimeout || c.EmailTimeout > MaxEmailTimeout {
		add("email_timeout must be between %v and %v, got %v", MinEmailTimeout, MaxEmailTimeout, c.EmailTimeout)
	}

	switch c.Transport {
	case TransportEmailJS:
		if c.Routing.ServiceID == "" || c.Routing.TemplateID == "" || c.Routing.PublicKey == "" {
			add("emailjs requires emailjs_service_id, emailjs_template_id and emailjs_public_key")
		}
	case TransportSMTP:
		if c.SMTP.Host == "" {
			add("smtp requires smtp_host")
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			add("smtp_port must be in 1..65535")
		}
		if !contactform.ValidEmail(c.SMTP.FromAddress) {
			add("smtp requires a valid smtp_from")
		}
		if (c.SMTP.Username == "") != (c.SMTP.Password == "") {
			add("smtp_username and smtp_password must be set together")
		}
		checkRecipients(c.SMTP.To, add)
	case TransportSES:
		if c.SES.Region == "" {
			add("ses requires ses_region")
		}
		if !contactform.ValidEmail(c.SES.FromAddress) {
			add("ses requires a valid ses_from")
		}
		if (c.SES.AccessKey == "") != (c.SES.SecretKey == "") {
			add("ses_access_key and ses_secret_key must be set together")
		}
		checkRecipients(c.SES.To, add)
	case TransportLog:
	default:
		add("unknown email_transport %q (want emailjs, smtp, ses or log)", c.Transport)
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("app configuration errors: " + strings.Join(problems, "; "))
}

func checkRecipients(to []string, add func(string, ...any)) {
	if len(to) == 0 {
		add("contact_to must list at least one recipient")
		return
	}
	for _, addr := range to {
		if !contactform.ValidEmail(addr) {
			add("contact_to entry %q is not an email address", addr)
		}
	}
}
