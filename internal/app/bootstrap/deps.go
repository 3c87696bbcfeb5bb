package bootstrap

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/dalemusser/contactsection/metrics"
	"github.com/dalemusser/contactsection/pantry/email"
	"github.com/dalemusser/contactsection/pantry/health"
	"go.uber.org/zap"
)

// Deps are the outbound dependencies built at startup.
type Deps struct {
	// Transport is the configured transport name, reported by /health.
	Transport string
	// Sender is the instrumented transport every Form sends through.
	Sender email.TemplateSender
	// Store renders the local template for smtp/ses; nil for emailjs/log.
	Store *email.TemplateStore
	// Checks feed /health.
	Checks map[string]health.Check
}

// newSender builds the transport named by appCfg.Transport.
func newSender(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	deps := Deps{Transport: appCfg.Transport, Checks: map[string]health.Check{}}

	var sender email.TemplateSender
	switch appCfg.Transport {
	case TransportEmailJS:
		sender = email.NewEmailJSClient(appCfg.EmailJS)

	case TransportSMTP, TransportSES:
		// The local template is registered under the routing template ID so
		// the same TemplateRequest works for every transport.
		store, err := email.NewContactStore(appCfg.Routing.TemplateID)
		if err != nil {
			return Deps{}, fmt.Errorf("contact template: %w", err)
		}
		deps.Store = store

		if appCfg.Transport == TransportSMTP {
			sender = email.NewSender(appCfg.SMTP, store)
			deps.Checks["smtp"] = dialCheck(appCfg.SMTP.Host, appCfg.SMTP.Port)
		} else {
			ses, err := email.ConnectSES(ctx, appCfg.SES, store, appCfg.EmailTimeout)
			if err != nil {
				return Deps{}, fmt.Errorf("ses: %w", err)
			}
			sender = ses
		}

	case TransportLog:
		logger.Warn("email transport is \"log\"; contact messages are logged, not delivered")
		sender = email.NewLogSender(logger)

	default:
		return Deps{}, fmt.Errorf("unknown email transport %q", appCfg.Transport)
	}

	deps.Sender = metrics.InstrumentSender(appCfg.Transport, sender)
	logger.Info("email transport ready",
		zap.String("transport", appCfg.Transport),
		zap.String("service_id", appCfg.Routing.ServiceID),
		zap.String("template_id", appCfg.Routing.TemplateID))
	return deps, nil
}

// dialCheck reports whether a TCP connection to host:port can be opened.
func dialCheck(host string, port int) health.Check {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return func(ctx context.Context) error {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
