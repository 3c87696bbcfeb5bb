package bootstrap

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/contactsection/internal/app/contactform"
	"github.com/dalemusser/contactsection/pantry/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewSender_EmailJS(t *testing.T) {
	cfg := appConfigFrom(defaultValues())

	deps, err := newSender(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, TransportEmailJS, deps.Transport)
	assert.NotNil(t, deps.Sender)
	assert.Nil(t, deps.Store)
	assert.Empty(t, deps.Checks)
}

func TestNewSender_LogTransportWarnsAndSends(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := appConfigFrom(defaultValues())
	cfg.Transport = TransportLog

	deps, err := newSender(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("not delivered").Len())

	req := email.TemplateRequest{
		ServiceID:  cfg.Routing.ServiceID,
		TemplateID: cfg.Routing.TemplateID,
		PublicKey:  cfg.Routing.PublicKey,
		Params: map[string]string{
			email.ParamFromName:  "Ada",
			email.ParamFromEmail: "ada@example.com",
			email.ParamMessage:   "hello",
		},
	}
	require.NoError(t, deps.Sender.SendTemplate(context.Background(), req))
}

func TestNewSender_SMTPRegistersRoutingTemplate(t *testing.T) {
	cfg := appConfigFrom(defaultValues())
	cfg.Transport = TransportSMTP
	cfg.Routing.TemplateID = "template_custom"
	cfg.SMTP.Host = "127.0.0.1"
	cfg.SMTP.FromAddress = "site@example.com"
	cfg.SMTP.To = []string{"me@example.com"}

	deps, err := newSender(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, deps.Store)
	assert.True(t, deps.Store.Has("template_custom"))
	assert.Contains(t, deps.Checks, "smtp")
	require.NoError(t, Verify(context.Background(), nil, cfg, deps, zap.NewNop()))
}

func TestNewSender_SESStaticCredentials(t *testing.T) {
	cfg := appConfigFrom(defaultValues())
	cfg.Transport = TransportSES
	cfg.SES.Region = "us-east-1"
	cfg.SES.FromAddress = "site@example.com"
	cfg.SES.To = []string{"me@example.com"}
	cfg.SES.AccessKey = "AKIDEXAMPLE"
	cfg.SES.SecretKey = "secret"
	cfg.SES.Endpoint = "http://127.0.0.1:1"

	deps, err := newSender(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, deps.Sender)
	assert.True(t, deps.Store.Has(contactform.DefaultTemplateID))
}

func TestNewSender_Unknown(t *testing.T) {
	cfg := appConfigFrom(defaultValues())
	cfg.Transport = "fax"
	_, err := newSender(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestVerify_MissingTemplate(t *testing.T) {
	store, err := email.NewContactStore("other")
	require.NoError(t, err)
	cfg := appConfigFrom(defaultValues())
	deps := Deps{Transport: TransportSMTP, Sender: email.NewSender(cfg.SMTP, store), Store: store}

	err = Verify(context.Background(), nil, cfg, deps, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), contactform.DefaultTemplateID)

	err = Verify(context.Background(), nil, cfg, Deps{Transport: TransportLog}, zap.NewNop())
	assert.Error(t, err, "nil sender")
}

func TestDialCheck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	check := dialCheck("127.0.0.1", addr.Port)
	assert.NoError(t, check(ctx))

	require.NoError(t, ln.Close())
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	p, _ := strconv.Atoi(port)
	assert.Error(t, dialCheck(host, p)(ctx))
}
