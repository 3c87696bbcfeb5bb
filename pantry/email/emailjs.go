package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultEmailJSURL is the EmailJS REST send endpoint.
const DefaultEmailJSURL = "https://api.emailjs.com/api/v1.0/email/send"

// maxErrorBody caps how much of an error response is kept in the error.
const maxErrorBody = 512

// EmailJSConfig configures an EmailJSClient.
//
// Server-side calls require "Allow EmailJS API for non-browser applications"
// in the EmailJS account security settings. When strict mode is enabled
// there, AccessToken (the private key) must be set as well.
type EmailJSConfig struct {
	// URL overrides the send endpoint. Default: DefaultEmailJSURL.
	URL string

	// AccessToken is the optional EmailJS private key.
	AccessToken string

	// Timeout bounds the whole request. Default: 15 seconds.
	Timeout time.Duration

	// HTTPClient replaces the default client (tests, proxies).
	HTTPClient *http.Client
}

// EmailJSClient sends templated messages through the EmailJS REST API.
// Templates and the destination mailbox are configured at EmailJS; the
// request only carries identifiers and template variables.
type EmailJSClient struct {
	url         string
	accessToken string
	hc          *http.Client
}

// NewEmailJSClient builds a client. Without an HTTPClient it uses a pooled
// transport with per-phase timeouts.
func NewEmailJSClient(cfg EmailJSConfig) *EmailJSClient {
	if cfg.URL == "" {
		cfg.URL = DefaultEmailJSURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
				ForceAttemptHTTP2:     true,
			},
		}
	}
	return &EmailJSClient{
		url:         cfg.URL,
		accessToken: cfg.AccessToken,
		hc:          hc,
	}
}

// emailJSPayload is the JSON body EmailJS expects.
type emailJSPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
	AccessToken    string            `json:"accessToken,omitempty"`
}

// APIError is returned when EmailJS answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("emailjs: status %d", e.StatusCode)
	}
	return fmt.Sprintf("emailjs: status %d: %s", e.StatusCode, e.Body)
}

// SendTemplate posts req to EmailJS. Any 2xx status is success.
func (c *EmailJSClient) SendTemplate(ctx context.Context, req TemplateRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(req.ServiceID) == "" {
		return fmt.Errorf("emailjs: service id is required")
	}
	if strings.TrimSpace(req.PublicKey) == "" {
		return fmt.Errorf("emailjs: public key is required")
	}

	body, err := json.Marshal(emailJSPayload{
		ServiceID:      req.ServiceID,
		TemplateID:     req.TemplateID,
		UserID:         req.PublicKey,
		TemplateParams: req.Params,
		AccessToken:    c.accessToken,
	})
	if err != nil {
		return fmt.Errorf("emailjs: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("emailjs: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("emailjs: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
	}
}
