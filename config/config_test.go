package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func loadForTest(t *testing.T, args []string, keys ...AppKey) (*CoreConfig, AppConfigValues, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	return load(nil, fs, args, keys)
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, vals, err := loadForTest(t, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "dev" || cfg.LogLevel != "info" {
		t.Errorf("Env/LogLevel = %q/%q, want dev/info", cfg.Env, cfg.LogLevel)
	}
	if cfg.HTTP.HTTPPort != 8080 || cfg.HTTP.HTTPSPort != 443 {
		t.Errorf("ports = %d/%d", cfg.HTTP.HTTPPort, cfg.HTTP.HTTPSPort)
	}
	if cfg.HTTP.ShutdownTimeout != 15*time.Second || cfg.HTTP.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("timeouts = %+v", cfg.HTTP)
	}
	if cfg.MaxRequestBodyBytes != 64<<10 || !cfg.EnableCompression {
		t.Errorf("MaxRequestBodyBytes = %d, EnableCompression = %v", cfg.MaxRequestBodyBytes, cfg.EnableCompression)
	}
	if cfg.TLS.LetsEncryptCacheDir != "letsencrypt-cache" {
		t.Errorf("LetsEncryptCacheDir = %q", cfg.TLS.LetsEncryptCacheDir)
	}
	if len(vals) != 0 {
		t.Errorf("app values = %v, want empty", vals)
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := "http_port: 6060\nlog_level: error\nshutdown_timeout: 30\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONTACT_HTTP_PORT", "9090")
	t.Setenv("CONTACT_LOG_LEVEL", "warn")

	cfg, _, err := loadForTest(t, []string{"--http_port=7070"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.HTTPPort != 7070 {
		t.Errorf("HTTPPort = %d, want flag value 7070", cfg.HTTP.HTTPPort)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env value warn", cfg.LogLevel)
	}
	if cfg.HTTP.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want file value 30s", cfg.HTTP.ShutdownTimeout)
	}
}

func TestLoad_BrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := loadForTest(t, nil); err == nil {
		t.Error("expected an error for an unreadable config file")
	}
}

func TestLoad_AppKeys(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONTACT_SMTP_PORT", "2525")
	t.Setenv("CONTACT_CONTACT_TO", `["a@example.com","b@example.com"]`)
	t.Setenv("CONTACT_EMAIL_TIMEOUT", "30")

	keys := []AppKey{
		{Name: "email_transport", Default: "emailjs", Desc: "transport"},
		{Name: "smtp_port", Default: 587, Desc: "port"},
		{Name: "smtp_use_ssl", Default: false, Desc: "ssl"},
		{Name: "contact_to", Default: []string{}, Desc: "recipients"},
		{Name: "email_timeout", Default: 15 * time.Second, Desc: "timeout"},
		{Name: "smtp_from_name", Default: "Portfolio Contact", Desc: "name"},
	}
	_, vals, err := loadForTest(t, []string{"--email_transport=smtp", "--smtp_use_ssl"}, keys...)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := vals.String("email_transport"); got != "smtp" {
		t.Errorf("email_transport = %q, want smtp", got)
	}
	if got := vals.Int("smtp_port"); got != 2525 {
		t.Errorf("smtp_port = %d, want 2525", got)
	}
	if !vals.Bool("smtp_use_ssl") {
		t.Error("smtp_use_ssl = false, want true")
	}
	if got := strings.Join(vals.StringSlice("contact_to"), ","); got != "a@example.com,b@example.com" {
		t.Errorf("contact_to = %q", got)
	}
	if got := vals.Duration("email_timeout", time.Second); got != 30*time.Second {
		t.Errorf("email_timeout = %v, want 30s", got)
	}
	if got := vals.String("smtp_from_name"); got != "Portfolio Contact" {
		t.Errorf("smtp_from_name = %q, want default", got)
	}
}

func TestLoad_DurationFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, vals, err := loadForTest(t,
		[]string{"--email_timeout=1m30s", "--write_timeout=10s"},
		AppKey{Name: "email_timeout", Default: 15 * time.Second})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := vals.Duration("email_timeout", 0); got != 90*time.Second {
		t.Errorf("email_timeout = %v, want 1m30s", got)
	}
	if cfg.HTTP.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v", cfg.HTTP.WriteTimeout)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad int", map[string]string{"CONTACT_HTTP_PORT": "eighty"}, `"http_port"`},
		{"bad duration", map[string]string{"CONTACT_EMAIL_TIMEOUT": "soon"}, `"email_timeout"`},
		{"zero duration", map[string]string{"CONTACT_SHUTDOWN_TIMEOUT": "0"}, `"shutdown_timeout"`},
		{"bad bool", map[string]string{"CONTACT_USE_HTTPS": "maybe"}, `"use_https"`},
		{"bad json list", map[string]string{"CONTACT_CORS_ALLOWED_ORIGINS": `["a"`}, `"cors_allowed_origins"`},
		{"every failure reported", map[string]string{
			"CONTACT_HTTP_PORT":     "x",
			"CONTACT_EMAIL_TIMEOUT": "y",
		}, `"email_timeout"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, err := loadForTest(t, nil, AppKey{Name: "email_timeout", Default: 15 * time.Second})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Lists(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONTACT_CONTACT_TO", "a@example.com, b@example.com,,")
	t.Setenv("CONTACT_ENABLE_CORS", "true")
	t.Setenv("CONTACT_CORS_ALLOWED_ORIGINS", `["https://portfolio.example"]`)
	t.Setenv("CONTACT_CORS_ALLOWED_METHODS", "GET,POST")

	cfg, vals, err := loadForTest(t, nil, AppKey{Name: "contact_to", Default: []string{}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := vals.StringSlice("contact_to"); len(got) != 2 || got[1] != "b@example.com" {
		t.Errorf("contact_to = %v", got)
	}
	if got := cfg.CORS.CORSAllowedOrigins; len(got) != 1 || got[0] != "https://portfolio.example" {
		t.Errorf("origins = %v", got)
	}
	if got := cfg.CORS.CORSAllowedMethods; len(got) != 2 || got[1] != "POST" {
		t.Errorf("methods = %v", got)
	}
}

func TestLoad_AppKeyConflict(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, _, err := loadForTest(t, nil, AppKey{Name: "http_port", Default: 1}); err == nil {
		t.Error("expected conflict error for app key shadowing a core flag")
	}
	if _, _, err := loadForTest(t, nil, AppKey{Name: "ratio", Default: 1.5}); err == nil {
		t.Error("expected error for unsupported default type")
	}
}

func TestValidateCoreConfig(t *testing.T) {
	base := func() CoreConfig {
		return CoreConfig{
			Env:  "dev",
			HTTP: HTTPConfig{HTTPPort: 8080, HTTPSPort: 443},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*CoreConfig)
		wantErr string
	}{
		{"valid", func(c *CoreConfig) {}, ""},
		{"bad env", func(c *CoreConfig) { c.Env = "staging" }, "env must be"},
		{"bad port", func(c *CoreConfig) { c.HTTP.HTTPPort = 0 }, "http_port"},
		{"https without certs", func(c *CoreConfig) { c.HTTP.UseHTTPS = true }, "CONTACT_CERT_FILE"},
		{"manual tls ok", func(c *CoreConfig) {
			c.HTTP.UseHTTPS = true
			c.TLS.CertFile, c.TLS.KeyFile = "cert.pem", "key.pem"
		}, ""},
		{"https on port 80", func(c *CoreConfig) {
			c.HTTP.UseHTTPS = true
			c.HTTP.HTTPSPort = 80
			c.TLS.CertFile, c.TLS.KeyFile = "cert.pem", "key.pem"
		}, "cannot be 80"},
		{"le without https", func(c *CoreConfig) {
			c.TLS.UseLetsEncrypt = true
			c.TLS.Domain = "example.com"
			c.TLS.LetsEncryptEmail = "a@example.com"
		}, "requires use_https"},
		{"le without domain", func(c *CoreConfig) {
			c.HTTP.UseHTTPS = true
			c.TLS.UseLetsEncrypt = true
			c.TLS.LetsEncryptEmail = "a@example.com"
		}, "CONTACT_DOMAIN"},
		{"le with cert files", func(c *CoreConfig) {
			c.HTTP.UseHTTPS = true
			c.TLS.UseLetsEncrypt = true
			c.TLS.Domain = "example.com"
			c.TLS.LetsEncryptEmail = "a@example.com"
			c.TLS.CertFile = "cert.pem"
		}, "cannot be combined"},
		{"cors wildcard with credentials", func(c *CoreConfig) {
			c.CORS = CORSConfig{
				EnableCORS:           true,
				CORSAllowedOrigins:   []string{"*"},
				CORSAllowedMethods:   []string{"POST"},
				CORSAllowCredentials: true,
			}
		}, `cannot use "*"`},
		{"cors without origins", func(c *CoreConfig) { c.CORS.EnableCORS = true }, "enable_cors requires"},
		{"negative body limit", func(c *CoreConfig) { c.MaxRequestBodyBytes = -1 }, "max_request_body_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := validateCoreConfig(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestToDuration(t *testing.T) {
	tests := []struct {
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"90s", 90 * time.Second, false},
		{" 1m30s ", 90 * time.Second, false},
		{"120", 120 * time.Second, false},
		{30, 30 * time.Second, false},
		{int64(2), 2 * time.Second, false},
		{1.5, 1500 * time.Millisecond, false},
		{15 * time.Second, 15 * time.Second, false},
		{"soon", 0, true},
		{"-1s", 0, true},
		{0, 0, true},
		{[]string{"1s"}, 0, true},
	}
	for _, tt := range tests {
		got, err := toDuration(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("toDuration(%v) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("toDuration(%v) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestIsSecret(t *testing.T) {
	for name, want := range map[string]bool{
		"smtp_password":        true,
		"ses_secret_key":       true,
		"ses_access_key":       true,
		"emailjs_access_token": true,
		"emailjs_public_key":   false,
		"smtp_host":            false,
	} {
		if got := isSecret(name); got != want {
			t.Errorf("isSecret(%q) = %v, want %v", name, got, want)
		}
	}
}
