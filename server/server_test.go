package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/dalemusser/contactsection/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsValidHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"example.com:8443", true},
		{"[::1]:443", true},
		{"[fe80::1%25eth0]", true},
		{"", false},
		{"example.com:0", false},
		{"example.com:99999", false},
		{"evil.com/path", false},
		{"user@evil.com", false},
		{"bad\r\nhost", false},
		{"[zz::1]", false},
	}
	for _, tt := range tests {
		if got := isValidHost(tt.host); got != tt.want {
			t.Errorf("isValidHost(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestHTTPRedirectHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/contact?x=1", nil)
	rec := httptest.NewRecorder()
	httpRedirectHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://example.com/contact?x=1" {
		t.Errorf("Location = %q", loc)
	}

	req = httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	req.Host = "evil.com/phish"
	rec = httptest.NewRecorder()
	httpRedirectHandler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad host status = %d, want 400", rec.Code)
	}
}

func TestValidateTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	if err := os.WriteFile(cert, []byte("c"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(key, []byte("k"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := validateTLSFiles(cert, key); err != nil {
		t.Errorf("valid files: %v", err)
	}
	if err := validateTLSFiles(filepath.Join(dir, "missing.pem"), key); err == nil {
		t.Error("missing cert should fail")
	}
	if err := validateTLSFiles(cert, dir); err == nil {
		t.Error("directory key should fail")
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(key, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := validateTLSFiles(cert, key); !errors.Is(err, errInsecureKey) {
			t.Errorf("err = %v, want errInsecureKey", err)
		}
	}
}

func TestListenAndServe_NilArgs(t *testing.T) {
	if err := ListenAndServeWithContext(context.Background(), nil, http.NotFoundHandler(), nil); err == nil {
		t.Error("nil cfg should fail")
	}
	if err := ListenAndServeWithContext(context.Background(), &config.CoreConfig{}, nil, nil); err == nil {
		t.Error("nil handler should fail")
	}
}

func TestListenAndServe_HTTPGracefulShutdown(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := &config.CoreConfig{HTTP: config.HTTPConfig{
		HTTPPort:          0,
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   2 * time.Second,
	}}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ListenAndServeWithContext(ctx, cfg, handler, zap.New(core)) }()

	var addr string
	deadline := time.Now().Add(5 * time.Second)
	for addr == "" && time.Now().Before(deadline) {
		if entries := logs.FilterMessage("HTTP server listening").All(); len(entries) > 0 {
			addr, _ = entries[0].ContextMap()["addr"].(string)
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if addr == "" {
		cancel()
		t.Fatal("server never reported its address")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		cancel()
		t.Fatalf("addr %q: %v", addr, err)
	}
	resp, err := http.Get("http://127.0.0.1:" + port + "/")
	if err != nil {
		cancel()
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("shutdown returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
