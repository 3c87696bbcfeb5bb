// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dalemusser/contactsection/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// errInsecureKey marks a key file readable by group or others.
var errInsecureKey = errors.New("overly permissive permissions")

// WithShutdownSignals returns a context canceled on SIGINT or SIGTERM.
// The returned cancel also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over plain HTTP, manual TLS, or
// Let's Encrypt (http-01) depending on cfg, and blocks until ctx is done or
// a server fails. In both TLS modes a second server on :80 redirects to
// HTTPS (and answers ACME challenges when autocert is in use).
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.CoreConfig,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		return errors.New("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return errors.New("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newServer(cfg, handler, logger)

	var (
		ln     net.Listener
		aux    *http.Server
		auxErr chan error // stays nil in HTTP-only mode so its select case never fires
	)

	startAux := func(h http.Handler) {
		aux = newServer(cfg, h, logger)
		aux.Addr = ":80"
		auxErr = make(chan error, 1)
		go func() { auxErr <- serveResult(aux.ListenAndServe()) }()
		logger.Info("redirect server listening", zap.String("addr", aux.Addr))
	}

	if !cfg.HTTP.UseHTTPS {
		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			return fmt.Errorf("listen http %s: %w", addr, err)
		}
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))
	} else {
		var tlsCfg *tls.Config
		if cfg.TLS.UseLetsEncrypt {
			m := &autocert.Manager{
				Prompt:     autocert.AcceptTOS,
				HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
				Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
				Email:      cfg.TLS.LetsEncryptEmail,
			}
			startAux(m.HTTPHandler(httpRedirectHandler()))
			if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
				logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
			}
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}
		} else {
			cert, err := loadManualCert(cfg, logger)
			if err != nil {
				return err
			}
			startAux(httpRedirectHandler())
			tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
		}
		srv.TLSConfig = tlsCfg

		addr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)
		base, err := net.Listen("tcp", addr)
		if err != nil {
			_ = shutdownAux(context.Background(), aux)
			return fmt.Errorf("listen https %s: %w", addr, err)
		}
		ln = tls.NewListener(base, tlsCfg)
		logger.Info("HTTPS server listening",
			zap.String("addr", addr),
			zap.String("domain", cfg.TLS.Domain),
			zap.Bool("lets_encrypt", cfg.TLS.UseLetsEncrypt))
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- serveResult(srv.Serve(ln)) }()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server")
			// ctx is already done; the shutdown window gets its own deadline.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = shutdownAux(shutdownCtx, aux)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = ln.Close()
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			_ = shutdownAux(context.Background(), aux)
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				_ = srv.Close()
				_ = ln.Close()
				return fmt.Errorf("auxiliary server error: %w", err)
			}
			aux, auxErr = nil, nil
		}
	}
}

func newServer(cfg *config.CoreConfig, h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	}
	return srv
}

// loadManualCert checks and loads cert_file/key_file. A world-readable key
// is fatal in prod and a warning elsewhere.
func loadManualCert(cfg *config.CoreConfig, logger *zap.Logger) (tls.Certificate, error) {
	if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
		return tls.Certificate{}, errors.New("manual TLS selected but cert_file / key_file not provided")
	}
	if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
		if !errors.Is(err, errInsecureKey) {
			return tls.Certificate{}, err
		}
		if cfg.Env == "prod" {
			return tls.Certificate{}, fmt.Errorf("production security: %w", err)
		}
		logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
	}
	cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load TLS cert/key: %w", err)
	}
	return cert, nil
}

// serveResult maps a clean close to nil.
func serveResult(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func shutdownAux(ctx context.Context, aux *http.Server) error {
	if aux == nil {
		return nil
	}
	return aux.Shutdown(ctx)
}

// httpRedirectHandler sends every request to the HTTPS origin with the same
// host and request URI. Hosts or URIs that could inject headers get a 400.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || hasControlChars(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func hasControlChars(s string) bool {
	for _, c := range s {
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}

// isValidHost accepts host, host:port, and bracketed IPv6 forms.
func isValidHost(host string) bool {
	if host == "" || hasControlChars(host) || strings.ContainsAny(host, " /\\@") {
		return false
	}

	hostPart := host
	if h, portStr, err := net.SplitHostPort(host); err == nil {
		port, perr := strconv.Atoi(portStr)
		if perr != nil || port <= 0 || port > 65535 {
			return false
		}
		hostPart = h
		if strings.Contains(hostPart, ":") {
			// SplitHostPort strips the brackets of an IPv6 literal.
			hostPart = "[" + hostPart + "]"
		}
	}
	if hostPart == "" {
		return false
	}

	if strings.HasPrefix(hostPart, "[") {
		if !strings.HasSuffix(hostPart, "]") || len(hostPart) < 3 {
			return false
		}
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.IndexByte(ip, '%'); i != -1 {
			ip = ip[:i]
		}
		return net.ParseIP(ip) != nil
	}
	return true
}

// validateTLSFiles checks both paths are regular files and, outside
// Windows, that the key is not readable by group or others.
func validateTLSFiles(certFile, keyFile string) error {
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("TLS %s file does not exist: %s", f.kind, f.path)
			}
			return fmt.Errorf("cannot access TLS %s file %s: %w", f.kind, f.path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return fmt.Errorf("TLS key file %s has %w %o (recommended: 0600)", f.path, errInsecureKey, info.Mode().Perm())
		}
	}
	return nil
}

// waitForCert polls autocert until it has a certificate for host, the
// timeout passes, or ctx ends.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for cert for %q: %w (last error: %v)", host, ctx.Err(), err)
		case <-tick.C:
		}
	}
}
