// health/health.go
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/contactsection/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultCheckTimeout bounds each check when Options.Timeout is zero.
const DefaultCheckTimeout = 2 * time.Second

// Check returns nil when the dependency is usable.
type Check func(ctx context.Context) error

// Response is the JSON body of /health.
type Response struct {
	Status string            `json:"status"`
	Info   map[string]string `json:"info,omitempty"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Options configures Handler.
type Options struct {
	// Info is static data echoed in every response (e.g. the email transport).
	Info map[string]string
	// Checks are run concurrently on each request.
	Checks map[string]Check
	// Timeout bounds each check; zero means DefaultCheckTimeout.
	Timeout time.Duration
}

// Handler runs opts.Checks on every request. It answers 200 with status
// "ok" when all pass (or there are none) and 503 with status "error"
// otherwise, listing each check's result.
func Handler(opts Options, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := Response{Status: "ok", Info: opts.Info}
		if len(opts.Checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, resp)
			return
		}

		var (
			mu      sync.Mutex
			results = make(map[string]string, len(opts.Checks))
			failed  bool
		)
		g, ctx := errgroup.WithContext(r.Context())
		for name, check := range opts.Checks {
			g.Go(func() error {
				msg := "ok"
				if check != nil {
					cctx, cancel := context.WithTimeout(ctx, timeout)
					err := check(cctx)
					cancel()
					if err != nil {
						msg = "error: " + err.Error()
						logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
					}
				}
				mu.Lock()
				results[name] = msg
				if msg != "ok" {
					failed = true
				}
				mu.Unlock()
				// A failing check must not cancel its siblings.
				return nil
			})
		}
		_ = g.Wait()

		resp.Checks = results
		status := http.StatusOK
		if failed {
			resp.Status = "error"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	})
}

// Mount attaches GET /health to r.
func Mount(r chi.Router, opts Options, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(opts, logger))
}
