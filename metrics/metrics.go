// Package metrics exposes Prometheus metrics for HTTP traffic and contact
// submissions.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedRoute labels requests no route matched, so arbitrary 404 paths
// do not each create a series.
const unmatchedRoute = "unmatched"

var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests by route pattern.",
		// Contact posts include the email round trip.
		Buckets: []float64{0.005, 0.025, 0.1, 0.25, 1, 2.5, 5, 15},
	},
	[]string{"route", "method", "status"},
)

// Register adds the Go runtime, process, HTTP and contact collectors to reg.
// Collectors already present are skipped, so repeated calls are harmless.
func Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		reqDuration,
		submissions,
		sendDuration,
	} {
		if err := reg.Register(c); err != nil {
			var dup prometheus.AlreadyRegisteredError
			if !errors.As(err, &dup) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// HTTPMetrics times each request. Mount it inside logging.Recoverer so a
// panic is observed as the 500 the recoverer writes.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, max(r.ProtoMajor, 1))

		next.ServeHTTP(ww, r)

		reqDuration.WithLabelValues(routeLabel(r), r.Method, statusLabel(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// routeLabel returns the matched chi pattern ("/api/contact/channels").
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// statusLabel maps "nothing written" to 200 and nonsense codes to 500.
func statusLabel(code int) string {
	switch {
	case code == 0:
		code = http.StatusOK
	case code < 100 || code > 599:
		code = http.StatusInternalServerError
	}
	return strconv.Itoa(code)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
