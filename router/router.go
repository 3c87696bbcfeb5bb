// router/router.go
package router

import (
	"github.com/dalemusser/contactsection/config"
	"github.com/dalemusser/contactsection/logging"
	"github.com/dalemusser/contactsection/metrics"
	"github.com/dalemusser/contactsection/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New returns a chi.Router with the service-wide middleware stack, in order:
// RequestID, RealIP, Recoverer, security headers, compression, body limit,
// metrics, access log. 404/405 go to the JSON-or-text handlers. CORS is
// left to the routes that need it.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.SecureDefaults())
	r.Use(middleware.CompressFromConfig(coreCfg))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))

	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
