package middleware

import (
	"net/http"
	"strings"

	"github.com/dalemusser/contactsection/httputil"
	"go.uber.org/zap"
)

// wantsHTML reports whether the client asked for a page rather than JSON.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// NotFoundHandler logs a 404 and answers with plain text for browsers and a
// JSON error body for everything else. Pass it to chi.Router.NotFound.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
		}
		if wantsHTML(r) {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		httputil.JSONError(w, http.StatusNotFound, "not_found",
			"The requested resource was not found")
	}
}

// MethodNotAllowedHandler is the 405 counterpart of NotFoundHandler.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
		}
		if wantsHTML(r) {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		httputil.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			"The requested HTTP method is not allowed for this resource")
	}
}
