// middleware/contenttype.go
package middleware

import (
	"mime"
	"net/http"
	"strings"

	"github.com/dalemusser/contactsection/httputil"
)

// Media types accepted by the contact endpoints.
const (
	MediaJSON = "application/json"
	MediaForm = "application/x-www-form-urlencoded"
)

// RequireContentType rejects requests whose Content-Type (parameters
// ignored) is not one of allowed with 415 and a JSON error body. A
// "+json" suffix counts as MediaJSON.
func RequireContentType(allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !contentTypeAllowed(r.Header.Get("Content-Type"), allowed) {
				httputil.JSONError(w, http.StatusUnsupportedMediaType,
					"unsupported_media_type",
					"Content-Type must be one of: "+strings.Join(allowed, ", "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contentTypeAllowed(header string, allowed []string) bool {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	for _, a := range allowed {
		if mt == a || (a == MediaJSON && strings.HasSuffix(mt, "+json")) {
			return true
		}
	}
	return false
}
