// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactsection/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies the CORS section of the config. It is mounted on the
// JSON API so a portfolio hosted on another origin can post to it. When
// enable_cors is false it is a no-op.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler { return next }
	}

	headers := coreCfg.CORS.CORSAllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Content-Type", "X-Request-ID"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   headers,
		ExposedHeaders:   coreCfg.CORS.CORSExposedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
