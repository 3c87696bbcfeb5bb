// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactsection/config"
	"github.com/go-chi/chi/v5/middleware"
)

// compressLevel trades a little ratio for speed; responses here are small.
const compressLevel = 5

// compressibleTypes are the content types this service emits.
var compressibleTypes = []string{
	"text/html",
	"text/plain",
	"application/json",
}

// CompressFromConfig returns gzip/deflate compression for the service's
// content types when enable_compression is set, otherwise a no-op.
func CompressFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Compress(compressLevel, compressibleTypes...)
}
