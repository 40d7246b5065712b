package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize is the body limit of the JSON API (1MB). Content files are referenced by locator.
const DefaultMaxRequestSize int64 = 1 << 20

// RequestSizeLimitMiddleware rejects declared bodies above maxRequestSize bytes and caps
// streamed bodies at the same size
func RequestSizeLimitMiddleware(maxRequestSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxRequestSize {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			next.ServeHTTP(w, r)
		})
	}
}
