package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// APIKeyHeader carries the payment gateway's shared key
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware guards the gateway callbacks with the shared key.
// An empty key disables the callbacks: every request is rejected.
func APIKeyMiddleware(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := []byte(r.Header.Get(APIKeyHeader))

			if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
				logger.Warn("rejected gateway callback",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("ip", r.RemoteAddr),
					zap.Bool("key_present", len(provided) > 0),
				)
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
