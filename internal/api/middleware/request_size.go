package middleware

import "net/http"

const (
	// DefaultMaxBodySize bounds JSON request bodies.
	DefaultMaxBodySize int64 = 1 << 20 // 1MB

	// MediaMaxBodySize bounds story media uploads.
	MediaMaxBodySize int64 = 100 << 20 // 100MB
)

// RequestSize caps request bodies at maxBytes via http.MaxBytesReader, so
// oversized payloads fail with 413 instead of being buffered.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
