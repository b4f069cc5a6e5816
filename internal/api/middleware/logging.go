package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// statusRecorder captures the status code and body size a handler writes so
// the access log can report them after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status   int
	bytesOut int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytesOut += n
	return n, err
}

// RequestLogging emits one access-log line per request. Server errors log at
// error level and client errors at warn so a level-filtered stream still
// surfaces failures. Runs after session resolution so the line can name who
// made the request.
func RequestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			event := logger.Info()
			switch {
			case rec.status >= http.StatusInternalServerError:
				event = logger.Error()
			case rec.status >= http.StatusBadRequest:
				event = logger.Warn()
			}

			event = event.
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_ip", remoteIP(r)).
				Int("status", rec.status).
				Int("bytes_out", rec.bytesOut).
				Int64("duration_ms", time.Since(start).Milliseconds())

			if session := SessionFrom(r.Context()); session != nil {
				event = event.
					Str("user_id", session.UserID.String()).
					Str("role", string(session.Role))
			}

			event.Msg("request")
		})
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
