package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/warung-pos/pkg/logger"
)

// quietPaths are polled by probes and scrapers; they log at debug.
var quietPaths = map[string]bool{"/health/live": true, "/health/ready": true, "/metrics": true}

// Logging attaches method and path to the request logger and writes one line
// per finished request with status, size and duration.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			sw := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(sw, r.WithContext(ctx))

			done := logg.WithFields(ctx, map[string]any{
				"status":      sw.statusCode(),
				"bytes":       sw.written,
				"duration_ms": time.Since(started).Milliseconds(),
			})
			if quietPaths[r.URL.Path] {
				logg.Debug(done, "request served")
				return
			}
			logg.Info(done, "request served")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.written += n
	return n, err
}

func (s *statusRecorder) statusCode() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// Flush keeps server-sent event streams working behind the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
