package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/chatstream/logger"
)

// RequestLogger logs every request with method, path, status and duration.
// Health checks are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.MergeWithDuration(map[string]interface{}{
				logger.FieldMethod: r.Method,
				logger.FieldPath:   r.URL.Path,
				logger.FieldStatus: sw.status,
				logger.FieldBytes:  sw.written,
			}, time.Since(start))
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}
			logByStatus(log, fields, sw.status)
		})
	}
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/health", "/v1/playground/status":
		return true
	}
	return false
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
