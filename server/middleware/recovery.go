package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/chatstream/logger"
)

// Recovery recovers from handler panics, logs the stack and answers 500
// with a {"detail": ...} body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.Error("Panic recovered", map[string]interface{}{
						logger.FieldError:  fmt.Sprintf("%v", err),
						"stack":            string(debug.Stack()),
						logger.FieldPath:   r.URL.Path,
						logger.FieldMethod: r.Method,
					})
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Internal Server Error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
