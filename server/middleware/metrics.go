package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/chatstream/observability"
)

// Metrics records request counts and durations per matched route. A nil
// recorder makes it a no-op.
func Metrics(m *observability.RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordRequest(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
