package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/metrics"
)

// Metrics records every request against its route template, not the raw
// path, to keep label cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
