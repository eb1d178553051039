package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bus-console-api/internal/service"
)

// Metrics records one console_http_* sample per request, labelled by route template
// (e.g. /api/v1/:role/schedules/:id) so schedule ids and console roles do not explode
// label cardinality. Unmatched routes share a single label.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
