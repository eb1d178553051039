package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/service"
	"github.com/noah-isme/bus-console-api/pkg/middleware/requestid"
	"github.com/noah-isme/bus-console-api/pkg/response"
)

// ContextAuditResourceKey lets a handler name the record it created when the id is not in the path.
const ContextAuditResourceKey = "auditResourceID"

// Audit records a console mutation once the handler has answered successfully.
func Audit(auditSvc *service.AuditService, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		status := c.Writer.Status()
		if auditSvc == nil || status >= 300 || c.GetBool(response.CancelledKey) {
			return
		}

		var resourceID *string
		if id := c.Param("id"); id != "" {
			resourceID = &id
		} else if id := c.GetString(ContextAuditResourceKey); id != "" {
			resourceID = &id
		}
		var subject *string
		if s := Subject(c); s != "" {
			subject = &s
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  status,
			"latency": time.Since(start).Milliseconds(),
		})

		auditSvc.Record(c.Request.Context(), &models.AuditLog{
			Role:       string(Role(c)),
			Subject:    subject,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			Payload:    payload,
			RequestID:  requestid.Value(c),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			CreatedAt:  start,
		})
	}
}
