package models

import "time"

// AuditAction constants represent console mutations that are logged.
const (
	AuditActionScheduleCreate = "SCHEDULE_CREATE"
	AuditActionScheduleUpdate = "SCHEDULE_UPDATE"
	AuditActionScheduleDelete = "SCHEDULE_DELETE"
	AuditActionScheduleCancel = "SCHEDULE_EMERGENCY_CANCEL"
	AuditActionTariffCreate   = "TARIFF_RATE_CREATE"
	AuditActionTariffUpdate   = "TARIFF_RATE_UPDATE"
	AuditActionTariffDelete   = "TARIFF_RATE_DELETE"
	AuditResourceSchedule     = "schedule"
	AuditResourceTariffRate   = "tariff_rate"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	Role       string    `db:"role" json:"role"`
	Subject    *string   `db:"subject" json:"subject,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	RequestID  string    `db:"request_id" json:"request_id"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Resource   string
	ResourceID string
	Page       int
	PageSize   int
}
