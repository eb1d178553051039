package models

import "time"

// ScheduleEventType names a schedule lifecycle change.
type ScheduleEventType string

const (
	ScheduleEventCreated   ScheduleEventType = "schedule.created"
	ScheduleEventUpdated   ScheduleEventType = "schedule.updated"
	ScheduleEventDeleted   ScheduleEventType = "schedule.deleted"
	ScheduleEventCancelled ScheduleEventType = "schedule.cancelled"
)

// ScheduleEvent is published after a mutation has been accepted by the upstream.
type ScheduleEvent struct {
	ID         string               `json:"id"`
	Type       ScheduleEventType    `json:"type"`
	Role       ConsoleRole          `json:"role"`
	ScheduleID EntityID             `json:"schedule_id"`
	Schedule   *SchedulePayload     `json:"schedule,omitempty"`
	Refund     *CancellationPreview `json:"refund,omitempty"`
	Reason     string               `json:"reason,omitempty"`
	RequestID  string               `json:"request_id,omitempty"`
	OccurredAt time.Time            `json:"occurred_at"`
}
