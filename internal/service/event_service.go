package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/upstream"
	"github.com/noah-isme/bus-console-api/pkg/events"
	"github.com/noah-isme/bus-console-api/pkg/middleware/requestid"
)

type eventQueue interface {
	Enqueue(msg events.Message) error
}

// EventService turns accepted schedule mutations into broker events. A nil queue disables it.
type EventService struct {
	queue   eventQueue
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewEventService creates an event service.
func NewEventService(queue eventQueue, metrics *MetricsService, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{queue: queue, metrics: metrics, logger: logger, now: time.Now}
}

// Outcome is handed to the dispatcher so delivery results reach the metrics.
func (s *EventService) Outcome(msg events.Message, err error) {
	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}
	s.metrics.RecordEvent(models.ScheduleEventType(msg.Type), outcome)
}

// Publish enqueues the event. Failures are logged, never returned: the mutation already happened.
func (s *EventService) Publish(ctx context.Context, event models.ScheduleEvent) {
	if s == nil || s.queue == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now().UTC()
	}
	if event.Role == "" {
		if role, ok := upstream.RoleFrom(ctx); ok {
			event.Role = role
		}
	}
	if event.RequestID == "" {
		event.RequestID = requestid.FromContext(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("encode schedule event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	msg := events.Message{
		ID:    event.ID,
		Type:  string(event.Type),
		Key:   event.ScheduleID.String(),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(event.Type),
			"request_id": event.RequestID,
		},
	}
	if err := s.queue.Enqueue(msg); err != nil {
		s.metrics.RecordEvent(event.Type, "dropped")
		s.logger.Warn("schedule event not queued",
			zap.String("type", string(event.Type)),
			zap.String("schedule_id", event.ScheduleID.String()),
			zap.Error(err))
	}
}
