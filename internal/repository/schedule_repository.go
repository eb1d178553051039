package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/upstream"
)

// ScheduleRepository is the upstream-backed schedule store.
type ScheduleRepository struct {
	client *upstream.Client
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(client *upstream.Client) *ScheduleRepository {
	return &ScheduleRepository{client: client}
}

// List returns the full schedule snapshot.
func (r *ScheduleRepository) List(ctx context.Context) ([]models.Schedule, error) {
	return upstream.FetchList[models.Schedule](ctx, r.client, upstream.Request{Method: http.MethodGet, Path: "/schedules"}, "schedules")
}

// FindByID scans a fresh snapshot for the schedule; the store exposes no single-item read.
// It returns sql.ErrNoRows when absent so services treat it like any other repository miss.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	schedules, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range schedules {
		if schedules[i].ID.String() == id {
			return &schedules[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

// Create stores a new schedule and returns the record the upstream answered with.
func (r *ScheduleRepository) Create(ctx context.Context, payload models.SchedulePayload) (*models.Schedule, error) {
	raw, err := r.client.DoRaw(ctx, upstream.Request{Method: http.MethodPost, Path: "/schedules", Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeSchedule(raw, payload, "")
}

// Update replaces a schedule.
func (r *ScheduleRepository) Update(ctx context.Context, id string, payload models.SchedulePayload) (*models.Schedule, error) {
	raw, err := r.client.DoRaw(ctx, upstream.Request{Method: http.MethodPut, Path: "/schedules/" + url.PathEscape(id), Body: payload})
	if err != nil {
		return nil, err
	}
	return decodeSchedule(raw, payload, id)
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, upstream.Request{Method: http.MethodDelete, Path: "/schedules/" + url.PathEscape(id)}, nil)
}

// EmergencyCancel asks the store to cancel the schedule and refund its bookings.
func (r *ScheduleRepository) EmergencyCancel(ctx context.Context, id string, body models.EmergencyCancellation) (map[string]interface{}, error) {
	var out map[string]interface{}
	req := upstream.Request{Method: http.MethodPost, Path: "/schedules/" + url.PathEscape(id) + "/emergency-cancel", Body: body}
	if err := r.client.Do(ctx, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeSchedule reads the saved record. Backends that answer with an empty body or only a
// message get the submitted payload echoed back instead.
func decodeSchedule(raw []byte, payload models.SchedulePayload, id string) (*models.Schedule, error) {
	fallback := scheduleFromPayload(payload, id)
	obj := upstream.UnwrapObject(raw, "schedule")
	if len(obj) == 0 {
		return fallback, nil
	}
	var saved models.Schedule
	if err := json.Unmarshal(obj, &saved); err != nil || saved.BusNumber == "" {
		if saved.ID != "" {
			fallback.ID = saved.ID
		}
		return fallback, nil
	}
	if saved.ID == "" {
		saved.ID = models.EntityID(id)
	}
	return &saved, nil
}

func scheduleFromPayload(p models.SchedulePayload, id string) *models.Schedule {
	return &models.Schedule{
		ID:             models.EntityID(id),
		RouteID:        p.RouteID,
		RouteName:      p.RouteName,
		Origin:         p.Origin,
		Destination:    p.Destination,
		BusNumber:      p.BusNumber,
		BusCategory:    string(p.BusCategory),
		DriverName:     p.DriverName,
		DepartureDate:  p.DepartureDate,
		DepartureTime:  p.DepartureTime,
		ArrivalTime:    p.ArrivalTime,
		Fare:           models.Number(p.Fare),
		TotalSeats:     p.TotalSeats,
		BookedSeats:    p.BookedSeats,
		Status:         p.Status,
		DiscountReason: p.DiscountReason,
	}
}
