package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ScheduleStatus is the lifecycle state of a departure.
type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusBoarding   ScheduleStatus = "boarding"
	ScheduleStatusDeparted   ScheduleStatus = "departed"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusActive     ScheduleStatus = "active"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

var scheduleTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleStatusScheduled:  {ScheduleStatusBoarding},
	ScheduleStatusBoarding:   {ScheduleStatusDeparted},
	ScheduleStatusDeparted:   {ScheduleStatusInProgress, ScheduleStatusActive},
	ScheduleStatusInProgress: {ScheduleStatusCompleted},
	ScheduleStatusActive:     {ScheduleStatusCompleted},
}

// NormalizeScheduleStatus lower-cases the status; empty means scheduled.
func NormalizeScheduleStatus(raw string) ScheduleStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ScheduleStatusScheduled
	}
	if s == "canceled" {
		return ScheduleStatusCancelled
	}
	return ScheduleStatus(s)
}

// Known reports whether the status belongs to the lifecycle.
func (s ScheduleStatus) Known() bool {
	switch s {
	case ScheduleStatusScheduled, ScheduleStatusBoarding, ScheduleStatusDeparted,
		ScheduleStatusInProgress, ScheduleStatusActive, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ScheduleStatus) Terminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

// CanTransitionTo validates a lifecycle move. Staying in place is always allowed.
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == ScheduleStatusCancelled {
		return true
	}
	for _, allowed := range scheduleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Schedule is one planned departure as exposed by the upstream schedule store.
type Schedule struct {
	ID             EntityID       `json:"id"`
	RouteID        EntityID       `json:"route_id,omitempty"`
	RouteName      string         `json:"route_name"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	BusNumber      string         `json:"bus_number"`
	BusCategory    string         `json:"bus_category"`
	DriverName     string         `json:"driver_name"`
	DepartureDate  string         `json:"departure_date"`
	DepartureTime  string         `json:"departure_time"`
	ArrivalTime    string         `json:"arrival_time,omitempty"`
	Fare           Number         `json:"fare"`
	TotalSeats     int            `json:"total_seats"`
	BookedSeats    int            `json:"booked_seats"`
	Status         ScheduleStatus `json:"status"`
	DiscountReason string         `json:"discount_reason,omitempty"`
	OccupancyRate  float64        `json:"occupancy_rate"`
}

// Label describes the departure for operator-facing messages.
func (s Schedule) Label() string {
	route := strings.TrimSpace(s.RouteName)
	if route == "" {
		route = strings.TrimSpace(s.Origin) + " - " + strings.TrimSpace(s.Destination)
	}
	return route
}

// Occupancy returns booked/total seats as a percentage rounded to one decimal.
func (s Schedule) Occupancy() float64 {
	if s.TotalSeats <= 0 {
		return 0
	}
	return math.Round(float64(s.BookedSeats)/float64(s.TotalSeats)*1000) / 10
}

// CurrentStatus returns the normalised lifecycle status.
func (s Schedule) CurrentStatus() ScheduleStatus {
	return NormalizeScheduleStatus(string(s.Status))
}

// SchedulePayload is the body sent to the upstream on create and update.
type SchedulePayload struct {
	RouteID        EntityID       `json:"route_id"`
	RouteName      string         `json:"route_name"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	BusNumber      string         `json:"bus_number"`
	BusCategory    BusCategory    `json:"bus_category"`
	DriverName     string         `json:"driver_name"`
	DepartureDate  string         `json:"departure_date"`
	DepartureTime  string         `json:"departure_time"`
	ArrivalTime    string         `json:"arrival_time"`
	Fare           float64        `json:"fare"`
	TotalSeats     int            `json:"total_seats"`
	BookedSeats    int            `json:"booked_seats"`
	Status         ScheduleStatus `json:"status"`
	DiscountReason string         `json:"discount_reason,omitempty"`
}

// ScheduleFilter narrows a schedule listing. All comparisons happen on the fetched snapshot.
type ScheduleFilter struct {
	Date       string
	Status     string
	DriverName string
	BusNumber  string
	Page       int
	PageSize   int
}

// ScheduleSummary aggregates a schedule snapshot for dashboards.
type ScheduleSummary struct {
	Total            int                    `json:"total"`
	ByStatus         map[ScheduleStatus]int `json:"by_status"`
	TotalSeats       int                    `json:"total_seats"`
	BookedSeats      int                    `json:"booked_seats"`
	AverageOccupancy float64                `json:"average_occupancy"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

// ConflictKind names the resource that is double-booked.
type ConflictKind string

const (
	ConflictKindDriver ConflictKind = "driver"
	ConflictKindBus    ConflictKind = "bus"
)

// ScheduleConflict describes an existing schedule that clashes with a candidate.
type ScheduleConflict struct {
	Kind          ConflictKind `json:"kind"`
	Message       string       `json:"message"`
	ScheduleID    EntityID     `json:"schedule_id"`
	Route         string       `json:"route"`
	DepartureDate string       `json:"departure_date"`
	DepartureTime string       `json:"departure_time"`
	DriverName    string       `json:"driver_name,omitempty"`
	BusNumber     string       `json:"bus_number,omitempty"`
}

// ScheduleConflictError is returned when a candidate collides with existing schedules.
type ScheduleConflictError struct {
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil || len(e.Conflicts) == 0 {
		return "schedule conflict"
	}
	messages := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		messages = append(messages, c.Message)
	}
	return fmt.Sprintf("schedule conflict: %s", strings.Join(messages, "; "))
}
