package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/models"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context) ([]models.Schedule, error)
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	Create(ctx context.Context, payload models.SchedulePayload) (*models.Schedule, error)
	Update(ctx context.Context, id string, payload models.SchedulePayload) (*models.Schedule, error)
	Delete(ctx context.Context, id string) error
	EmergencyCancel(ctx context.Context, id string, body models.EmergencyCancellation) (map[string]interface{}, error)
}

type fareSource interface {
	Calculator(ctx context.Context) *FareCalculator
}

type schedulePublisher interface {
	Publish(ctx context.Context, event models.ScheduleEvent)
}

// ScheduleRequest is the operator payload for creating or editing a schedule.
type ScheduleRequest struct {
	RouteID        models.EntityID `json:"route_id" validate:"required"`
	BusNumber      string          `json:"bus_number" validate:"required,max=50"`
	DriverName     string          `json:"driver_name" validate:"required,max=120"`
	DepartureDate  string          `json:"departure_date" validate:"required"`
	DepartureTime  string          `json:"departure_time" validate:"required"`
	Fare           float64         `json:"fare" validate:"gt=0"`
	TotalSeats     int             `json:"total_seats" validate:"gte=0"`
	BookedSeats    int             `json:"booked_seats" validate:"gte=0"`
	Status         string          `json:"status"`
	DiscountReason string          `json:"discount_reason" validate:"max=500"`
}

// QuoteRequest asks for the fare ceiling of a route and bus.
type QuoteRequest struct {
	RouteID       models.EntityID `json:"route_id" validate:"required"`
	BusNumber     string          `json:"bus_number"`
	BusCategory   string          `json:"bus_category"`
	DepartureTime string          `json:"departure_time"`
	Fare          *float64        `json:"fare"`
}

// ConflictCheckRequest is a candidate schedule checked without saving it.
type ConflictCheckRequest struct {
	ID            models.EntityID `json:"id"`
	DriverName    string          `json:"driver_name"`
	BusNumber     string          `json:"bus_number"`
	DepartureDate string          `json:"departure_date" validate:"required"`
	Status        string          `json:"status"`
}

// EmergencyCancelRequest carries the operator's reason and refund policy.
type EmergencyCancelRequest struct {
	Reason           string   `json:"reason"`
	RefundPercentage *float64 `json:"refund_percentage"`
}

// ScheduleService coordinates schedule planning against the upstream store.
type ScheduleService struct {
	repo      scheduleRepository
	catalog   catalogRepository
	tariffs   fareSource
	events    schedulePublisher
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService instantiates ScheduleService. events and metrics may be nil.
func NewScheduleService(repo scheduleRepository, catalog catalogRepository, tariffs fareSource, events schedulePublisher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		catalog:   catalog,
		tariffs:   tariffs,
		events:    events,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns schedules matching filter, ordered by departure, with occupancy filled in.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, nil, passThrough(err, "schedules not found", "failed to list schedules")
	}

	var day models.CalendarDate
	if strings.TrimSpace(filter.Date) != "" {
		if day, err = models.ParseCalendarDate(filter.Date); err != nil {
			return nil, nil, validationError("date filter must be YYYY-MM-DD", nil)
		}
	}
	status := ""
	if strings.TrimSpace(filter.Status) != "" {
		status = string(models.NormalizeScheduleStatus(filter.Status))
	}
	driver := normalizeName(filter.DriverName)
	bus := normalizeName(filter.BusNumber)

	matched := make([]models.Schedule, 0, len(all))
	for _, schedule := range all {
		if !day.IsZero() {
			d, err := models.ParseCalendarDate(schedule.DepartureDate)
			if err != nil || d != day {
				continue
			}
		}
		if status != "" && string(schedule.CurrentStatus()) != status {
			continue
		}
		if driver != "" && !strings.Contains(normalizeName(schedule.DriverName), driver) {
			continue
		}
		if bus != "" && !strings.Contains(normalizeName(schedule.BusNumber), bus) {
			continue
		}
		schedule.Status = schedule.CurrentStatus()
		schedule.OccupancyRate = schedule.Occupancy()
		matched = append(matched, schedule)
	}
	sortSchedules(matched)

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = len(matched)
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}
	start := (page - 1) * size
	if start >= len(matched) {
		return []models.Schedule{}, pagination, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], pagination, nil
}

// Summary aggregates the whole snapshot, optionally restricted to one date.
func (s *ScheduleService) Summary(ctx context.Context, date string) (*models.ScheduleSummary, error) {
	schedules, _, err := s.List(ctx, models.ScheduleFilter{Date: date})
	if err != nil {
		return nil, err
	}
	summary := &models.ScheduleSummary{
		Total:       len(schedules),
		ByStatus:    make(map[models.ScheduleStatus]int),
		GeneratedAt: s.now().UTC(),
	}
	var occupancySum float64
	var counted int
	for _, schedule := range schedules {
		summary.ByStatus[schedule.Status]++
		if schedule.Status == models.ScheduleStatusCancelled {
			continue
		}
		summary.TotalSeats += schedule.TotalSeats
		summary.BookedSeats += schedule.BookedSeats
		if schedule.TotalSeats > 0 {
			occupancySum += schedule.OccupancyRate
			counted++
		}
	}
	if counted > 0 {
		summary.AverageOccupancy = math.Round(occupancySum/float64(counted)*10) / 10
	}
	return summary, nil
}

// Quote computes the fare ceiling, travel time and arrival estimate for a route and bus.
func (s *ScheduleService) Quote(ctx context.Context, req QuoteRequest) (*models.FareQuote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quote payload")
	}
	routes, err := s.catalog.ListRoutes(ctx)
	if err != nil {
		return nil, passThrough(err, "routes not found", "failed to load routes")
	}
	route, ok := findRoute(routes, req.RouteID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "route not found")
	}

	category := req.BusCategory
	busNumber := strings.TrimSpace(req.BusNumber)
	if busNumber != "" {
		buses, err := s.catalog.ListBuses(ctx)
		if err != nil {
			return nil, passThrough(err, "buses not found", "failed to load buses")
		}
		bus, ok := findBus(buses, busNumber)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bus not found")
		}
		category = bus.Category
		busNumber = bus.BusNumber
	}

	calc := s.tariffs.Calculator(ctx)
	quote := buildQuote(calc, route, busNumber, category, req.DepartureTime)
	if req.Fare != nil {
		fare := *req.Fare
		validation := calc.ValidateFare(fare, quote.MaxTariff)
		quote.Fare = &fare
		quote.Validation = &validation
	}
	return quote, nil
}

func buildQuote(calc *FareCalculator, route models.Route, busNumber, category, departure string) *models.FareQuote {
	normalized, _ := models.NormalizeBusCategory(category)
	distance := route.DistanceKm.Float64()
	return &models.FareQuote{
		RouteID:       route.ID,
		RouteName:     route.DisplayName(),
		DistanceKm:    distance,
		BusNumber:     busNumber,
		BusCategory:   normalized,
		RatePerKm:     calc.RateFor(category),
		MinimumFare:   calc.MinimumFare(category),
		MaxTariff:     calc.MaxTariff(distance, category),
		TravelHours:   math.Round(TravelHours(distance)*100) / 100,
		ArrivalTime:   EstimateArrival(departure, distance),
		UsingDefaults: calc.UsingDefaults(),
	}
}

// CheckConflicts reports clashes for a candidate without saving anything.
func (s *ScheduleService) CheckConflicts(ctx context.Context, req ConflictCheckRequest) ([]models.ScheduleConflict, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	if _, err := models.ParseCalendarDate(req.DepartureDate); err != nil {
		return nil, validationError("departure_date must be YYYY-MM-DD or an ISO timestamp", nil)
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, passThrough(err, "schedules not found", "failed to load schedules")
	}
	return DetectConflicts(existing, ConflictCandidate{
		ID:            req.ID,
		DriverName:    req.DriverName,
		BusNumber:     req.BusNumber,
		DepartureDate: req.DepartureDate,
		Status:        models.ScheduleStatus(req.Status),
	}), nil
}

// Create validates fare, bus and conflicts locally, then stores the schedule upstream.
func (s *ScheduleService) Create(ctx context.Context, req ScheduleRequest) (*models.Schedule, error) {
	status := models.NormalizeScheduleStatus(req.Status)
	if !status.Known() || status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("a new schedule cannot start as %s", status))
	}
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, passThrough(err, "schedules not found", "failed to load schedules")
	}
	payload, err := s.prepare(ctx, req, status, nil, existing)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Create(ctx, *payload)
	if err != nil {
		return nil, passThrough(err, "schedule not found", "failed to create schedule")
	}
	s.decorate(saved)
	s.logger.Info("schedule created",
		zap.String("schedule_id", saved.ID.String()),
		zap.String("bus_number", payload.BusNumber),
		zap.String("departure_date", payload.DepartureDate))
	s.publish(ctx, models.ScheduleEvent{Type: models.ScheduleEventCreated, ScheduleID: saved.ID, Schedule: payload})
	return saved, nil
}

// Update revalidates the edited schedule, excluding its own record from conflict checks.
func (s *ScheduleService) Update(ctx context.Context, id string, req ScheduleRequest) (*models.Schedule, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return nil, passThrough(err, "schedules not found", "failed to load schedules")
	}
	current, ok := findSchedule(existing, id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}

	from := current.CurrentStatus()
	to := from
	if strings.TrimSpace(req.Status) != "" {
		to = models.NormalizeScheduleStatus(req.Status)
	}
	if from.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s schedules cannot be edited", from))
	}
	if !to.Known() || !from.CanTransitionTo(to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move schedule from %s to %s", from, to))
	}
	if to == models.ScheduleStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "use emergency cancellation to cancel a schedule")
	}

	payload, err := s.prepare(ctx, req, to, &current, existing)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.Update(ctx, id, *payload)
	if err != nil {
		return nil, passThrough(err, "schedule not found", "failed to update schedule")
	}
	if saved.ID == "" {
		saved.ID = current.ID
	}
	s.decorate(saved)
	s.publish(ctx, models.ScheduleEvent{Type: models.ScheduleEventUpdated, ScheduleID: saved.ID, Schedule: payload})
	return saved, nil
}

// Delete removes a schedule.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return passThrough(err, "schedule not found", "failed to delete schedule")
	}
	s.publish(ctx, models.ScheduleEvent{Type: models.ScheduleEventDeleted, ScheduleID: models.EntityID(id)})
	return nil
}

// PreviewCancellation computes the refund an emergency cancellation would issue.
func (s *ScheduleService) PreviewCancellation(ctx context.Context, id string, req EmergencyCancelRequest) (*models.CancellationPreview, error) {
	pct, err := validateCancellation(req)
	if err != nil {
		return nil, err
	}
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, passThrough(err, "schedule not found", "failed to load schedule")
	}
	if status := schedule.CurrentStatus(); status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("%s schedules cannot be cancelled", status))
	}
	preview := RefundPreview(*schedule, pct)
	return &preview, nil
}

// EmergencyCancel sends the cancellation exactly once; failures are reported, not retried.
func (s *ScheduleService) EmergencyCancel(ctx context.Context, id string, req EmergencyCancelRequest) (*models.CancellationResult, error) {
	preview, err := s.PreviewCancellation(ctx, id, req)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	upstreamResult, err := s.repo.EmergencyCancel(ctx, id, models.EmergencyCancellation{
		Reason:           reason,
		RefundPercentage: preview.RefundPercentage,
	})
	if err != nil {
		return nil, passThrough(err, "schedule not found", "failed to cancel schedule")
	}
	s.logger.Warn("schedule cancelled",
		zap.String("schedule_id", id),
		zap.String("reason", reason),
		zap.Float64("refund_percentage", preview.RefundPercentage),
		zap.Float64("total_refund", preview.TotalRefund))
	s.publish(ctx, models.ScheduleEvent{
		Type:       models.ScheduleEventCancelled,
		ScheduleID: preview.ScheduleID,
		Refund:     preview,
		Reason:     reason,
	})
	return &models.CancellationResult{Preview: *preview, Upstream: upstreamResult}, nil
}

// RefundPreview is bookedSeats * fare * pct / 100.
func RefundPreview(schedule models.Schedule, pct float64) models.CancellationPreview {
	fare := schedule.Fare.Float64()
	return models.CancellationPreview{
		ScheduleID:       schedule.ID,
		Route:            schedule.Label(),
		DepartureDate:    schedule.DepartureDate,
		DepartureTime:    schedule.DepartureTime,
		BookedSeats:      schedule.BookedSeats,
		Fare:             fare,
		RefundPercentage: pct,
		TotalRefund:      math.Round(float64(schedule.BookedSeats)*fare*pct) / 100,
	}
}

func validateCancellation(req EmergencyCancelRequest) (float64, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return 0, validationError("a cancellation reason is required", nil)
	}
	if req.RefundPercentage == nil {
		return 0, validationError("refund_percentage is required", nil)
	}
	pct := *req.RefundPercentage
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return 0, validationError("refund_percentage must be between 0 and 100", map[string]interface{}{"refund_percentage": pct})
	}
	return pct, nil
}

// prepare runs every local check and builds the upstream payload. Nothing is sent on failure.
func (s *ScheduleService) prepare(ctx context.Context, req ScheduleRequest, status models.ScheduleStatus, current *models.Schedule, existing []models.Schedule) (*models.SchedulePayload, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if _, err := models.ParseCalendarDate(req.DepartureDate); err != nil {
		return nil, validationError("departure_date must be YYYY-MM-DD or an ISO timestamp", nil)
	}
	if _, ok := minutesSinceMidnight(req.DepartureTime); !ok {
		return nil, validationError("departure_time must be HH:MM", nil)
	}

	routes, err := s.catalog.ListRoutes(ctx)
	if err != nil {
		return nil, passThrough(err, "routes not found", "failed to load routes")
	}
	route, ok := findRoute(routes, req.RouteID)
	if !ok {
		return nil, validationError("selected route does not exist", map[string]interface{}{"route_id": req.RouteID})
	}
	buses, err := s.catalog.ListBuses(ctx)
	if err != nil {
		return nil, passThrough(err, "buses not found", "failed to load buses")
	}
	bus, ok := findBus(buses, req.BusNumber)
	if !ok {
		return nil, validationError("selected bus does not exist", map[string]interface{}{"bus_number": req.BusNumber})
	}
	busChanged := current == nil || normalizeName(current.BusNumber) != normalizeName(bus.BusNumber)
	if busChanged && !bus.Assignable() {
		return nil, validationError(fmt.Sprintf("bus %s is %s and cannot be scheduled", bus.BusNumber, bus.Status), nil)
	}

	totalSeats := req.TotalSeats
	if totalSeats == 0 {
		totalSeats = bus.Capacity
	}
	// Bookings on an existing schedule are owned upstream; an edit never rewrites them.
	bookedSeats := req.BookedSeats
	if current != nil {
		bookedSeats = current.BookedSeats
	}
	if bookedSeats > totalSeats && totalSeats > 0 {
		return nil, validationError("booked_seats cannot exceed total_seats", map[string]interface{}{
			"booked_seats": bookedSeats,
			"total_seats":  totalSeats,
		})
	}

	calc := s.tariffs.Calculator(ctx)
	quote := buildQuote(calc, route, bus.BusNumber, bus.Category, req.DepartureTime)
	validation := calc.ValidateFare(req.Fare, quote.MaxTariff)
	reason := strings.TrimSpace(req.DiscountReason)
	if !validation.Valid {
		s.metrics.RecordFareRejection("above_max_tariff")
		return nil, appErrors.WithDetails(appErrors.ErrFareAboveTariff, validation.Message, quote)
	}
	if validation.RequiresReason && reason == "" {
		s.metrics.RecordFareRejection("missing_discount_reason")
		return nil, appErrors.WithDetails(appErrors.ErrDiscountReason, validation.Message, validation)
	}

	candidate := ConflictCandidate{
		DriverName:    req.DriverName,
		BusNumber:     bus.BusNumber,
		DepartureDate: req.DepartureDate,
		Status:        status,
	}
	if current != nil {
		candidate.ID = current.ID
	}
	if conflicts := DetectConflicts(existing, candidate); len(conflicts) > 0 {
		s.metrics.RecordConflicts(conflicts)
		conflictErr := &models.ScheduleConflictError{Conflicts: conflicts}
		return nil, appErrors.WithDetails(appErrors.ErrScheduleConflict, conflictErr.Error(), conflictErr)
	}

	category, _ := models.NormalizeBusCategory(bus.Category)
	return &models.SchedulePayload{
		RouteID:        route.ID,
		RouteName:      route.DisplayName(),
		Origin:         route.Origin,
		Destination:    route.Destination,
		BusNumber:      bus.BusNumber,
		BusCategory:    category,
		DriverName:     strings.TrimSpace(req.DriverName),
		DepartureDate:  strings.TrimSpace(req.DepartureDate),
		DepartureTime:  strings.TrimSpace(req.DepartureTime),
		ArrivalTime:    quote.ArrivalTime,
		Fare:           req.Fare,
		TotalSeats:     totalSeats,
		BookedSeats:    bookedSeats,
		Status:         status,
		DiscountReason: reason,
	}, nil
}

func (s *ScheduleService) decorate(schedule *models.Schedule) {
	schedule.Status = schedule.CurrentStatus()
	schedule.OccupancyRate = schedule.Occupancy()
}

func (s *ScheduleService) publish(ctx context.Context, event models.ScheduleEvent) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, event)
}

func findSchedule(schedules []models.Schedule, id string) (models.Schedule, bool) {
	for _, schedule := range schedules {
		if schedule.ID.String() == id {
			return schedule, true
		}
	}
	return models.Schedule{}, false
}

func sortSchedules(schedules []models.Schedule) {
	sort.SliceStable(schedules, func(i, j int) bool {
		di, _ := models.ParseCalendarDate(schedules[i].DepartureDate)
		dj, _ := models.ParseCalendarDate(schedules[j].DepartureDate)
		if di != dj {
			return di.Before(dj)
		}
		return schedules[i].DepartureTime < schedules[j].DepartureTime
	})
}
