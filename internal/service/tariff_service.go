package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/upstream"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

const tariffCachePrefix = "console:tariff:"

type tariffRateRepository interface {
	Current(ctx context.Context) (*models.TariffTable, error)
	List(ctx context.Context) ([]models.TariffRate, error)
	Create(ctx context.Context, rate models.TariffRate) (*models.TariffRate, error)
	Update(ctx context.Context, id string, rate models.TariffRate) (*models.TariffRate, error)
	Delete(ctx context.Context, id string) error
}

// TariffSettings carries the configurable fare policy.
type TariffSettings struct {
	DefaultMinimumFare      float64
	DiscountReasonThreshold float64
	CacheTTL                time.Duration
}

// TariffRateRequest is the admin payload for a rate record.
type TariffRateRequest struct {
	BusCategory    string  `json:"bus_category" validate:"required"`
	RatePerKm      float64 `json:"rate_per_km" validate:"gt=0"`
	MinimumFare    float64 `json:"minimum_fare" validate:"gte=0"`
	EffectiveFrom  string  `json:"effective_from"`
	EffectiveUntil string  `json:"effective_until"`
	IsActive       *bool   `json:"is_active"`
	Description    string  `json:"description" validate:"max=500"`
}

// TariffService exposes the rates in force and manages rate records.
type TariffService struct {
	repo      tariffRateRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	settings  TariffSettings
}

// NewTariffService creates a tariff service.
func NewTariffService(repo tariffRateRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, settings TariffSettings) *TariffService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.DefaultMinimumFare < 0 {
		settings.DefaultMinimumFare = DefaultMinimumFare
	}
	if settings.DiscountReasonThreshold <= 0 || settings.DiscountReasonThreshold > 100 {
		settings.DiscountReasonThreshold = DefaultDiscountReasonThreshold
	}
	return &TariffService{repo: repo, cache: cache, validator: validate, logger: logger, settings: settings}
}

func tariffCacheKey(ctx context.Context) string {
	role := "default"
	if r, ok := upstream.RoleFrom(ctx); ok {
		role = string(r)
	}
	return tariffCachePrefix + "current:" + role
}

// Current returns the provider's rate table, served from cache when possible.
func (s *TariffService) Current(ctx context.Context) (*models.TariffTable, error) {
	key := tariffCacheKey(ctx)
	var cached models.TariffTable
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}
	table, err := s.repo.Current(ctx)
	if err != nil {
		return nil, passThrough(err, "tariff rates not found", "failed to load tariff rates")
	}
	s.cache.Set(ctx, key, table, s.settings.CacheTTL)
	return table, nil
}

// Calculator never fails: when the provider is unreachable the default table is used.
func (s *TariffService) Calculator(ctx context.Context) *FareCalculator {
	table, err := s.Current(ctx)
	if err != nil {
		if !appErrors.IsCancelled(err) {
			s.logger.Warn("tariff provider unavailable, using default rates", zap.Error(err))
		}
		table = nil
	}
	return NewFareCalculator(table, s.settings.DefaultMinimumFare, s.settings.DiscountReasonThreshold)
}

// EffectiveRates reports the rate and minimum fare applied to every category.
func (s *TariffService) EffectiveRates(ctx context.Context) ([]models.TariffRate, bool) {
	calc := s.Calculator(ctx)
	rates := make([]models.TariffRate, 0, len(models.BusCategories))
	for _, category := range models.BusCategories {
		rates = append(rates, models.TariffRate{
			BusCategory: string(category),
			RatePerKm:   models.Number(calc.RateFor(string(category))),
			MinimumFare: models.Number(calc.MinimumFare(string(category))),
			IsActive:    true,
		})
	}
	return rates, calc.UsingDefaults()
}

// List returns every rate record.
func (s *TariffService) List(ctx context.Context) ([]models.TariffRate, error) {
	rates, err := s.repo.List(ctx)
	if err != nil {
		return nil, passThrough(err, "tariff rates not found", "failed to list tariff rates")
	}
	return rates, nil
}

// Create validates and stores a rate record.
func (s *TariffService) Create(ctx context.Context, req TariffRateRequest) (*models.TariffRate, error) {
	rate, err := s.buildRate(req)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.Create(ctx, rate)
	if err != nil {
		return nil, passThrough(err, "tariff rate not found", "failed to create tariff rate")
	}
	s.invalidate(ctx)
	return saved, nil
}

// Update validates and replaces a rate record.
func (s *TariffService) Update(ctx context.Context, id string, req TariffRateRequest) (*models.TariffRate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tariff rate id is required")
	}
	rate, err := s.buildRate(req)
	if err != nil {
		return nil, err
	}
	rate.ID = models.EntityID(id)
	saved, err := s.repo.Update(ctx, id, rate)
	if err != nil {
		return nil, passThrough(err, "tariff rate not found", "failed to update tariff rate")
	}
	s.invalidate(ctx)
	return saved, nil
}

// Delete removes a rate record.
func (s *TariffService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return passThrough(err, "tariff rate not found", "failed to delete tariff rate")
	}
	s.invalidate(ctx)
	return nil
}

func (s *TariffService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, tariffCachePrefix+"*")
}

func (s *TariffService) buildRate(req TariffRateRequest) (models.TariffRate, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.TariffRate{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tariff rate payload")
	}
	category, ok := models.NormalizeBusCategory(req.BusCategory)
	if !ok {
		return models.TariffRate{}, validationError(fmt.Sprintf("unknown bus category %q", req.BusCategory),
			map[string]interface{}{"allowed": models.BusCategories})
	}
	from, until := strings.TrimSpace(req.EffectiveFrom), strings.TrimSpace(req.EffectiveUntil)
	var fromDate, untilDate models.CalendarDate
	var err error
	if from != "" {
		if fromDate, err = models.ParseCalendarDate(from); err != nil {
			return models.TariffRate{}, validationError("effective_from must be a date (YYYY-MM-DD)", nil)
		}
	}
	if until != "" {
		if untilDate, err = models.ParseCalendarDate(until); err != nil {
			return models.TariffRate{}, validationError("effective_until must be a date (YYYY-MM-DD)", nil)
		}
	}
	if !fromDate.IsZero() && !untilDate.IsZero() && !fromDate.Before(untilDate) {
		return models.TariffRate{}, validationError("effective_until must be after effective_from", nil)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return models.TariffRate{
		BusCategory:    string(category),
		RatePerKm:      models.Number(req.RatePerKm),
		MinimumFare:    models.Number(req.MinimumFare),
		EffectiveFrom:  from,
		EffectiveUntil: until,
		IsActive:       active,
		Description:    strings.TrimSpace(req.Description),
	}, nil
}
