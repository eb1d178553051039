package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/bus-console-api/internal/models"
)

type catalogRepository interface {
	ListRoutes(ctx context.Context) ([]models.Route, error)
	ListBuses(ctx context.Context) ([]models.Bus, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
}

// CatalogService serves the reference data the schedule forms are built from.
type CatalogService struct {
	repo   catalogRepository
	logger *zap.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(repo catalogRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, logger: logger}
}

// Routes lists routes sorted by display name.
func (s *CatalogService) Routes(ctx context.Context) ([]models.Route, error) {
	routes, err := s.repo.ListRoutes(ctx)
	if err != nil {
		return nil, passThrough(err, "routes not found", "failed to list routes")
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return strings.ToLower(routes[i].DisplayName()) < strings.ToLower(routes[j].DisplayName())
	})
	return routes, nil
}

// Buses lists the fleet; assignableOnly keeps buses that may take new schedules.
func (s *CatalogService) Buses(ctx context.Context, assignableOnly bool) ([]models.Bus, error) {
	buses, err := s.repo.ListBuses(ctx)
	if err != nil {
		return nil, passThrough(err, "buses not found", "failed to list buses")
	}
	result := make([]models.Bus, 0, len(buses))
	for _, bus := range buses {
		if assignableOnly && !bus.Assignable() {
			continue
		}
		bus.Category = string(bus.NormalizedCategory())
		result = append(result, bus)
	}
	return result, nil
}

// Drivers lists the driver roster.
func (s *CatalogService) Drivers(ctx context.Context) ([]models.Driver, error) {
	drivers, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return nil, passThrough(err, "drivers not found", "failed to list drivers")
	}
	return drivers, nil
}

func findRoute(routes []models.Route, id models.EntityID) (models.Route, bool) {
	for _, r := range routes {
		if r.ID == id {
			return r, true
		}
	}
	return models.Route{}, false
}

func findBus(buses []models.Bus, number string) (models.Bus, bool) {
	key := normalizeName(number)
	for _, b := range buses {
		if normalizeName(b.BusNumber) == key {
			return b, true
		}
	}
	return models.Bus{}, false
}
