package repository

import (
	"context"
	"net/http"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/upstream"
)

// CatalogRepository reads the route, fleet and driver catalogs from the upstream.
type CatalogRepository struct {
	client *upstream.Client
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(client *upstream.Client) *CatalogRepository {
	return &CatalogRepository{client: client}
}

// ListRoutes returns every route known to the route catalog.
func (r *CatalogRepository) ListRoutes(ctx context.Context) ([]models.Route, error) {
	return upstream.FetchList[models.Route](ctx, r.client, upstream.Request{Method: http.MethodGet, Path: "/routes"}, "routes")
}

// ListBuses returns the whole fleet; eligibility filtering happens in the service layer.
func (r *CatalogRepository) ListBuses(ctx context.Context) ([]models.Bus, error) {
	return upstream.FetchList[models.Bus](ctx, r.client, upstream.Request{Method: http.MethodGet, Path: "/buses"}, "buses")
}

// ListDrivers returns the driver roster. The roster only feeds form suggestions, so a
// superseded or abandoned call yields an empty roster instead of the cancelled outcome.
func (r *CatalogRepository) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return upstream.FetchListOr(ctx, r.client, upstream.Request{Method: http.MethodGet, Path: "/drivers"}, "drivers", []models.Driver{})
}
