package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/noah-isme/bus-console-api/internal/models"
	"github.com/noah-isme/bus-console-api/internal/upstream"
	appErrors "github.com/noah-isme/bus-console-api/pkg/errors"
)

// TariffRateRepository reads current rates and manages rate records on the upstream.
type TariffRateRepository struct {
	client *upstream.Client
	now    func() time.Time
}

// NewTariffRateRepository creates a tariff rate repository.
func NewTariffRateRepository(client *upstream.Client) *TariffRateRepository {
	return &TariffRateRepository{client: client, now: time.Now}
}

type currentRatesPayload struct {
	TariffRates   map[string]json.RawMessage `json:"tariff_rates"`
	MinimumFares  map[string]models.Number   `json:"minimum_fares"`
	UsingDefaults bool                       `json:"using_defaults"`
}

type rateEntry struct {
	RatePerKm   models.Number `json:"rate_per_km"`
	MinimumFare models.Number `json:"minimum_fare"`
}

// Current returns the rates the provider considers in force. Entries for unknown categories
// and non-positive rates are dropped so callers fall back to defaults for them.
func (r *TariffRateRepository) Current(ctx context.Context) (*models.TariffTable, error) {
	raw, err := r.client.DoRaw(ctx, upstream.Request{Method: http.MethodGet, Path: "/tariff-rates/current"})
	if err != nil {
		return nil, err
	}
	var payload currentRatesPayload
	if err := json.Unmarshal(upstream.UnwrapObject(raw, "current"), &payload); err != nil {
		return nil, appErrors.Wrap(err, "UPSTREAM_DECODE_ERROR", http.StatusBadGateway, "unexpected tariff rate response from server")
	}
	return buildTariffTable(payload, r.now().UTC()), nil
}

func buildTariffTable(payload currentRatesPayload, fetchedAt time.Time) *models.TariffTable {
	table := &models.TariffTable{
		Rates:         make(map[models.BusCategory]float64),
		MinimumFares:  make(map[models.BusCategory]float64),
		UsingDefaults: payload.UsingDefaults,
		FetchedAt:     fetchedAt,
	}
	for name, raw := range payload.TariffRates {
		category, ok := models.NormalizeBusCategory(name)
		if !ok {
			continue
		}
		rate, minimum := decodeRateEntry(raw)
		if rate > 0 {
			table.Rates[category] = rate
		}
		if minimum > 0 {
			table.MinimumFares[category] = minimum
		}
	}
	for name, minimum := range payload.MinimumFares {
		category, ok := models.NormalizeBusCategory(name)
		if !ok || minimum <= 0 {
			continue
		}
		table.MinimumFares[category] = minimum.Float64()
	}
	return table
}

// decodeRateEntry accepts either a bare number or {rate_per_km, minimum_fare}.
func decodeRateEntry(raw json.RawMessage) (float64, float64) {
	var n models.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.Float64(), 0
	}
	var entry rateEntry
	if err := json.Unmarshal(raw, &entry); err == nil {
		return entry.RatePerKm.Float64(), entry.MinimumFare.Float64()
	}
	return 0, 0
}

// List returns every rate record.
func (r *TariffRateRepository) List(ctx context.Context) ([]models.TariffRate, error) {
	return upstream.FetchList[models.TariffRate](ctx, r.client, upstream.Request{Method: http.MethodGet, Path: "/tariff-rates"}, "tariff_rates")
}

// Create stores a rate record.
func (r *TariffRateRepository) Create(ctx context.Context, rate models.TariffRate) (*models.TariffRate, error) {
	raw, err := r.client.DoRaw(ctx, upstream.Request{Method: http.MethodPost, Path: "/tariff-rates", Body: rate})
	if err != nil {
		return nil, err
	}
	return decodeTariffRate(raw, rate), nil
}

// Update replaces a rate record.
func (r *TariffRateRepository) Update(ctx context.Context, id string, rate models.TariffRate) (*models.TariffRate, error) {
	raw, err := r.client.DoRaw(ctx, upstream.Request{Method: http.MethodPut, Path: "/tariff-rates/" + url.PathEscape(id), Body: rate})
	if err != nil {
		return nil, err
	}
	if rate.ID == "" {
		rate.ID = models.EntityID(id)
	}
	return decodeTariffRate(raw, rate), nil
}

// Delete removes a rate record.
func (r *TariffRateRepository) Delete(ctx context.Context, id string) error {
	return r.client.Do(ctx, upstream.Request{Method: http.MethodDelete, Path: "/tariff-rates/" + url.PathEscape(id)}, nil)
}

func decodeTariffRate(raw []byte, submitted models.TariffRate) *models.TariffRate {
	var saved models.TariffRate
	if err := json.Unmarshal(upstream.UnwrapObject(raw, "tariff_rate"), &saved); err != nil || saved.BusCategory == "" {
		if saved.ID != "" {
			submitted.ID = saved.ID
		}
		return &submitted
	}
	return &saved
}
