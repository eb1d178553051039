package models

import "time"

// TariffRate is an admin-managed per-kilometre rate record for a bus category.
type TariffRate struct {
	ID             EntityID `json:"id,omitempty"`
	BusCategory    string   `json:"bus_category"`
	RatePerKm      Number   `json:"rate_per_km"`
	MinimumFare    Number   `json:"minimum_fare"`
	EffectiveFrom  string   `json:"effective_from,omitempty"`
	EffectiveUntil string   `json:"effective_until,omitempty"`
	IsActive       bool     `json:"is_active"`
	Description    string   `json:"description,omitempty"`
}

// TariffTable is the provider's view of the rates in force, keyed by normalised category.
type TariffTable struct {
	Rates         map[BusCategory]float64 `json:"tariff_rates"`
	MinimumFares  map[BusCategory]float64 `json:"minimum_fares,omitempty"`
	UsingDefaults bool                    `json:"using_defaults"`
	FetchedAt     time.Time               `json:"fetched_at"`
}

// FareQuote is the fare ceiling computed for a route and bus category.
type FareQuote struct {
	RouteID       EntityID    `json:"route_id"`
	RouteName     string      `json:"route_name"`
	DistanceKm    float64     `json:"distance_km"`
	BusNumber     string      `json:"bus_number,omitempty"`
	BusCategory   BusCategory `json:"bus_category"`
	RatePerKm     float64     `json:"rate_per_km"`
	MinimumFare   float64     `json:"minimum_fare"`
	MaxTariff     float64     `json:"max_tariff"`
	TravelHours   float64     `json:"travel_hours"`
	ArrivalTime   string      `json:"arrival_time,omitempty"`
	UsingDefaults bool        `json:"using_defaults"`

	Fare       *float64        `json:"fare,omitempty"`
	Validation *FareValidation `json:"validation,omitempty"`
}

// FareValidation is the outcome of checking an operator-entered fare against the ceiling.
type FareValidation struct {
	Valid           bool    `json:"valid"`
	RequiresReason  bool    `json:"requires_reason"`
	DiscountPercent float64 `json:"discount_percent"`
	Message         string  `json:"message,omitempty"`
}
