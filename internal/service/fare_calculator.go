package service

import (
	"fmt"
	"math"
	"strconv"

	"github.com/noah-isme/bus-console-api/internal/models"
)

const (
	// DefaultMinimumFare applies when the provider supplies no minimum for a category.
	DefaultMinimumFare = 50.0
	// DefaultDiscountReasonThreshold is the discount percentage above which a reason is mandatory.
	DefaultDiscountReasonThreshold = 20.0
)

// DefaultRatesPerKm is used for any category the tariff provider has no rate for.
var DefaultRatesPerKm = map[models.BusCategory]float64{
	models.BusCategoryStandard: 2.5,
	models.BusCategoryLuxury:   3.5,
	models.BusCategoryPremium:  4.0,
	models.BusCategoryVIP:      4.5,
	models.BusCategorySleeper:  5.0,
}

// FareCalculator derives fare ceilings from one snapshot of the tariff table.
type FareCalculator struct {
	rates           map[models.BusCategory]float64
	minimumFares    map[models.BusCategory]float64
	defaultMinimum  float64
	reasonThreshold float64
	usingDefaults   bool
}

// NewFareCalculator builds a calculator. A nil table means every lookup uses the defaults.
func NewFareCalculator(table *models.TariffTable, defaultMinimum, reasonThreshold float64) *FareCalculator {
	if defaultMinimum < 0 {
		defaultMinimum = DefaultMinimumFare
	}
	if reasonThreshold <= 0 || reasonThreshold > 100 {
		reasonThreshold = DefaultDiscountReasonThreshold
	}
	calc := &FareCalculator{
		rates:           make(map[models.BusCategory]float64, len(models.BusCategories)),
		minimumFares:    make(map[models.BusCategory]float64),
		defaultMinimum:  defaultMinimum,
		reasonThreshold: reasonThreshold,
		usingDefaults:   true,
	}
	for category, rate := range DefaultRatesPerKm {
		calc.rates[category] = rate
	}
	if table == nil {
		return calc
	}
	calc.usingDefaults = table.UsingDefaults || len(table.Rates) == 0
	for category, rate := range table.Rates {
		if rate > 0 {
			calc.rates[category] = rate
		}
	}
	for category, minimum := range table.MinimumFares {
		if minimum > 0 {
			calc.minimumFares[category] = minimum
		}
	}
	return calc
}

// UsingDefaults reports whether the provider supplied no rates of its own.
func (c *FareCalculator) UsingDefaults() bool {
	return c.usingDefaults
}

// RateFor returns the per-kilometre rate for a free-form category. Unknown categories
// are priced as Standard. The result is always positive.
func (c *FareCalculator) RateFor(category string) float64 {
	normalized, _ := models.NormalizeBusCategory(category)
	if rate, ok := c.rates[normalized]; ok && rate > 0 {
		return rate
	}
	return DefaultRatesPerKm[models.BusCategoryStandard]
}

// MinimumFare returns the floor for the category.
func (c *FareCalculator) MinimumFare(category string) float64 {
	normalized, _ := models.NormalizeBusCategory(category)
	if minimum, ok := c.minimumFares[normalized]; ok {
		return minimum
	}
	return c.defaultMinimum
}

// MaxTariff is max(round(distance * rate), minimum fare). Non-positive distances yield the minimum.
func (c *FareCalculator) MaxTariff(distanceKm float64, category string) float64 {
	minimum := c.MinimumFare(category)
	if distanceKm <= 0 || math.IsNaN(distanceKm) {
		return minimum
	}
	return math.Max(math.Round(distanceKm*c.RateFor(category)), minimum)
}

// ValidateFare checks an operator fare against the ceiling.
func (c *FareCalculator) ValidateFare(fare, maxTariff float64) models.FareValidation {
	return validateFare(fare, maxTariff, c.reasonThreshold)
}

func validateFare(fare, maxTariff, threshold float64) models.FareValidation {
	if maxTariff <= 0 {
		return models.FareValidation{Valid: true}
	}
	if fare > maxTariff {
		return models.FareValidation{
			Valid:   false,
			Message: fmt.Sprintf("fare exceeds the maximum tariff of %s", formatAmount(maxTariff)),
		}
	}
	discount := (maxTariff - fare) / maxTariff * 100
	result := models.FareValidation{
		Valid:           true,
		DiscountPercent: math.Round(discount*100) / 100,
	}
	if discount > threshold {
		result.RequiresReason = true
		result.Message = fmt.Sprintf("discount of %.1f%% exceeds %s%%, a discount reason is required",
			discount, formatAmount(threshold))
	}
	return result
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
