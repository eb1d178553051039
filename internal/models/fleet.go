package models

import "strings"

// Route is a catalog entry owned by the upstream route service.
type Route struct {
	ID          EntityID `json:"id"`
	Name        string   `json:"name"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	DistanceKm  Number   `json:"distance_km"`
	Stops       []string `json:"stops,omitempty"`
}

// DisplayName falls back to "Origin - Destination" for unnamed routes.
func (r Route) DisplayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(r.Origin) + " - " + strings.TrimSpace(r.Destination)
}

// BusCategory is the closed set of fleet classes that carry a tariff.
type BusCategory string

const (
	BusCategoryStandard BusCategory = "Standard"
	BusCategoryLuxury   BusCategory = "Luxury"
	BusCategoryPremium  BusCategory = "Premium"
	BusCategoryVIP      BusCategory = "VIP"
	BusCategorySleeper  BusCategory = "Sleeper"
)

// BusCategories lists every supported category.
var BusCategories = []BusCategory{
	BusCategoryStandard,
	BusCategoryLuxury,
	BusCategoryPremium,
	BusCategoryVIP,
	BusCategorySleeper,
}

// NormalizeBusCategory maps free-form input onto the closed set.
// Unknown values map to Standard and report ok=false.
func NormalizeBusCategory(raw string) (BusCategory, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, category := range BusCategories {
		if strings.ToLower(string(category)) == key {
			return category, true
		}
	}
	return BusCategoryStandard, false
}

// BusStatus is the operational state of a bus.
type BusStatus string

const (
	BusStatusActive      BusStatus = "active"
	BusStatusMaintenance BusStatus = "maintenance"
	BusStatusInactive    BusStatus = "inactive"
)

// Bus is a fleet catalog entry.
type Bus struct {
	ID        EntityID  `json:"id"`
	BusNumber string    `json:"bus_number"`
	Category  string    `json:"category"`
	Capacity  int       `json:"capacity"`
	Status    BusStatus `json:"status,omitempty"`
}

// Assignable reports whether the bus may receive new schedules. An unset status counts as active.
func (b Bus) Assignable() bool {
	status := BusStatus(strings.ToLower(strings.TrimSpace(string(b.Status))))
	return status == "" || status == BusStatusActive
}

// NormalizedCategory returns the bus category on the closed set.
func (b Bus) NormalizedCategory() BusCategory {
	category, _ := NormalizeBusCategory(b.Category)
	return category
}

// Driver is a driver roster entry.
type Driver struct {
	ID            EntityID `json:"id"`
	Name          string   `json:"name"`
	Phone         string   `json:"phone,omitempty"`
	LicenseNumber string   `json:"license_number,omitempty"`
	Status        string   `json:"status,omitempty"`
}
