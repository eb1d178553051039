package service

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	averageSpeedKmh = 55.0
	bufferHours     = 0.5
	minutesPerDay   = 24 * 60
)

// TravelHours estimates door-to-door travel time including a fixed boarding buffer.
func TravelHours(distanceKm float64) float64 {
	if distanceKm <= 0 || math.IsNaN(distanceKm) {
		return 0
	}
	return distanceKm/averageSpeedKmh + bufferHours
}

// EstimateArrival adds the travel time to an "HH:MM" departure and wraps past midnight.
// It returns "" when the departure is empty or malformed, or the distance is not positive.
func EstimateArrival(departureTime string, distanceKm float64) string {
	if distanceKm <= 0 {
		return ""
	}
	start, ok := minutesSinceMidnight(departureTime)
	if !ok {
		return ""
	}
	total := start + int(math.Round(TravelHours(distanceKm)*60))
	total = ((total % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func minutesSinceMidnight(clock string) (int, bool) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 0, false
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}
