package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTravelHours(t *testing.T) {
	assert.InDelta(t, 1.5, TravelHours(55), 1e-9)
	assert.InDelta(t, 0.5+110.0/55, TravelHours(110), 1e-9)
	assert.Zero(t, TravelHours(0))
	assert.Zero(t, TravelHours(-10))
}

func TestEstimateArrival(t *testing.T) {
	cases := []struct {
		name      string
		departure string
		distance  float64
		want      string
	}{
		{name: "same day", departure: "08:00", distance: 55, want: "09:30"},
		{name: "wraps past midnight", departure: "23:30", distance: 55, want: "01:00"},
		{name: "rounds minutes", departure: "06:15", distance: 100, want: "08:34"},
		{name: "accepts seconds", departure: "07:00:00", distance: 55, want: "08:30"},
		{name: "empty departure", departure: "", distance: 100, want: ""},
		{name: "zero distance", departure: "08:00", distance: 0, want: ""},
		{name: "negative distance", departure: "08:00", distance: -3, want: ""},
		{name: "malformed departure", departure: "8 o'clock", distance: 100, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EstimateArrival(tc.departure, tc.distance))
		})
	}
}

func TestEstimateArrivalIsDeterministic(t *testing.T) {
	first := EstimateArrival("13:45", 432.1)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, EstimateArrival("13:45", 432.1))
}
