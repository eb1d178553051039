package models

import (
	"fmt"
	"strings"
	"time"
)

// CalendarDate is a day on the calendar with no time-of-day or zone attached.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

var calendarLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// ParseCalendarDate reads a YYYY-MM-DD date or an ISO timestamp. For timestamps the
// date is taken as written, so an offset never moves the value to another day.
func ParseCalendarDate(raw string) (CalendarDate, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return CalendarDate{}, fmt.Errorf("empty date")
	}
	for _, layout := range calendarLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
	}
	return CalendarDate{}, fmt.Errorf("unrecognised date %q", raw)
}

// IsZero reports whether the date is unset.
func (d CalendarDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the date as YYYY-MM-DD.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Before reports whether d falls on an earlier day than other.
func (d CalendarDate) Before(other CalendarDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}
