package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/bus-console-api/internal/models"
)

// ConflictCandidate is the schedule being created or edited.
type ConflictCandidate struct {
	ID            models.EntityID
	DriverName    string
	BusNumber     string
	DepartureDate string
	Status        models.ScheduleStatus
}

// DetectConflicts lists every live schedule that shares the candidate's driver or bus on the
// same calendar day. The candidate's own record and terminal schedules are skipped. A schedule
// matching on both driver and bus yields two conflicts.
func DetectConflicts(existing []models.Schedule, candidate ConflictCandidate) []models.ScheduleConflict {
	conflicts := make([]models.ScheduleConflict, 0)
	if candidate.Status != "" && models.NormalizeScheduleStatus(string(candidate.Status)).Terminal() {
		return conflicts
	}
	day, err := models.ParseCalendarDate(candidate.DepartureDate)
	if err != nil {
		return conflicts
	}
	driver := normalizeName(candidate.DriverName)
	bus := normalizeName(candidate.BusNumber)

	for _, s := range existing {
		if candidate.ID != "" && s.ID == candidate.ID {
			continue
		}
		if s.CurrentStatus().Terminal() {
			continue
		}
		sDay, err := models.ParseCalendarDate(s.DepartureDate)
		if err != nil || sDay != day {
			continue
		}
		if name := normalizeName(s.DriverName); name != "" && name == driver {
			conflicts = append(conflicts, newConflict(models.ConflictKindDriver, s,
				fmt.Sprintf("driver %s is already assigned to %s departing at %s", s.DriverName, s.Label(), departureLabel(s))))
		}
		if number := normalizeName(s.BusNumber); number != "" && number == bus {
			conflicts = append(conflicts, newConflict(models.ConflictKindBus, s,
				fmt.Sprintf("bus %s is already assigned to %s departing at %s", s.BusNumber, s.Label(), departureLabel(s))))
		}
	}
	return conflicts
}

func newConflict(kind models.ConflictKind, s models.Schedule, message string) models.ScheduleConflict {
	return models.ScheduleConflict{
		Kind:          kind,
		Message:       message,
		ScheduleID:    s.ID,
		Route:         s.Label(),
		DepartureDate: s.DepartureDate,
		DepartureTime: s.DepartureTime,
		DriverName:    s.DriverName,
		BusNumber:     s.BusNumber,
	}
}

func departureLabel(s models.Schedule) string {
	if t := strings.TrimSpace(s.DepartureTime); t != "" {
		return t
	}
	return "an unspecified time"
}

func normalizeName(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}
