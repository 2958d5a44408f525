package metro

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"metro-scheduler/internal/schedule"
)

type Station struct {
	ID       int64
	Name     string
	Location string
	Active   bool
}

type Line struct {
	ID                   int64
	Name                 string
	Description          string
	TotalDurationMinutes int    // end-to-end trip duration
	FirstDeparture       string // HH:MM
	FrequencyMinutes     int    // headway
	Active               bool
	StartStation         string
	EndStation           string
	Stations             []Station
}

// Validate reports every problem with the line's schedule parameters at once.
func (l Line) Validate() error {
	var errs []error
	if strings.TrimSpace(l.Name) == "" {
		errs = append(errs, errors.New("line name is required"))
	}
	if l.TotalDurationMinutes <= 0 {
		errs = append(errs, fmt.Errorf("duration must be greater than 0, got %d", l.TotalDurationMinutes))
	}
	if _, err := schedule.ParseClock(l.FirstDeparture); err != nil {
		errs = append(errs, fmt.Errorf("first departure: %w", err))
	}
	if l.FrequencyMinutes <= 0 {
		errs = append(errs, fmt.Errorf("frequency must be greater than 0, got %d", l.FrequencyMinutes))
	}
	return errors.Join(errs...)
}

// Schedule generates the line's trips for one operating day.
func (l Line) Schedule(p schedule.Policy) ([]schedule.Trip, error) {
	trips, err := p.Generate(l.FirstDeparture, l.FrequencyMinutes, l.TotalDurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", l.ID, err)
	}
	return trips, nil
}

type Suspension struct {
	ID          int64
	LineID      int64
	Type        string
	Reason      string
	CancelTrips bool
	StartTime   time.Time
	EndTime     *time.Time // nil while open-ended
	Active      bool
}

// CancelsService reports whether the suspension removes the line's trips at now.
func (s Suspension) CancelsService(now time.Time) bool {
	if !s.Active || !s.CancelTrips {
		return false
	}
	if now.Before(s.StartTime) {
		return false
	}
	return s.EndTime == nil || now.Before(*s.EndTime)
}

// Timetable is a line's generated schedule for one service date.
type Timetable struct {
	LineID         int64           `json:"lineId"`
	LineName       string          `json:"lineName"`
	ServiceDate    string          `json:"serviceDate"` // YYYY-MM-DD
	GeneratedAt    time.Time       `json:"generatedAt"`
	FirstDeparture string          `json:"firstDeparture"`
	Frequency      int             `json:"frequency"`
	Duration       int             `json:"duration"`
	Cutoff         string          `json:"cutoff"`
	Trips          []schedule.Trip `json:"trips"`
}
