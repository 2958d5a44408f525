package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const minutesPerDay = 24 * 60

// DefaultServiceCutoff is the last wall-clock minute at which a departure may be scheduled.
const DefaultServiceCutoff Clock = 22 * 60

// DefaultPolicy applies the standard operating-hours window.
var DefaultPolicy = Policy{ServiceCutoff: DefaultServiceCutoff}

// ErrInvalidArgument is wrapped by every input validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Trip is one scheduled run, departure and arrival as HH:MM.
type Trip struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Clock is a wall-clock time expressed in minutes since midnight.
type Clock int

// ParseClock parses a zero-padded 24-hour "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: time %q must be HH:MM (00:00-23:59)", ErrInvalidArgument, s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return Clock(h*60 + mm), nil
}

// Add returns c advanced by minutes, wrapping at midnight.
func (c Clock) Add(minutes int) Clock {
	v := (int(c) + minutes%minutesPerDay) % minutesPerDay
	if v < 0 {
		v += minutesPerDay
	}
	return Clock(v)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Policy holds the operating-hours rules applied when generating trips.
type Policy struct {
	// ServiceCutoff bounds departures, inclusive. Arrivals may fall after it.
	ServiceCutoff Clock
}

// GenerateTrips builds the day's trips using DefaultPolicy.
func GenerateTrips(firstDeparture string, frequency, duration int) ([]Trip, error) {
	return DefaultPolicy.Generate(firstDeparture, frequency, duration)
}

// Generate returns one trip every frequency minutes starting at firstDeparture,
// for as long as the departure does not pass the service cutoff. Each trip ends
// duration minutes after it starts. Inputs are validated before anything is
// produced; the returned slice is never nil on success.
func (p Policy) Generate(firstDeparture string, frequency, duration int) ([]Trip, error) {
	if p.ServiceCutoff < 0 || p.ServiceCutoff >= minutesPerDay {
		return nil, fmt.Errorf("%w: service cutoff must be within 00:00-23:59, got %d minutes", ErrInvalidArgument, int(p.ServiceCutoff))
	}
	first, err := ParseClock(firstDeparture)
	if err != nil {
		return nil, err
	}
	if frequency < 1 {
		return nil, fmt.Errorf("%w: frequency must be at least 1 minute, got %d", ErrInvalidArgument, frequency)
	}
	if duration < 1 {
		return nil, fmt.Errorf("%w: duration must be at least 1 minute, got %d", ErrInvalidArgument, duration)
	}

	n := p.count(first, frequency)
	trips := make([]Trip, 0, n)
	for i := 0; i < n; i++ {
		// i*frequency never exceeds cutoff-first, so this cannot overflow
		start := first + Clock(i*frequency)
		trips = append(trips, Trip{
			Start: start.String(),
			End:   start.Add(duration).String(),
		})
	}
	return trips, nil
}

func (p Policy) count(first Clock, frequency int) int {
	if first > p.ServiceCutoff {
		return 0
	}
	return int(p.ServiceCutoff-first)/frequency + 1
}
