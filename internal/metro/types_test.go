package metro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro-scheduler/internal/schedule"
)

func validLine() Line {
	return Line{
		ID:                   1,
		Name:                 "Line 1",
		TotalDurationMinutes: 25,
		FirstDeparture:       "05:30",
		FrequencyMinutes:     10,
		Active:               true,
	}
}

func TestLineValidate(t *testing.T) {
	require.NoError(t, validLine().Validate())

	bad := Line{Name: "  ", FirstDeparture: "5:30"}
	err := bad.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "line name is required")
	assert.Contains(t, msg, "duration must be greater than 0")
	assert.Contains(t, msg, "first departure")
	assert.Contains(t, msg, "frequency must be greater than 0")
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)
}

func TestLineSchedule(t *testing.T) {
	trips, err := validLine().Schedule(schedule.DefaultPolicy)
	require.NoError(t, err)
	assert.Equal(t, schedule.Trip{Start: "05:30", End: "05:55"}, trips[0])

	l := validLine()
	l.FrequencyMinutes = 0
	_, err = l.Schedule(schedule.DefaultPolicy)
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)
}

func TestSuspensionCancelsService(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	later := now.Add(2 * time.Hour)
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name string
		s    Suspension
		want bool
	}{
		{"open ended", Suspension{Active: true, CancelTrips: true, StartTime: earlier}, true},
		{"ends later", Suspension{Active: true, CancelTrips: true, StartTime: earlier, EndTime: &later}, true},
		{"already ended", Suspension{Active: true, CancelTrips: true, StartTime: earlier.Add(-time.Hour), EndTime: &earlier}, false},
		{"not started", Suspension{Active: true, CancelTrips: true, StartTime: later}, false},
		{"keeps trips", Suspension{Active: true, CancelTrips: false, StartTime: earlier}, false},
		{"lifted", Suspension{Active: false, CancelTrips: true, StartTime: earlier}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.CancelsService(now))
		})
	}
}
