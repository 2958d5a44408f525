package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro-scheduler/internal/schedule"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerateText(t *testing.T) {
	out, err := execute(t, "generate", "--first", "21:40", "--frequency", "10", "--duration", "25")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"First two trips: 21:40 - 22:05, 21:50 - 22:15",
		"Last two trips: 21:50 - 22:15, 22:00 - 22:25",
		"Trips: 3",
		"21:40 - 22:05",
		"21:50 - 22:15",
		"22:00 - 22:25",
	}, lines)
}

func TestGenerateJSONWithCutoff(t *testing.T) {
	out, err := execute(t, "generate", "--first", "05:30", "--frequency", "15", "--duration", "20", "--cutoff", "06:00", "--json")
	require.NoError(t, err)

	var trips []schedule.Trip
	require.NoError(t, json.Unmarshal([]byte(out), &trips))
	assert.Equal(t, []schedule.Trip{
		{Start: "05:30", End: "05:50"},
		{Start: "05:45", End: "06:05"},
		{Start: "06:00", End: "06:20"},
	}, trips)
}

func TestGenerateAfterCutoff(t *testing.T) {
	out, err := execute(t, "generate", "--first", "23:00", "--frequency", "10", "--duration", "15", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestGenerateInvalidInput(t *testing.T) {
	_, err := execute(t, "generate", "--first", "5:30", "--duration", "25")
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrInvalidArgument)

	_, err = execute(t, "generate", "--duration", "25", "--cutoff", "99:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cutoff")

	_, err = execute(t, "generate", "--first", "05:30")
	require.Error(t, err)
}

func TestGeneratePaged(t *testing.T) {
	out, err := execute(t, "generate", "--first", "05:30", "--frequency", "10", "--duration", "25", "--offset", "98", "--limit", "5")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"First two trips: 05:30 - 05:55, 05:40 - 06:05",
		"Last two trips: 21:50 - 22:15, 22:00 - 22:25",
		"Trips: 100",
		"Showing 99-100",
		"21:50 - 22:15",
		"22:00 - 22:25",
	}, lines)
}

func TestGeneratePagedJSON(t *testing.T) {
	out, err := execute(t, "generate", "--duration", "25", "--offset", "20", "--json")
	require.NoError(t, err)

	var trips []schedule.Trip
	require.NoError(t, json.Unmarshal([]byte(out), &trips))
	require.Len(t, trips, schedule.DefaultPageSize)
	assert.Equal(t, schedule.Trip{Start: "08:50", End: "09:15"}, trips[0])

	out, err = execute(t, "generate", "--duration", "25", "--offset", "500", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}
