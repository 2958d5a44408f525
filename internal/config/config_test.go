package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metro-scheduler/internal/schedule"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"DATABASE_URL": "postgres://metro@db/metro"}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://metro@db/metro", cfg.DatabaseURL)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
	assert.Equal(t, "timetables", cfg.NATSSubjectPrefix)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, schedule.DefaultServiceCutoff, cfg.ServiceCutoff)
	assert.Equal(t, schedule.DefaultPolicy, cfg.Policy())
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.False(t, cfg.LogNATSSubjects)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PGHOST":               "pg",
		"PGUSER":               "metro",
		"PGPASSWORD":           "p@ss:word",
		"PGDATABASE":           "metro",
		"METRO_DB_NAME":        "metro_hcm",
		"NATS_SUBJECT_PREFIX":  "hcm.timetables",
		"LOG_NATS_SUBJECTS":    "yes",
		"REFRESH_INTERVAL_SEC": "30",
		"SERVICE_CUTOFF":       "23:30",
		"METRICS_ADDR":         ":9102",
		"TZ":                   "UTC",
		"LOG_LEVEL":            "DEBUG",
		"LOG_PRETTY":           "1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://metro:p%40ss%3Aword@pg:5432/metro?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "metro_hcm", cfg.DatabaseName)
	assert.Equal(t, "hcm.timetables", cfg.NATSSubjectPrefix)
	assert.True(t, cfg.LogNATSSubjects)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "23:30", cfg.ServiceCutoff.String())
	assert.Equal(t, ":9102", cfg.MetricsAddr)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{name: "no database", env: map[string]string{}, msg: "PGDATABASE or DATABASE_URL must be set"},
		{name: "bad refresh", env: map[string]string{"DATABASE_URL": "postgres://db/x", "REFRESH_INTERVAL_SEC": "0"}, msg: "invalid REFRESH_INTERVAL_SEC"},
		{name: "bad cutoff", env: map[string]string{"DATABASE_URL": "postgres://db/x", "SERVICE_CUTOFF": "25:00"}, msg: "invalid SERVICE_CUTOFF"},
		{name: "bad tz", env: map[string]string{"DATABASE_URL": "postgres://db/x", "TZ": "Mars/Olympus"}, msg: "invalid TZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
