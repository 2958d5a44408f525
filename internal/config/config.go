package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"metro-scheduler/internal/schedule"
)

type Config struct {
	DatabaseURL       string
	DatabaseName      string
	NATSURL           string
	NATSSubjectPrefix string
	LogNATSSubjects   bool
	RefreshInterval   time.Duration
	ServiceCutoff     schedule.Clock
	MetricsAddr       string
	Location          *time.Location
	LogLevel          string
	LogPretty         bool
}

// Policy returns the schedule policy configured for this process.
func (c *Config) Policy() schedule.Policy {
	return schedule.Policy{ServiceCutoff: c.ServiceCutoff}
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{}

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	dsn := firstNonEmpty(getenv("DATABASE_URL"), getenv("PG_DSN"))
	if dsn == "" {
		host := env("PGHOST", "127.0.0.1")
		port := env("PGPORT", "5432")
		user := env("PGUSER", "postgres")
		pass := getenv("PGPASSWORD")
		db := getenv("PGDATABASE")
		if db == "" {
			return nil, errors.New("PGDATABASE or DATABASE_URL must be set")
		}
		sslmode := env("PGSSLMODE", "disable")
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	} else {
		cfg.DatabaseURL = dsn
	}
	// Optional override of the database in the DSN path
	cfg.DatabaseName = strings.TrimSpace(getenv("METRO_DB_NAME"))

	cfg.NATSURL = env("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATSSubjectPrefix = env("NATS_SUBJECT_PREFIX", "timetables")
	cfg.LogNATSSubjects = parseBool(getenv("LOG_NATS_SUBJECTS"))

	if v := getenv("REFRESH_INTERVAL_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL_SEC: %q", v)
		}
		cfg.RefreshInterval = time.Duration(sec) * time.Second
	} else {
		cfg.RefreshInterval = 5 * time.Minute
	}

	if v := getenv("SERVICE_CUTOFF"); v != "" {
		c, err := schedule.ParseClock(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICE_CUTOFF: %w", err)
		}
		cfg.ServiceCutoff = c
	} else {
		cfg.ServiceCutoff = schedule.DefaultServiceCutoff
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = getenv("METRICS_ADDR")

	if tzName := getenv("TZ"); tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %w", err)
		}
		cfg.Location = loc
	}

	cfg.LogLevel = strings.ToLower(env("LOG_LEVEL", "info"))
	cfg.LogPretty = parseBool(getenv("LOG_PRETTY"))

	return cfg, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
