package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"metro-scheduler/internal/metro"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Store reads metro lines and suspensions from the operator database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) ActiveLines(ctx context.Context) ([]metro.Line, error) {
	return FetchActiveLines(ctx, s.db)
}

func (s *Store) ActiveSuspensions(ctx context.Context, now time.Time) ([]metro.Suspension, error) {
	return FetchActiveSuspensions(ctx, s.db, now)
}

// FetchActiveLines returns active lines ordered by id, with their stations in
// line order.
func FetchActiveLines(ctx context.Context, db *sql.DB) ([]metro.Line, error) {
	q := `
SELECT l.id, l.name, COALESCE(l.description, ''), l.total_duration_minutes,
       COALESCE(l.first_departure::text, ''), COALESCE(l.frequency_minutes, 0),
       COALESCE(ss.name, ''), COALESCE(es.name, '')
FROM metro_lines l
LEFT JOIN metro_stations ss ON ss.id = l.start_station_id
LEFT JOIN metro_stations es ON es.id = l.end_station_id
WHERE l.is_active = true
ORDER BY l.id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query metro_lines: %w", err)
	}
	defer rows.Close()

	var lines []metro.Line
	byID := make(map[int64]int)
	for rows.Next() {
		l := metro.Line{Active: true}
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.TotalDurationMinutes,
			&l.FirstDeparture, &l.FrequencyMinutes, &l.StartStation, &l.EndStation); err != nil {
			return nil, err
		}
		l.FirstDeparture = normalizeClock(l.FirstDeparture)
		byID[l.ID] = len(lines)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	sq := `
SELECT ls.metro_line_id, s.id, s.name, COALESCE(s.location, ''), s.is_active
FROM metro_line_stations ls
JOIN metro_stations s ON s.id = ls.station_id
WHERE ls.metro_line_id = ANY($1)
ORDER BY ls.metro_line_id, ls.position`
	srows, err := db.QueryContext(ctx, sq, ids)
	if err != nil {
		return nil, fmt.Errorf("query metro_line_stations: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var lineID int64
		var st metro.Station
		if err := srows.Scan(&lineID, &st.ID, &st.Name, &st.Location, &st.Active); err != nil {
			return nil, err
		}
		if i, ok := byID[lineID]; ok {
			lines[i].Stations = append(lines[i].Stations, st)
		}
	}
	return lines, srows.Err()
}

// FetchActiveSuspensions returns suspensions that are active and not yet ended at now.
func FetchActiveSuspensions(ctx context.Context, db *sql.DB, now time.Time) ([]metro.Suspension, error) {
	q := `
SELECT id, metro_line_id, COALESCE(suspension_type, ''), COALESCE(reason, ''),
       cancel_trips, start_time, end_time
FROM metro_line_suspensions
WHERE active = true AND (end_time IS NULL OR end_time > $1)
ORDER BY metro_line_id, start_time`
	rows, err := db.QueryContext(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("query metro_line_suspensions: %w", err)
	}
	defer rows.Close()

	var out []metro.Suspension
	for rows.Next() {
		s := metro.Suspension{Active: true}
		var end sql.NullTime
		if err := rows.Scan(&s.ID, &s.LineID, &s.Type, &s.Reason, &s.CancelTrips, &s.StartTime, &end); err != nil {
			return nil, err
		}
		if end.Valid {
			t := end.Time
			s.EndTime = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// normalizeClock trims a Postgres time value such as "05:30:00" to HH:MM.
// Anything else is returned unchanged for validation to reject.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) == 3 && len(parts[0]) == 2 && len(parts[1]) == 2 {
		return parts[0] + ":" + parts[1]
	}
	return s
}
