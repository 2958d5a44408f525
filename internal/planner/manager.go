package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"metro-scheduler/internal/metro"
	mmetrics "metro-scheduler/internal/metrics"
	"metro-scheduler/internal/schedule"
)

// LineStore is the source of lines and suspensions.
type LineStore interface {
	ActiveLines(ctx context.Context) ([]metro.Line, error)
	ActiveSuspensions(ctx context.Context, now time.Time) ([]metro.Suspension, error)
}

type TimetablePublisher interface {
	PublishTimetable(tt metro.Timetable) error
}

type Manager struct {
	store           LineStore
	pub             TimetablePublisher
	policy          schedule.Policy
	tz              *time.Location
	refreshInterval time.Duration
	metrics         *mmetrics.Collector
	log             zerolog.Logger
	now             func() time.Time

	mu         sync.Mutex
	timetables map[int64]metro.Timetable // lineID -> last published

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

func NewManager(store LineStore, pub TimetablePublisher, policy schedule.Policy, tz *time.Location, refreshInterval time.Duration, metrics *mmetrics.Collector, logger zerolog.Logger) *Manager {
	if tz == nil {
		tz = time.Local
	}
	return &Manager{
		store:           store,
		pub:             pub,
		policy:          policy,
		tz:              tz,
		refreshInterval: refreshInterval,
		metrics:         metrics,
		log:             logger.With().Str("component", "planner").Logger(),
		now:             time.Now,
		timetables:      make(map[int64]metro.Timetable),
	}
}

// cached returns the last timetable published for a line.
func (m *Manager) cached(lineID int64) (metro.Timetable, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tt, ok := m.timetables[lineID]
	return tt, ok
}

// RefreshAll loads active lines, generates a timetable for each one whose
// service is not cancelled, and publishes those that changed. It returns the
// number of timetables published.
func (m *Manager) RefreshAll(ctx context.Context) (int, error) {
	start := time.Now()
	now := m.now().In(m.tz)
	serviceDate := now.Format("2006-01-02")

	lines, err := m.store.ActiveLines(ctx)
	if err != nil {
		m.refreshFailed()
		return 0, fmt.Errorf("fetch active lines: %w", err)
	}
	suspensions, err := m.store.ActiveSuspensions(ctx, now)
	if err != nil {
		m.refreshFailed()
		return 0, fmt.Errorf("fetch active suspensions: %w", err)
	}
	cancelled := make(map[int64]metro.Suspension)
	for _, s := range suspensions {
		if s.CancelsService(now) {
			cancelled[s.LineID] = s
		}
	}

	published := 0
	suspended := 0
	active := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		active[l.ID] = true
		logger := m.log.With().Int64("line_id", l.ID).Str("line", l.Name).Logger()

		if s, ok := cancelled[l.ID]; ok {
			suspended++
			m.skipped("suspended")
			m.forget(l.ID)
			logger.Info().Int64("suspension_id", s.ID).Str("reason", s.Reason).Msg("trips cancelled by suspension")
			continue
		}
		if err := l.Validate(); err != nil {
			m.skipped("invalid")
			m.forget(l.ID)
			logger.Warn().Err(err).Msg("line has invalid schedule parameters")
			continue
		}
		if m.unchanged(l, serviceDate) {
			m.skipped("unchanged")
			continue
		}

		trips, err := l.Schedule(m.policy)
		if err != nil {
			m.skipped("invalid")
			m.forget(l.ID)
			logger.Warn().Err(err).Msg("generate trips")
			continue
		}
		tt := metro.Timetable{
			LineID:         l.ID,
			LineName:       l.Name,
			ServiceDate:    serviceDate,
			GeneratedAt:    now,
			FirstDeparture: l.FirstDeparture,
			Frequency:      l.FrequencyMinutes,
			Duration:       l.TotalDurationMinutes,
			Cutoff:         m.policy.ServiceCutoff.String(),
			Trips:          trips,
		}
		if err := m.pub.PublishTimetable(tt); err != nil {
			// left out of the cache so the next refresh retries it
			logger.Error().Err(err).Msg("publish timetable")
			continue
		}

		m.mu.Lock()
		m.timetables[l.ID] = tt
		m.mu.Unlock()
		published++
		if m.metrics != nil {
			m.metrics.Timetables.Inc()
			m.metrics.TripsPerLine.Observe(float64(len(trips)))
		}
		logger.Debug().Int("trips", len(trips)).Str("service_date", serviceDate).Msg("published timetable")
	}

	m.mu.Lock()
	for id := range m.timetables {
		if !active[id] {
			delete(m.timetables, id)
		}
	}
	cachedTrips := 0
	for _, tt := range m.timetables {
		cachedTrips += len(tt.Trips)
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.ActiveLines.Set(float64(len(lines)))
		m.metrics.SuspendedLines.Set(float64(suspended))
		m.metrics.CachedTrips.Set(float64(cachedTrips))
		m.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}
	m.log.Info().Int("lines", len(lines)).Int("published", published).Int("suspended", suspended).Msg("refresh complete")
	return published, nil
}

func (m *Manager) unchanged(l metro.Line, serviceDate string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.timetables[l.ID]
	return ok &&
		prev.ServiceDate == serviceDate &&
		prev.LineName == l.Name &&
		prev.FirstDeparture == l.FirstDeparture &&
		prev.Frequency == l.FrequencyMinutes &&
		prev.Duration == l.TotalDurationMinutes &&
		prev.Cutoff == m.policy.ServiceCutoff.String()
}

func (m *Manager) forget(lineID int64) {
	m.mu.Lock()
	delete(m.timetables, lineID)
	m.mu.Unlock()
}

func (m *Manager) skipped(reason string) {
	if m.metrics != nil {
		m.metrics.Skipped.WithLabelValues(reason).Inc()
	}
}

func (m *Manager) refreshFailed() {
	if m.metrics != nil {
		m.metrics.RefreshErrors.Inc()
	}
}

// Start launches a background loop that refreshes immediately and then on
// every refresh interval until Stop is called or ctx is done.
func (m *Manager) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		if _, err := m.RefreshAll(ctx); err != nil {
			m.log.Error().Err(err).Msg("refresh lines")
		}
		if m.refreshInterval <= 0 {
			return
		}
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.RefreshAll(ctx); err != nil {
					m.log.Error().Err(err).Msg("refresh lines")
				}
			}
		}
	}()
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
}
