package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveLines     prometheus.Gauge
	SuspendedLines  prometheus.Gauge
	CachedTrips     prometheus.Gauge
	Timetables      prometheus.Counter
	Skipped         *prometheus.CounterVec // reason label: suspended|invalid|unchanged
	RefreshErrors   prometheus.Counter
	RefreshDuration prometheus.Histogram
	TripsPerLine    prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	RefreshInterval prometheus.Gauge // seconds
	ServiceCutoff   prometheus.Gauge // minutes since midnight
}

func NewCollector(refreshInterval time.Duration, cutoffMinutes int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_active_lines",
			Help: "Number of active lines seen on the last refresh.",
		}),
		SuspendedLines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_suspended_lines",
			Help: "Number of lines with trips cancelled by a suspension on the last refresh.",
		}),
		CachedTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_cached_trips",
			Help: "Total trips across all cached timetables.",
		}),
		Timetables: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_timetables_generated_total",
			Help: "Total timetables generated and published.",
		}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_lines_skipped_total",
			Help: "Lines skipped during refresh, by reason.",
		}, []string{"reason"}),
		RefreshErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_refresh_errors_total",
			Help: "Total refresh cycles that failed to load lines.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		TripsPerLine: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_trips_per_timetable",
			Help:    "Number of trips in each generated timetable.",
			Buckets: prometheus.LinearBuckets(0, 50, 20),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_refresh_interval_seconds",
			Help: "Line refresh interval in seconds.",
		}),
		ServiceCutoff: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_service_cutoff_minutes",
			Help: "Last departure time allowed, in minutes since midnight.",
		}),
	}

	reg.MustRegister(
		c.ActiveLines, c.SuspendedLines, c.CachedTrips,
		c.Timetables, c.Skipped, c.RefreshErrors,
		c.RefreshDuration, c.TripsPerLine,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.RefreshInterval, c.ServiceCutoff,
	)

	c.RefreshInterval.Set(refreshInterval.Seconds())
	c.ServiceCutoff.Set(float64(cutoffMinutes))

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	logger.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}

// PublisherMetrics adapts the collector to the publisher's metrics hooks.
func (c *Collector) PublisherMetrics() *PublisherHooks { return &PublisherHooks{c: c} }

type PublisherHooks struct{ c *Collector }

func (p *PublisherHooks) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *PublisherHooks) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *PublisherHooks) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *PublisherHooks) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
