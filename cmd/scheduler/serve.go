package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"metro-scheduler/internal/config"
	"metro-scheduler/internal/db"
	"metro-scheduler/internal/logging"
	"metro-scheduler/internal/metrics"
	"metro-scheduler/internal/planner"
	"metro-scheduler/internal/publisher"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Refresh and publish line timetables until interrupted",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogPretty)

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dsn, err := db.WithDBName(cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return fmt.Errorf("compose DSN: %w", err)
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Ping(ctx, sqlDB); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	var mcol *metrics.Collector
	var pubMetrics publisher.PublisherMetrics
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.RefreshInterval, int(cfg.ServiceCutoff))
		pubMetrics = mcol.PublisherMetrics()
		srv := mcol.Serve(cfg.MetricsAddr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, pubMetrics, logger)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer pub.Close()

	mgr := planner.NewManager(db.NewStore(sqlDB), pub, cfg.Policy(), cfg.Location, cfg.RefreshInterval, mcol, logger)
	logger.Info().
		Str("cutoff", cfg.ServiceCutoff.String()).
		Dur("refresh_interval", cfg.RefreshInterval).
		Str("tz", cfg.Location.String()).
		Msg("scheduler starting")
	mgr.Start(ctx)

	<-ctx.Done()
	mgr.Stop()
	logger.Info().Msg("shutdown complete")
	return nil
}
