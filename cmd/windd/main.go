package main

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wind-period-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/wind-period-service/internal/adapter/kafka"
	"github.com/couchcryptid/wind-period-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/wind-period-service/internal/analysis"
	"github.com/couchcryptid/wind-period-service/internal/config"
	"github.com/couchcryptid/wind-period-service/internal/observability"
	"github.com/couchcryptid/wind-period-service/internal/sites"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	catalog, err := sites.Load(cfg.SitesFile)
	if err != nil {
		logger.Error("failed to load site catalog", "path", cfg.SitesFile, "error", err)
		os.Exit(1)
	}
	logger.Info("site catalog loaded", "sites", catalog.Len(), "regions", len(catalog.Regions()))

	// Cache outermost so hits skip the rate limiter and the breaker.
	client := openmeteo.NewClient(openmeteo.Config{
		ForecastURL: cfg.ForecastURL,
		ArchiveURL:  cfg.ArchiveURL,
		Timeout:     cfg.HTTPTimeout,
		Location:    cfg.Timezone,
	}, clock, logger, metrics)
	limited := openmeteo.NewRateLimitedSource(client, cfg.RateLimit, int(math.Ceil(cfg.RateLimit)))
	source := openmeteo.NewCachedSource(limited, cfg.CacheSize, cfg.CacheTTL, clock, metrics)

	opts := analysis.Options{
		Thresholds:  cfg.Thresholds,
		Location:    cfg.Timezone,
		Concurrency: cfg.SiteConcurrency,
		SiteTimeout: cfg.SiteFetchTimeout,
		Clock:       clock,
	}

	// Period publishing is feature-flagged via KAFKA_ENABLED.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaPeriodsTopic, logger)
		opts.Publisher = writer
		logger.Info("kafka period publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPeriodsTopic)
	} else {
		logger.Info("kafka period publishing disabled")
	}

	svc := analysis.New(source, catalog, opts, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
