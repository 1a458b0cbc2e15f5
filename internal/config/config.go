package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal images.

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Analysis defaults, overridable per request.
	Thresholds domain.Thresholds
	Timezone   *time.Location

	SitesFile        string
	SiteConcurrency  int
	SiteFetchTimeout time.Duration

	// Open-Meteo reading source.
	ForecastURL string
	ArchiveURL  string
	HTTPTimeout time.Duration
	RateLimit   float64
	CacheSize   int
	CacheTTL    time.Duration

	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaPeriodsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	strong, err := parseFloat("STRONG_WIND_THRESHOLD", 60)
	if err != nil {
		return nil, err
	}
	extreme, err := parseFloat("EXTREME_WIND_THRESHOLD", 100)
	if err != nil {
		return nil, err
	}
	minDuration, err := parseFloat("MIN_DURATION_HOURS", 6)
	if err != nil {
		return nil, err
	}

	tz, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", "Pacific/Auckland"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	concurrency, err := parseInt("SITE_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("SITE_FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("OPENMETEO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	rateLimit, err := parseFloat("OPENMETEO_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("OPENMETEO_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Thresholds: domain.Thresholds{Strong: strong, Extreme: extreme, MinDurationHours: minDuration},
		Timezone:   tz,

		SitesFile:        os.Getenv("SITES_FILE"),
		SiteConcurrency:  concurrency,
		SiteFetchTimeout: fetchTimeout,

		ForecastURL: sharedcfg.EnvOrDefault("OPENMETEO_FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
		ArchiveURL:  sharedcfg.EnvOrDefault("OPENMETEO_ARCHIVE_URL", "https://archive-api.open-meteo.com/v1/archive"),
		HTTPTimeout: httpTimeout,
		RateLimit:   rateLimit,
		CacheSize:   parseCacheSize(),
		CacheTTL:    cacheTTL,

		KafkaEnabled:      os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPeriodsTopic: sharedcfg.EnvOrDefault("KAFKA_PERIODS_TOPIC", "strong-wind-periods"),
	}

	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.SiteConcurrency <= 0 {
		return nil, errors.New("SITE_CONCURRENCY must be positive")
	}
	if cfg.RateLimit <= 0 {
		return nil, errors.New("OPENMETEO_RATE_LIMIT must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaPeriodsTopic == "" {
			return nil, errors.New("KAFKA_PERIODS_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("OPENMETEO_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
