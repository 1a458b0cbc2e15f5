// Package openmeteo fetches hourly wind readings from the Open-Meteo forecast
// and historical archive APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/wind-period-service/internal/domain"
	"github.com/couchcryptid/wind-period-service/internal/observability"
)

// ErrCircuitOpen is returned while the circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("open-meteo circuit breaker is open")

const (
	endpointArchive  = "archive"
	endpointForecast = "forecast"
)

var hourlyVariables = strings.Join([]string{
	"wind_speed_10m",
	"wind_speed_100m",
	"wind_gusts_10m",
	"wind_direction_10m",
	"temperature_2m",
	"relative_humidity_2m",
	"surface_pressure",
}, ",")

// Config configures a Client.
type Config struct {
	ForecastURL string
	ArchiveURL  string
	Timeout     time.Duration
	Location    *time.Location
}

// Client implements a reading source over the Open-Meteo HTTP APIs. The
// provider is queried in GMT and readings are presented in Location. GMT dates
// before today are served by the archive API, today onwards by the forecast
// API, and a range spanning both is merged. Requests are never retried;
// repeated upstream failures open a circuit breaker.
type Client struct {
	httpClient  *http.Client
	forecastURL string
	archiveURL  string
	location    *time.Location
	breaker     *gobreaker.CircuitBreaker[domain.HourlySeries]
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewClient creates an Open-Meteo client.
func NewClient(cfg Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Client {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		forecastURL: cfg.ForecastURL,
		archiveURL:  cfg.ArchiveURL,
		location:    loc,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker[domain.HourlySeries](gobreaker.Settings{
		Name:        "open-meteo",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful:  isSuccessful,
		OnStateChange: c.onStateChange,
	})
	return c
}

// FetchReadings returns normalized hourly readings within [start, end]. The
// provider is asked for the whole GMT dates covering the range and the result
// is trimmed back to it.
func (c *Client) FetchReadings(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.Reading, error) {
	startDay := truncateDay(start.UTC())
	endDay := truncateDay(end.UTC())
	today := truncateDay(c.clock.Now().UTC())

	var (
		readings []domain.Reading
		err      error
	)
	switch {
	case endDay.Before(today):
		readings, err = c.fetch(ctx, endpointArchive, lat, lon, startDay, endDay)
	case !startDay.Before(today):
		readings, err = c.fetch(ctx, endpointForecast, lat, lon, startDay, endDay)
	default:
		readings, err = c.fetchSplit(ctx, lat, lon, startDay, endDay, today)
	}
	if err != nil {
		return nil, err
	}
	return within(readings, start, end), nil
}

func (c *Client) fetchSplit(ctx context.Context, lat, lon float64, startDay, endDay, today time.Time) ([]domain.Reading, error) {
	historical, err := c.fetch(ctx, endpointArchive, lat, lon, startDay, today.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	forecast, err := c.fetch(ctx, endpointForecast, lat, lon, today, endDay)
	if err != nil {
		return nil, err
	}
	return domain.MergeReadings(historical, forecast), nil
}

// within keeps readings in [start, end] inclusive; readings are in time order.
func within(readings []domain.Reading, start, end time.Time) []domain.Reading {
	out := readings[:0]
	for _, r := range readings {
		if !r.Time.Before(start) && !r.Time.After(end) {
			out = append(out, r)
		}
	}
	return out
}

// CheckReadiness reports an error while the circuit breaker is open.
func (c *Client) CheckReadiness(_ context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, lat, lon float64, from, to time.Time) ([]domain.Reading, error) {
	base := c.forecastURL
	if endpoint == endpointArchive {
		base = c.archiveURL
	}
	params := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', 4, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', 4, 64)},
		"hourly":          {hourlyVariables},
		"wind_speed_unit": {"kmh"},
		"timezone":        {"GMT"},
		"start_date":      {from.Format(time.DateOnly)},
		"end_date":        {to.Format(time.DateOnly)},
	}

	start := c.clock.Now()
	hourly, err := c.breaker.Execute(func() (domain.HourlySeries, error) {
		return c.doRequest(ctx, base+"?"+params.Encode())
	})
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(c.clock.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
			return nil, ErrCircuitOpen
		}
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()

	readings, err := domain.NormalizeHourly(hourly, c.location)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", endpoint, err)
	}
	c.logger.Debug("open-meteo fetch",
		"endpoint", endpoint,
		"lat", lat,
		"lon", lon,
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"readings", len(readings),
	)
	return readings, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.HourlySeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.HourlySeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.HourlySeries{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.HourlySeries{}, &StatusError{StatusCode: resp.StatusCode, Reason: errorReason(body)}
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.HourlySeries{}, fmt.Errorf("decode response: %w", err)
	}
	return r.Hourly, nil
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
	if to == gobreaker.StateOpen {
		c.metrics.BreakerOpen.Set(1)
	} else {
		c.metrics.BreakerOpen.Set(0)
	}
}

// StatusError is a non-200 response from Open-Meteo.
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("open-meteo API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("open-meteo API error: status %d: %s", e.StatusCode, e.Reason)
}

// isSuccessful keeps client errors (bad coordinates, out-of-range dates) from
// tripping the breaker; only transport failures and 5xx count.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode < 500
}

func errorReason(body []byte) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &e) == nil && e.Reason != "" {
		return e.Reason
	}
	return strings.TrimSpace(string(body))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Open-Meteo API response types.

type response struct {
	Latitude  float64             `json:"latitude"`
	Longitude float64             `json:"longitude"`
	Timezone  string              `json:"timezone"`
	Hourly    domain.HourlySeries `json:"hourly"`
}
