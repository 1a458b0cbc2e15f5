//go:build openmeteo

package openmeteo

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-period-service/internal/observability"
)

// These tests hit the real Open-Meteo APIs.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	nz, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	return NewClient(Config{
		ForecastURL: "https://api.open-meteo.com/v1/forecast",
		ArchiveURL:  "https://archive-api.open-meteo.com/v1/archive",
		Timeout:     15 * time.Second,
		Location:    nz,
	}, clockwork.NewRealClock(), slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_Archive(t *testing.T) {
	c := smokeClient(t)
	day := time.Date(2024, time.July, 1, 0, 0, 0, 0, c.location)

	readings, err := c.FetchReadings(context.Background(), -41.29, 174.63, day, day.Add(23*time.Hour))
	require.NoError(t, err)

	assert.Len(t, readings, 24)
	assert.Equal(t, day, readings[0].Time)
}

func TestSmoke_ForecastAndHistory(t *testing.T) {
	c := smokeClient(t)
	now := time.Now().In(c.location)

	readings, err := c.FetchReadings(context.Background(), -40.30, 175.80, now.AddDate(0, 0, -3), now.AddDate(0, 0, 2))
	require.NoError(t, err)

	assert.NotEmpty(t, readings)
	for i := 1; i < len(readings); i++ {
		assert.True(t, readings[i].Time.After(readings[i-1].Time))
	}
}
