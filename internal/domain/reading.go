package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedSourceData is returned when a provider response has misaligned
	// arrays or timestamps that are unparsable or not strictly increasing.
	ErrMalformedSourceData = errors.New("malformed source data")

	// ErrEmptyInput is returned when a caller supplies no sites or no windows.
	ErrEmptyInput = errors.New("empty input")
)

// providerTimeLayout is the offset-less format Open-Meteo uses for hourly data.
const providerTimeLayout = "2006-01-02T15:04"

// Reading is one normalized hourly observation or forecast value.
type Reading struct {
	Time        time.Time `json:"time"`
	SpeedRef    float64   `json:"speed_ref"` // km/h at 10 m
	SpeedHub    float64   `json:"speed_hub"` // km/h at 100 m
	Gust        float64   `json:"gust"`
	Direction   float64   `json:"direction"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
}

// HourlySeries is the provider's hourly block: one timestamp array plus one
// array per measured variable, all index-aligned. Nil entries are missing values.
type HourlySeries struct {
	Time               []string   `json:"time"`
	WindSpeed10m       []*float64 `json:"wind_speed_10m"`
	WindSpeed100m      []*float64 `json:"wind_speed_100m"`
	WindGusts10m       []*float64 `json:"wind_gusts_10m"`
	WindDirection10m   []*float64 `json:"wind_direction_10m"`
	Temperature2m      []*float64 `json:"temperature_2m"`
	RelativeHumidity2m []*float64 `json:"relative_humidity_2m"`
	SurfacePressure    []*float64 `json:"surface_pressure"`
}

// NormalizeHourly converts a provider hourly block into an ordered slice of
// readings whose times are expressed in loc. Offset-less timestamps are read as
// GMT, the zone the provider is queried in, so daylight-saving transitions in
// loc never produce gaps or repeated hours. Variable arrays that are absent are
// treated as all-missing; present arrays must match the length of Time. Values
// are not range-checked.
func NormalizeHourly(raw HourlySeries, loc *time.Location) ([]Reading, error) {
	if loc == nil {
		loc = time.UTC
	}
	n := len(raw.Time)

	columns := []struct {
		name   string
		values []*float64
	}{
		{"wind_speed_10m", raw.WindSpeed10m},
		{"wind_speed_100m", raw.WindSpeed100m},
		{"wind_gusts_10m", raw.WindGusts10m},
		{"wind_direction_10m", raw.WindDirection10m},
		{"temperature_2m", raw.Temperature2m},
		{"relative_humidity_2m", raw.RelativeHumidity2m},
		{"surface_pressure", raw.SurfacePressure},
	}
	for _, c := range columns {
		if c.values != nil && len(c.values) != n {
			return nil, fmt.Errorf("%w: %s has %d values, time has %d", ErrMalformedSourceData, c.name, len(c.values), n)
		}
	}

	readings := make([]Reading, 0, n)
	var prev time.Time
	for i, ts := range raw.Time {
		t, err := parseProviderTime(ts)
		if err != nil {
			return nil, fmt.Errorf("%w: time[%d]: %v", ErrMalformedSourceData, i, err)
		}
		if i > 0 && !t.After(prev) {
			return nil, fmt.Errorf("%w: time[%d] %s is not after %s", ErrMalformedSourceData, i, ts, raw.Time[i-1])
		}
		prev = t
		t = t.In(loc)

		readings = append(readings, Reading{
			Time:        t,
			SpeedRef:    valueAt(raw.WindSpeed10m, i),
			SpeedHub:    valueAt(raw.WindSpeed100m, i),
			Gust:        valueAt(raw.WindGusts10m, i),
			Direction:   valueAt(raw.WindDirection10m, i),
			Temperature: valueAt(raw.Temperature2m, i),
			Humidity:    valueAt(raw.RelativeHumidity2m, i),
			Pressure:    valueAt(raw.SurfacePressure, i),
		})
	}
	return readings, nil
}

// parseProviderTime reads the provider's layout as GMT and falls back to RFC 3339.
func parseProviderTime(s string) (time.Time, error) {
	if t, err := time.Parse(providerTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

// MergeReadings combines a historical and a forecast series into one ascending
// series. When both contain the same hour the historical reading wins.
func MergeReadings(historical, forecast []Reading) []Reading {
	seen := make(map[int64]struct{}, len(historical))
	merged := make([]Reading, 0, len(historical)+len(forecast))
	for _, r := range historical {
		seen[r.Time.Unix()] = struct{}{}
		merged = append(merged, r)
	}
	for _, r := range forecast {
		if _, dup := seen[r.Time.Unix()]; dup {
			continue
		}
		merged = append(merged, r)
	}
	return sortedByTime(merged)
}
