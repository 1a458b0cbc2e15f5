package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestNormalizeHourly(t *testing.T) {
	raw := HourlySeries{
		Time:               []string{"2024-07-01T00:00", "2024-07-01T01:00", "2024-07-01T02:00"},
		WindSpeed10m:       []*float64{f(40), nil, f(65)},
		WindSpeed100m:      []*float64{f(55), f(60), f(80)},
		WindGusts10m:       []*float64{f(70), f(75), nil},
		WindDirection10m:   []*float64{f(270), f(280), f(400)},
		Temperature2m:      []*float64{f(8.5), f(8.1), f(7.9)},
		RelativeHumidity2m: []*float64{f(80), f(82), f(85)},
		SurfacePressure:    []*float64{f(1002), f(1001), f(999)},
	}

	readings, err := NormalizeHourly(raw, time.UTC)
	require.NoError(t, err)
	require.Len(t, readings, 3)

	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), readings[0].Time)
	assert.Equal(t, 40.0, readings[0].SpeedRef)
	assert.Equal(t, 55.0, readings[0].SpeedHub)
	assert.Equal(t, 70.0, readings[0].Gust)
	assert.Equal(t, 1002.0, readings[0].Pressure)

	assert.Zero(t, readings[1].SpeedRef, "null defaults to zero")
	assert.Zero(t, readings[2].Gust, "null defaults to zero")
	assert.Equal(t, 400.0, readings[2].Direction, "out-of-range values pass through")
}

func TestNormalizeHourly_LocalTime(t *testing.T) {
	nz, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	readings, err := NormalizeHourly(HourlySeries{Time: []string{"2024-07-01T00:00"}}, nz)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), readings[0].Time.UTC())
	assert.Equal(t, 12, readings[0].Time.Hour(), "presented in the requested zone")
	assert.Equal(t, "2024-07-01", DateKey(readings[0].Time))
}

func TestNormalizeHourly_DaylightSavingTransitions(t *testing.T) {
	nz, err := time.LoadLocation("Pacific/Auckland")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	tests := []struct {
		name       string
		times      []string
		localHours []int
	}{
		{
			// 2024-09-29 02:00 NZST jumps to 03:00 NZDT.
			name:       "spring forward",
			times:      []string{"2024-09-28T12:00", "2024-09-28T13:00", "2024-09-28T14:00", "2024-09-28T15:00"},
			localHours: []int{0, 1, 3, 4},
		},
		{
			// 2024-04-07 03:00 NZDT falls back to 02:00 NZST.
			name:       "fall back",
			times:      []string{"2024-04-06T12:00", "2024-04-06T13:00", "2024-04-06T14:00", "2024-04-06T15:00"},
			localHours: []int{1, 2, 2, 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings, err := NormalizeHourly(HourlySeries{Time: tt.times}, nz)
			require.NoError(t, err)
			require.Len(t, readings, len(tt.times))

			for i, r := range readings {
				assert.Equal(t, tt.localHours[i], r.Time.Hour())
				assert.Equal(t, nz, r.Time.Location())
				if i > 0 {
					assert.Equal(t, time.Hour, r.Time.Sub(readings[i-1].Time), "readings stay one hour apart")
				}
			}
		})
	}
}

func TestNormalizeHourly_MissingColumns(t *testing.T) {
	readings, err := NormalizeHourly(HourlySeries{
		Time:         []string{"2024-07-01T00:00", "2024-07-01T01:00"},
		WindSpeed10m: []*float64{f(12), f(14)},
	}, nil)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Zero(t, readings[1].SpeedHub)
	assert.Equal(t, time.UTC, readings[0].Time.Location())
}

func TestNormalizeHourly_RFC3339(t *testing.T) {
	readings, err := NormalizeHourly(HourlySeries{Time: []string{"2024-07-01T00:00:00Z"}}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, testDay, readings[0].Time)
}

func TestNormalizeHourly_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  HourlySeries
		msg  string
	}{
		{
			name: "length mismatch",
			raw: HourlySeries{
				Time:          []string{"2024-07-01T00:00", "2024-07-01T01:00"},
				WindSpeed100m: []*float64{f(1)},
			},
			msg: "wind_speed_100m",
		},
		{
			name: "unparsable timestamp",
			raw:  HourlySeries{Time: []string{"yesterday"}},
			msg:  "time[0]",
		},
		{
			name: "duplicate timestamp",
			raw:  HourlySeries{Time: []string{"2024-07-01T00:00", "2024-07-01T00:00"}},
			msg:  "not after",
		},
		{
			name: "decreasing timestamp",
			raw:  HourlySeries{Time: []string{"2024-07-01T05:00", "2024-07-01T04:00"}},
			msg:  "not after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeHourly(tt.raw, time.UTC)
			require.ErrorIs(t, err, ErrMalformedSourceData)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNormalizeHourly_Empty(t *testing.T) {
	readings, err := NormalizeHourly(HourlySeries{}, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestMergeReadings(t *testing.T) {
	historical := []Reading{{Time: at(0), SpeedRef: 1}, {Time: at(1), SpeedRef: 2}}
	forecast := []Reading{{Time: at(1), SpeedRef: 99}, {Time: at(2), SpeedRef: 3}}

	merged := MergeReadings(historical, forecast)

	require.Len(t, merged, 3)
	assert.Equal(t, 2.0, merged[1].SpeedRef, "historical wins on overlap")
	assert.Equal(t, at(2), merged[2].Time)
}
