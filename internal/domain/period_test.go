package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

// hourly builds one reading per hour from start, with the same speed at both heights.
func hourly(start time.Time, speeds ...float64) []Reading {
	out := make([]Reading, len(speeds))
	for i, s := range speeds {
		out[i] = Reading{Time: start.Add(time.Duration(i) * time.Hour), SpeedRef: s, SpeedHub: s}
	}
	return out
}

func at(hour int) time.Time { return testDay.Add(time.Duration(hour) * time.Hour) }

func exampleDay() []Reading {
	speeds := make([]float64, 24)
	for h := range speeds {
		speeds[h] = 50
		if h >= 2 && h <= 7 {
			speeds[h] = 70
		}
	}
	return hourly(testDay, speeds...)
}

func TestDetectPeriods_ExampleDay(t *testing.T) {
	periods := DetectPeriods("Te Apiti", exampleDay(), DetectOptions{Threshold: 60, MinDurationHours: 6, Field: SpeedAtHub})

	require.Len(t, periods, 1)
	p := periods[0]
	assert.Equal(t, "Te Apiti", p.Site)
	assert.Equal(t, at(2), p.Start)
	assert.Equal(t, at(8), p.End)
	assert.InDelta(t, 6.0, p.DurationHours, 1e-9)
	assert.Equal(t, 70.0, p.MaxSpeed)
	assert.Equal(t, 70.0, p.AvgSpeed)
	assert.Len(t, p.Readings, 6)
	assert.Equal(t, p.Start, p.Readings[0].Time)
}

func TestDetectPeriods_MinDurationRejects(t *testing.T) {
	periods := DetectPeriods("", exampleDay(), DetectOptions{Threshold: 60, MinDurationHours: 7, Field: SpeedAtHub})
	assert.Empty(t, periods)
}

func TestDetectPeriods_Cases(t *testing.T) {
	tests := []struct {
		name      string
		readings  []Reading
		opts      DetectOptions
		wantCount int
		wantStart time.Time
		wantEnd   time.Time
		wantHours float64
	}{
		{
			name:      "run reaching data end closes on last reading",
			readings:  hourly(testDay, 50, 70, 70),
			opts:      DetectOptions{Threshold: 60},
			wantCount: 1,
			wantStart: at(1),
			wantEnd:   at(2),
			wantHours: 1,
		},
		{
			name:      "single reading closed mid-scan measures to the breaking reading",
			readings:  hourly(testDay, 70, 50),
			opts:      DetectOptions{Threshold: 60},
			wantCount: 1,
			wantStart: at(0),
			wantEnd:   at(1),
			wantHours: 1,
		},
		{
			name:      "single final reading has zero duration",
			readings:  hourly(testDay, 50, 70),
			opts:      DetectOptions{Threshold: 60},
			wantCount: 1,
			wantStart: at(1),
			wantEnd:   at(1),
			wantHours: 0,
		},
		{
			name:      "zero-duration period fails positive minimum",
			readings:  hourly(testDay, 50, 70),
			opts:      DetectOptions{Threshold: 60, MinDurationHours: 0.5},
			wantCount: 0,
		},
		{
			name:      "threshold comparison is inclusive",
			readings:  hourly(testDay, 60, 60, 59.9),
			opts:      DetectOptions{Threshold: 60},
			wantCount: 1,
			wantStart: at(0),
			wantEnd:   at(2),
			wantHours: 2,
		},
		{
			name: "gaps lengthen duration",
			readings: []Reading{
				{Time: at(0), SpeedRef: 70},
				{Time: at(5), SpeedRef: 70},
				{Time: at(6), SpeedRef: 40},
			},
			opts:      DetectOptions{Threshold: 60, MinDurationHours: 6},
			wantCount: 1,
			wantStart: at(0),
			wantEnd:   at(6),
			wantHours: 6,
		},
		{
			name:      "nothing qualifies",
			readings:  hourly(testDay, 10, 20, 30),
			opts:      DetectOptions{Threshold: 60},
			wantCount: 0,
		},
		{
			name:      "empty input",
			readings:  nil,
			opts:      DetectOptions{Threshold: 60},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			periods := DetectPeriods("", tt.readings, tt.opts)
			require.Len(t, periods, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			assert.Equal(t, tt.wantStart, periods[0].Start)
			assert.Equal(t, tt.wantEnd, periods[0].End)
			assert.InDelta(t, tt.wantHours, periods[0].DurationHours, 1e-9)
		})
	}
}

func TestDetectPeriods_FieldSelection(t *testing.T) {
	readings := []Reading{
		{Time: at(0), SpeedRef: 40, SpeedHub: 65},
		{Time: at(1), SpeedRef: 45, SpeedHub: 70},
		{Time: at(2), SpeedRef: 30, SpeedHub: 50},
	}

	hub := DetectPeriods("", readings, DetectOptions{Threshold: 60, Field: SpeedAtHub})
	require.Len(t, hub, 1)
	assert.Equal(t, 70.0, hub[0].MaxSpeed)
	assert.InDelta(t, 67.5, hub[0].AvgSpeed, 1e-9)

	ref := DetectPeriods("", readings, DetectOptions{Threshold: 60, Field: SpeedAtReference})
	assert.Empty(t, ref)
}

func TestDetectPeriods_StatsCoverWholeRunBeforeFilter(t *testing.T) {
	readings := hourly(testDay, 61, 90, 62, 10)
	periods := DetectPeriods("", readings, DetectOptions{Threshold: 60, MinDurationHours: 3})
	require.Len(t, periods, 1)
	assert.Equal(t, 90.0, periods[0].MaxSpeed)
	assert.InDelta(t, 71.0, periods[0].AvgSpeed, 1e-9)
}

func TestDetectPeriods_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := range 50 {
		speeds := make([]float64, 200)
		for i := range speeds {
			speeds[i] = rng.Float64() * 120
		}
		readings := hourly(testDay, speeds...)
		opts := DetectOptions{Threshold: 60}

		periods := DetectPeriods("", readings, opts)
		index := make(map[time.Time]int, len(readings))
		for i, r := range readings {
			index[r.Time] = i
		}

		qualifyingRuns := 0
		for i, r := range readings {
			if r.SpeedRef >= 60 && (i == 0 || readings[i-1].SpeedRef < 60) {
				qualifyingRuns++
			}
		}
		assert.Len(t, periods, qualifyingRuns, "trial %d: every maximal run is emitted", trial)

		for _, p := range periods {
			require.NotEmpty(t, p.Readings)
			assert.Equal(t, p.Start, p.Readings[0].Time)
			for _, r := range p.Readings {
				assert.GreaterOrEqual(t, r.SpeedRef, 60.0)
			}
			first := index[p.Readings[0].Time]
			last := index[p.Readings[len(p.Readings)-1].Time]
			if first > 0 {
				assert.Less(t, readings[first-1].SpeedRef, 60.0, "trial %d: run is maximal on the left", trial)
			}
			if last+1 < len(readings) {
				assert.Less(t, readings[last+1].SpeedRef, 60.0, "trial %d: run is maximal on the right", trial)
			}
		}

		prev := len(periods)
		for _, minHours := range []float64{1, 2, 3, 5, 8} {
			opts.MinDurationHours = minHours
			n := len(DetectPeriods("", readings, opts))
			assert.LessOrEqual(t, n, prev, "trial %d: raising the minimum never adds periods", trial)
			prev = n
		}
	}
}

func TestTotalDurationHours(t *testing.T) {
	periods := []Period{{DurationHours: 6}, {DurationHours: 2.5}}
	assert.InDelta(t, 8.5, TotalDurationHours(periods), 1e-9)
	assert.Zero(t, TotalDurationHours(nil))
}
