package domain

import "time"

// SpeedField selects which reading speed the detector compares against the threshold.
type SpeedField int

const (
	// SpeedAtReference tests the 10 m speed.
	SpeedAtReference SpeedField = iota
	// SpeedAtHub tests the 100 m speed.
	SpeedAtHub
)

func (f SpeedField) speed(r Reading) float64 {
	if f == SpeedAtHub {
		return r.SpeedHub
	}
	return r.SpeedRef
}

// DetectOptions configures a detector run. MinDurationHours of 0 disables the
// duration filter.
type DetectOptions struct {
	Threshold        float64
	MinDurationHours float64
	Field            SpeedField
}

// Period is one maximal run of readings at or above the threshold.
type Period struct {
	Site          string    `json:"site,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	DurationHours float64   `json:"duration_hours"`
	Readings      []Reading `json:"readings"`
	MaxSpeed      float64   `json:"max_speed"`
	AvgSpeed      float64   `json:"avg_speed"`
}

// DetectPeriods scans readings once, in the order given, and returns every
// maximal qualifying run that satisfies the minimum duration. Callers supply
// readings sorted ascending by time.
func DetectPeriods(site string, readings []Reading, opts DetectOptions) []Period {
	var (
		periods []Period
		active  []Reading
	)

	for _, r := range readings {
		if opts.Field.speed(r) >= opts.Threshold {
			active = append(active, r)
			continue
		}
		if active != nil {
			if p, ok := closePeriod(site, active, r.Time, opts); ok {
				periods = append(periods, p)
			}
			active = nil
		}
	}

	if active != nil {
		if p, ok := closePeriod(site, active, active[len(active)-1].Time, opts); ok {
			periods = append(periods, p)
		}
	}
	return periods
}

// closePeriod builds the complete period before applying the duration filter so
// its statistics always cover the full run.
func closePeriod(site string, run []Reading, end time.Time, opts DetectOptions) (Period, bool) {
	p := Period{
		Site:          site,
		Start:         run[0].Time,
		End:           end,
		DurationHours: end.Sub(run[0].Time).Hours(),
		Readings:      run,
	}

	var sum float64
	for _, r := range run {
		s := opts.Field.speed(r)
		sum += s
		if s > p.MaxSpeed {
			p.MaxSpeed = s
		}
	}
	p.AvgSpeed = sum / float64(len(run))

	if opts.MinDurationHours > 0 && p.DurationHours < opts.MinDurationHours {
		return Period{}, false
	}
	return p, true
}

// TotalDurationHours sums the durations of the given periods.
func TotalDurationHours(periods []Period) float64 {
	var total float64
	for _, p := range periods {
		total += p.DurationHours
	}
	return total
}
