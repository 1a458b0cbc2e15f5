package domain

import (
	"errors"
	"math"
	"sort"
	"time"
)

// Thresholds are the configurable speed limits (km/h) and minimum period duration.
type Thresholds struct {
	Strong           float64 `json:"strong"`
	Extreme          float64 `json:"extreme"`
	MinDurationHours float64 `json:"min_duration_hours"`
}

// DefaultThresholds returns the standard strong/extreme limits and a 6 hour minimum.
func DefaultThresholds() Thresholds {
	return Thresholds{Strong: 60, Extreme: 100, MinDurationHours: 6}
}

// Validate rejects non-positive limits, an extreme limit at or below the strong
// limit, and a negative minimum duration.
func (t Thresholds) Validate() error {
	switch {
	case t.Strong <= 0:
		return errors.New("strong wind threshold must be positive")
	case t.Extreme <= t.Strong:
		return errors.New("extreme wind threshold must exceed the strong threshold")
	case t.MinDurationHours < 0:
		return errors.New("minimum duration must not be negative")
	}
	return nil
}

// Summary describes a whole series at a glance.
type Summary struct {
	Count             int       `json:"count"`
	StrongCount       int       `json:"strong_count"`
	StrongPercentage  float64   `json:"strong_percentage"`
	ExtremeCount      int       `json:"extreme_count"`
	ExtremePercentage float64   `json:"extreme_percentage"`
	MaxSpeedRef       float64   `json:"max_speed_ref"`
	AvgSpeedRef       float64   `json:"avg_speed_ref"`
	MaxSpeedHub       float64   `json:"max_speed_hub"`
	AvgSpeedHub       float64   `json:"avg_speed_hub"`
	MaxGust           float64   `json:"max_gust"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
}

// Bucket accumulates raw sums and maxima. Averages and percentages are derived on read.
type Bucket struct {
	Count        int
	SumRef       float64
	SumHub       float64
	SumGust      float64
	MaxRef       float64
	MaxHub       float64
	MaxGust      float64
	StrongCount  int
	ExtremeCount int
}

func (b *Bucket) add(r Reading, th Thresholds) {
	b.Count++
	b.SumRef += r.SpeedRef
	b.SumHub += r.SpeedHub
	b.SumGust += r.Gust
	b.MaxRef = math.Max(b.MaxRef, r.SpeedRef)
	b.MaxHub = math.Max(b.MaxHub, r.SpeedHub)
	b.MaxGust = math.Max(b.MaxGust, r.Gust)
	if r.SpeedRef >= th.Strong {
		b.StrongCount++
	}
	if r.SpeedRef >= th.Extreme {
		b.ExtremeCount++
	}
}

// AvgRef is the mean reference-height speed, or 0 for an empty bucket.
func (b Bucket) AvgRef() float64 { return ratio(b.SumRef, float64(b.Count)) }

// AvgHub is the mean hub-height speed.
func (b Bucket) AvgHub() float64 { return ratio(b.SumHub, float64(b.Count)) }

// AvgGust is the mean gust speed.
func (b Bucket) AvgGust() float64 { return ratio(b.SumGust, float64(b.Count)) }

// StrongPercentage is the share of readings at or above the strong threshold.
func (b Bucket) StrongPercentage() float64 {
	return percentage(b.StrongCount, b.Count)
}

// ExtremePercentage is the share of readings at or above the extreme threshold.
func (b Bucket) ExtremePercentage() float64 {
	return percentage(b.ExtremeCount, b.Count)
}

// BucketView is the read-side form of a Bucket with derived values filled in.
type BucketView struct {
	Count             int     `json:"count"`
	AvgSpeedRef       float64 `json:"avg_speed_ref"`
	AvgSpeedHub       float64 `json:"avg_speed_hub"`
	AvgGust           float64 `json:"avg_gust"`
	MaxSpeedRef       float64 `json:"max_speed_ref"`
	MaxSpeedHub       float64 `json:"max_speed_hub"`
	MaxGust           float64 `json:"max_gust"`
	StrongCount       int     `json:"strong_count"`
	StrongPercentage  float64 `json:"strong_percentage"`
	ExtremeCount      int     `json:"extreme_count"`
	ExtremePercentage float64 `json:"extreme_percentage"`
}

// View derives averages and percentages. Empty buckets report zeros.
func (b Bucket) View() BucketView {
	return BucketView{
		Count:             b.Count,
		AvgSpeedRef:       b.AvgRef(),
		AvgSpeedHub:       b.AvgHub(),
		AvgGust:           b.AvgGust(),
		MaxSpeedRef:       b.MaxRef,
		MaxSpeedHub:       b.MaxHub,
		MaxGust:           b.MaxGust,
		StrongCount:       b.StrongCount,
		StrongPercentage:  b.StrongPercentage(),
		ExtremeCount:      b.ExtremeCount,
		ExtremePercentage: b.ExtremePercentage(),
	}
}

// DailyBucket extends Bucket with the lowest reference speed seen that day.
type DailyBucket struct {
	Bucket
	minRef float64
}

func newDailyBucket() *DailyBucket {
	return &DailyBucket{minRef: math.Inf(1)}
}

func (d *DailyBucket) add(r Reading, th Thresholds) {
	d.Bucket.add(r, th)
	d.minRef = math.Min(d.minRef, r.SpeedRef)
}

// MinRef returns the lowest reference speed, or 0 if the bucket is empty.
func (d *DailyBucket) MinRef() float64 {
	if math.IsInf(d.minRef, 1) {
		return 0
	}
	return d.minRef
}

// DailyView is the read-side form of a DailyBucket.
type DailyView struct {
	BucketView
	MinSpeedRef float64 `json:"min_speed_ref"`
}

// View renders the day's bucket with its minimum reference speed.
func (d *DailyBucket) View() DailyView {
	return DailyView{BucketView: d.Bucket.View(), MinSpeedRef: d.MinRef()}
}

// GustAnalysis summarises gust readings.
type GustAnalysis struct {
	NonZeroCount      int     `json:"nonzero_count"`
	NonZeroPercentage float64 `json:"nonzero_percentage"`
	StrongCount       int     `json:"strong_count"`
	StrongPercentage  float64 `json:"strong_percentage"`
	ExtremeCount      int     `json:"extreme_count"`
	ExtremePercentage float64 `json:"extreme_percentage"`
	MaxGust           float64 `json:"max_gust"`
	AvgGust           float64 `json:"avg_gust"`
}

// HeightComparison contrasts reference-height and hub-height speeds.
type HeightComparison struct {
	AvgSpeedRef float64 `json:"avg_speed_ref"`
	AvgSpeedHub float64 `json:"avg_speed_hub"`
	MaxSpeedRef float64 `json:"max_speed_ref"`
	MaxSpeedHub float64 `json:"max_speed_hub"`
	// SpeedRatio is AvgSpeedHub / AvgSpeedRef, or 0 when AvgSpeedRef is 0.
	SpeedRatio float64 `json:"speed_ratio"`
}

// Series is one location's readings sorted ascending by time.
type Series struct {
	readings   []Reading
	thresholds Thresholds
}

// NewSeries copies and sorts readings so callers may pass merged or unordered input.
func NewSeries(readings []Reading, th Thresholds) *Series {
	return &Series{readings: sortedByTime(readings), thresholds: th}
}

// Readings returns the sorted readings.
func (s *Series) Readings() []Reading { return s.readings }

// Summary computes whole-series statistics at both heights.
func (s *Series) Summary() Summary {
	var (
		total Bucket
		sum   Summary
	)
	for _, r := range s.readings {
		total.add(r, s.thresholds)
	}
	sum.Count = total.Count
	sum.StrongCount = total.StrongCount
	sum.StrongPercentage = total.StrongPercentage()
	sum.ExtremeCount = total.ExtremeCount
	sum.ExtremePercentage = total.ExtremePercentage()
	sum.MaxSpeedRef = total.MaxRef
	sum.AvgSpeedRef = total.AvgRef()
	sum.MaxSpeedHub = total.MaxHub
	sum.AvgSpeedHub = total.AvgHub()
	sum.MaxGust = total.MaxGust
	if n := len(s.readings); n > 0 {
		sum.From = s.readings[0].Time
		sum.To = s.readings[n-1].Time
	}
	return sum
}

// HourlyDistribution buckets readings by local hour of day.
func (s *Series) HourlyDistribution() [24]Bucket {
	var hours [24]Bucket
	for _, r := range s.readings {
		hours[r.Time.Hour()].add(r, s.thresholds)
	}
	return hours
}

// DailyDistribution buckets readings by local calendar date (2006-01-02).
func (s *Series) DailyDistribution() map[string]*DailyBucket {
	days := make(map[string]*DailyBucket)
	for _, r := range s.readings {
		key := DateKey(r.Time)
		d, ok := days[key]
		if !ok {
			d = newDailyBucket()
			days[key] = d
		}
		d.add(r, s.thresholds)
	}
	return days
}

// GustAnalysis counts gusts against the series thresholds.
func (s *Series) GustAnalysis() GustAnalysis {
	var (
		g   GustAnalysis
		sum float64
	)
	for _, r := range s.readings {
		if r.Gust > 0 {
			g.NonZeroCount++
		}
		if r.Gust >= s.thresholds.Strong {
			g.StrongCount++
		}
		if r.Gust >= s.thresholds.Extreme {
			g.ExtremeCount++
		}
		sum += r.Gust
		g.MaxGust = math.Max(g.MaxGust, r.Gust)
	}
	n := len(s.readings)
	g.NonZeroPercentage = percentage(g.NonZeroCount, n)
	g.StrongPercentage = percentage(g.StrongCount, n)
	g.ExtremePercentage = percentage(g.ExtremeCount, n)
	g.AvgGust = ratio(sum, float64(n))
	return g
}

// HeightComparison contrasts reference and hub-height speeds.
func (s *Series) HeightComparison() HeightComparison {
	var b Bucket
	for _, r := range s.readings {
		b.add(r, s.thresholds)
	}
	return HeightComparison{
		AvgSpeedRef: b.AvgRef(),
		AvgSpeedHub: b.AvgHub(),
		MaxSpeedRef: b.MaxRef,
		MaxSpeedHub: b.MaxHub,
		SpeedRatio:  ratio(b.AvgHub(), b.AvgRef()),
	}
}

// Periods detects reference-height strong wind periods over the series.
func (s *Series) Periods() []Period {
	return DetectPeriods("", s.readings, DetectOptions{
		Threshold:        s.thresholds.Strong,
		MinDurationHours: s.thresholds.MinDurationHours,
		Field:            SpeedAtReference,
	})
}

// SeriesAnalysis is the complete single-location result.
type SeriesAnalysis struct {
	Thresholds       Thresholds           `json:"thresholds"`
	Summary          Summary              `json:"summary"`
	Periods          []Period             `json:"periods"`
	Hourly           []HourView           `json:"hourly"`
	Daily            map[string]DailyView `json:"daily"`
	Directional      []DirectionView      `json:"directional"`
	Gusts            GustAnalysis         `json:"gusts"`
	Heights          HeightComparison     `json:"heights"`
	Recommendations  []Recommendation     `json:"recommendations"`
	StrongWindHours  float64              `json:"strong_wind_hours"`
	LongestPeriodHrs float64              `json:"longest_period_hours"`
}

// HourView is one hour-of-day bucket with its hour attached.
type HourView struct {
	Hour int `json:"hour"`
	BucketView
}

// AnalyzeSeries runs every single-series statistic and the recommendation rules.
func AnalyzeSeries(readings []Reading, th Thresholds) SeriesAnalysis {
	s := NewSeries(readings, th)

	hours := s.HourlyDistribution()
	hourly := make([]HourView, len(hours))
	for h, b := range hours {
		hourly[h] = HourView{Hour: h, BucketView: b.View()}
	}

	days := s.DailyDistribution()
	daily := make(map[string]DailyView, len(days))
	for k, d := range days {
		daily[k] = d.View()
	}

	rose := s.DirectionalDistribution()
	directional := make([]DirectionView, len(rose))
	for i, b := range rose {
		directional[i] = b.View(len(s.readings))
	}

	periods := s.Periods()
	var longest float64
	for _, p := range periods {
		longest = math.Max(longest, p.DurationHours)
	}

	a := SeriesAnalysis{
		Thresholds:       th,
		Summary:          s.Summary(),
		Periods:          periods,
		Hourly:           hourly,
		Daily:            daily,
		Directional:      directional,
		Gusts:            s.GustAnalysis(),
		Heights:          s.HeightComparison(),
		StrongWindHours:  TotalDurationHours(periods),
		LongestPeriodHrs: longest,
	}
	a.Recommendations = SeriesRecommendations(a.Summary, a.Gusts, a.Heights)
	return a
}

// DateKey formats a timestamp's calendar date in its own location.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func sortedByTime(readings []Reading) []Reading {
	out := make([]Reading, len(readings))
	copy(out, readings)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// ratio divides and returns 0 for a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percentage(part, total int) float64 {
	return ratio(float64(part), float64(total)) * 100
}
