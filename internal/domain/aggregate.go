package domain

import (
	"math"
	"sort"
	"time"
)

// Site is a monitored wind farm.
type Site struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Region   string  `json:"region"`
	Capacity float64 `json:"capacity"` // MW
	Operator string  `json:"operator"`
}

// SiteResult is the outcome of fetching and analysing one site. A non-empty
// Error marks a failed site; its other fields are zero.
type SiteResult struct {
	Site         Site     `json:"site"`
	Periods      []Period `json:"periods"`
	ReadingCount int      `json:"reading_count"`
	MaxSpeed     float64  `json:"max_speed"`
	AvgSpeed     float64  `json:"avg_speed"`
	AvgSpeedRef  float64  `json:"avg_speed_ref"`
	HeightRatio  float64  `json:"height_ratio"`
	StrongHours  float64  `json:"strong_hours"`
	Error        string   `json:"error,omitempty"`
}

// Failed reports whether the site could not be analysed.
func (r SiteResult) Failed() bool { return r.Error != "" }

// Affected reports whether the site recorded at least one qualifying period.
func (r SiteResult) Affected() bool { return !r.Failed() && len(r.Periods) > 0 }

// SummarizeSite runs the hub-height detector over one site's readings and
// computes the per-site figures the aggregate folds over.
func SummarizeSite(site Site, readings []Reading, th Thresholds) SiteResult {
	res := SiteResult{
		Site: site,
		Periods: DetectPeriods(site.Name, readings, DetectOptions{
			Threshold:        th.Strong,
			MinDurationHours: th.MinDurationHours,
			Field:            SpeedAtHub,
		}),
		ReadingCount: len(readings),
	}

	var sumHub, sumRef float64
	for _, r := range readings {
		sumHub += r.SpeedHub
		sumRef += r.SpeedRef
		res.MaxSpeed = math.Max(res.MaxSpeed, r.SpeedHub)
	}
	res.AvgSpeed = ratio(sumHub, float64(len(readings)))
	res.AvgSpeedRef = ratio(sumRef, float64(len(readings)))
	res.HeightRatio = ratio(res.AvgSpeed, res.AvgSpeedRef)
	res.StrongHours = TotalDurationHours(res.Periods)
	return res
}

// DailyStrongWindRecord groups every period that started on one calendar date.
type DailyStrongWindRecord struct {
	Date          string   `json:"date"`
	SiteNames     []string `json:"site_names"`
	TotalDuration float64  `json:"total_duration_hours"`
	MaxSpeed      float64  `json:"max_speed"`
	Periods       []Period `json:"periods"`
}

// RankedSite is one row of the site ranking.
type RankedSite struct {
	Rank        int     `json:"rank"`
	Site        string  `json:"site"`
	Region      string  `json:"region"`
	MaxSpeed    float64 `json:"max_speed"`
	AvgSpeed    float64 `json:"avg_speed"`
	PeriodCount int     `json:"period_count"`
	StrongHours float64 `json:"strong_hours"`
}

// CrossSiteStats describes the spread of per-site average speeds.
type CrossSiteStats struct {
	SiteCount   int     `json:"site_count"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	StdDev      float64 `json:"std_dev"`
	HeightRatio float64 `json:"height_ratio"`
}

// RegionStats aggregates sites sharing a region.
type RegionStats struct {
	Region             string   `json:"region"`
	Sites              []string `json:"sites"`
	AffectedSites      int      `json:"affected_sites"`
	AffectedPercentage float64  `json:"affected_percentage"`
	AvgSpeed           float64  `json:"avg_speed"`
	MaxSpeed           float64  `json:"max_speed"`
}

// SiteError annotates a site that failed within a batch.
type SiteError struct {
	Site  string `json:"site"`
	Error string `json:"error"`
}

// Aggregate is the folded nationwide result.
type Aggregate struct {
	SitesTotal         int                     `json:"sites_total"`
	SitesSucceeded     int                     `json:"sites_succeeded"`
	SitesAffected      int                     `json:"sites_affected"`
	AffectedPercentage float64                 `json:"affected_percentage"`
	StrongWindDays     []DailyStrongWindRecord `json:"strong_wind_days"`
	Ranking            []RankedSite            `json:"ranking"`
	Stats              CrossSiteStats          `json:"stats"`
	Regions            []RegionStats           `json:"regions"`
	Errors             []SiteError             `json:"errors"`
	Recommendations    []Recommendation        `json:"recommendations"`
}

// AggregateSites folds per-site results. Failed sites only contribute an error
// annotation; every other figure is computed over the successful sites.
func AggregateSites(results []SiteResult) Aggregate {
	agg := Aggregate{
		SitesTotal: len(results),
		Errors:     []SiteError{},
	}

	ok := make([]SiteResult, 0, len(results))
	for _, r := range results {
		if r.Failed() {
			agg.Errors = append(agg.Errors, SiteError{Site: r.Site.Name, Error: r.Error})
			continue
		}
		ok = append(ok, r)
		if r.Affected() {
			agg.SitesAffected++
		}
	}
	agg.SitesSucceeded = len(ok)
	agg.AffectedPercentage = percentage(agg.SitesAffected, len(ok))

	agg.StrongWindDays = StrongWindDays(ok)
	agg.Ranking = rankSites(ok)
	agg.Stats = crossSiteStats(ok)
	agg.Regions = groupRegions(ok)
	agg.Recommendations = EventRecommendations(agg)
	return agg
}

// StrongWindDays unions periods across sites by the calendar date of their
// start. A date appears if any site has a period starting on it.
func StrongWindDays(results []SiteResult) []DailyStrongWindRecord {
	byDate := make(map[string]*DailyStrongWindRecord)
	names := make(map[string]map[string]struct{})

	for _, r := range results {
		for _, p := range r.Periods {
			key := DateKey(p.Start)
			rec, ok := byDate[key]
			if !ok {
				rec = &DailyStrongWindRecord{Date: key}
				byDate[key] = rec
				names[key] = make(map[string]struct{})
			}
			if _, seen := names[key][r.Site.Name]; !seen {
				names[key][r.Site.Name] = struct{}{}
				rec.SiteNames = append(rec.SiteNames, r.Site.Name)
			}
			rec.TotalDuration += p.DurationHours
			rec.MaxSpeed = math.Max(rec.MaxSpeed, p.MaxSpeed)
			rec.Periods = append(rec.Periods, p)
		}
	}

	days := make([]DailyStrongWindRecord, 0, len(byDate))
	for _, rec := range byDate {
		sort.Strings(rec.SiteNames)
		sort.SliceStable(rec.Periods, func(i, j int) bool { return rec.Periods[i].Start.Before(rec.Periods[j].Start) })
		days = append(days, *rec)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func rankSites(results []SiteResult) []RankedSite {
	sorted := make([]SiteResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MaxSpeed > sorted[j].MaxSpeed })

	ranking := make([]RankedSite, len(sorted))
	for i, r := range sorted {
		ranking[i] = RankedSite{
			Rank:        i + 1,
			Site:        r.Site.Name,
			Region:      r.Site.Region,
			MaxSpeed:    r.MaxSpeed,
			AvgSpeed:    r.AvgSpeed,
			PeriodCount: len(r.Periods),
			StrongHours: r.StrongHours,
		}
	}
	return ranking
}

func crossSiteStats(results []SiteResult) CrossSiteStats {
	var avgs []float64
	var sumRef float64
	for _, r := range results {
		if r.AvgSpeed == 0 {
			continue
		}
		avgs = append(avgs, r.AvgSpeed)
		sumRef += r.AvgSpeedRef
	}
	mean := Mean(avgs)
	return CrossSiteStats{
		SiteCount:   len(avgs),
		Mean:        mean,
		Median:      Median(avgs),
		StdDev:      StdDev(avgs),
		HeightRatio: ratio(mean, ratio(sumRef, float64(len(avgs)))),
	}
}

// groupRegions averages only sites with a nonzero average, like crossSiteStats,
// so sites without readings do not dilute a region.
func groupRegions(results []SiteResult) []RegionStats {
	byRegion := make(map[string][]SiteResult)
	for _, r := range results {
		byRegion[r.Site.Region] = append(byRegion[r.Site.Region], r)
	}

	regions := make([]RegionStats, 0, len(byRegion))
	for name, members := range byRegion {
		rs := RegionStats{Region: name}
		var avgs []float64
		for _, m := range members {
			rs.Sites = append(rs.Sites, m.Site.Name)
			if m.Affected() {
				rs.AffectedSites++
			}
			if m.AvgSpeed != 0 {
				avgs = append(avgs, m.AvgSpeed)
			}
			rs.MaxSpeed = math.Max(rs.MaxSpeed, m.MaxSpeed)
		}
		rs.AvgSpeed = Mean(avgs)
		rs.AffectedPercentage = percentage(rs.AffectedSites, len(members))
		regions = append(regions, rs)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Region < regions[j].Region })
	return regions
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return ratio(sum, float64(len(values)))
}

// Median returns the middle value, or the mean of the two middle values for an
// even count. It returns 0 for no values and does not modify its input.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDev returns the population standard deviation, or 0 for no values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// NationwideResult wraps an aggregate with the run metadata and per-site detail.
type NationwideResult struct {
	RunID       string       `json:"run_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	From        time.Time    `json:"from"`
	To          time.Time    `json:"to"`
	Thresholds  Thresholds   `json:"thresholds"`
	Sites       []SiteResult `json:"sites"`
	Aggregate
}
