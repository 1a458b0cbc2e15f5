package domain

import (
	"fmt"
	"strings"
)

// Severity levels for recommendations.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// Recommendation is one advisory message derived from analysis output.
type Recommendation struct {
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// SeriesRecommendations evaluates the single-location rule table. Rules are
// independent and results keep the table order.
func SeriesRecommendations(sum Summary, gusts GustAnalysis, heights HeightComparison) []Recommendation {
	recs := []Recommendation{}

	if sum.StrongPercentage > 20 {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Title:    "Frequent strong wind",
			Message:  fmt.Sprintf("%.1f%% of hours reached strong wind; plan curtailment and maintenance windows around them.", sum.StrongPercentage),
		})
	}
	if sum.ExtremePercentage > 5 {
		recs = append(recs, Recommendation{
			Severity: SeverityDanger,
			Title:    "Significant extreme wind events",
			Message:  fmt.Sprintf("%.1f%% of hours reached extreme wind; review turbine cut-out and storm protection settings.", sum.ExtremePercentage),
		})
	}
	if sum.MaxSpeedRef > 100 {
		recs = append(recs, Recommendation{
			Severity: SeverityDanger,
			Title:    "Extreme wind speed recorded",
			Message:  fmt.Sprintf("Peak speed of %.1f km/h exceeds 100 km/h; inspect structures after the event.", sum.MaxSpeedRef),
		})
	}
	if gusts.StrongPercentage > 15 {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Title:    "Frequent strong gusts",
			Message:  fmt.Sprintf("%.1f%% of hours had strong gusts; expect elevated mechanical loading.", gusts.StrongPercentage),
		})
	}
	if heights.SpeedRatio > 1.5 {
		recs = append(recs, Recommendation{
			Severity: SeverityInfo,
			Title:    "Strong wind shear",
			Message:  fmt.Sprintf("Hub-height wind is %.2fx the reference height; taller turbines would capture noticeably more energy.", heights.SpeedRatio),
		})
	}
	if sum.Count > 0 && sum.AvgSpeedRef < 20 {
		recs = append(recs, Recommendation{
			Severity: SeverityInfo,
			Title:    "Low average wind speed",
			Message:  fmt.Sprintf("Average speed of %.1f km/h is below 20 km/h; production will be reduced.", sum.AvgSpeedRef),
		})
	}
	return recs
}

// EventRecommendations evaluates the nationwide rules against an aggregate.
func EventRecommendations(agg Aggregate) []Recommendation {
	recs := []Recommendation{}

	if agg.AffectedPercentage > 50 {
		recs = append(recs, Recommendation{
			Severity: SeverityWarning,
			Title:    "Grid-wide strong wind event",
			Message:  fmt.Sprintf("%.0f%% of monitored farms recorded strong wind periods; coordinate grid balancing.", agg.AffectedPercentage),
		})
	}
	if len(agg.Ranking) > 0 && agg.Ranking[0].MaxSpeed > 100 {
		top := agg.Ranking[0]
		recs = append(recs, Recommendation{
			Severity: SeverityDanger,
			Title:    "Extreme speed at " + top.Site,
			Message:  fmt.Sprintf("%s peaked at %.1f km/h; verify turbine shutdown procedures.", top.Site, top.MaxSpeed),
		})
	}
	for _, r := range agg.Regions {
		if r.AvgSpeed > 80 {
			recs = append(recs, Recommendation{
				Severity: SeverityWarning,
				Title:    "Regional strong wind in " + r.Region,
				Message:  fmt.Sprintf("Average speed across %s farms was %.1f km/h.", r.Region, r.AvgSpeed),
			})
		}
	}
	if len(agg.Ranking) > 0 {
		n := min(3, len(agg.Ranking))
		names := make([]string, n)
		for i := range n {
			names[i] = fmt.Sprintf("%s (%.1f km/h)", agg.Ranking[i].Site, agg.Ranking[i].MaxSpeed)
		}
		recs = append(recs, Recommendation{
			Severity: SeverityInfo,
			Title:    "Most exposed farms",
			Message:  "Prioritise operational checks at " + strings.Join(names, ", ") + ".",
		})
	}
	return recs
}
