package domain

import "math"

// compassPoints are the 16 wind-rose sectors, 22.5° apart, starting at north.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// DirectionBucket aggregates readings whose direction falls in one sector.
type DirectionBucket struct {
	Index        int
	Label        string
	Count        int
	SumSpeed     float64
	StrongCount  int
	ExtremeCount int
}

// DirectionView is the read-side form of a DirectionBucket.
type DirectionView struct {
	Direction         string  `json:"direction"`
	Degrees           float64 `json:"degrees"`
	Count             int     `json:"count"`
	Frequency         float64 `json:"frequency"`
	AvgSpeed          float64 `json:"avg_speed"`
	StrongCount       int     `json:"strong_count"`
	StrongPercentage  float64 `json:"strong_percentage"`
	ExtremeCount      int     `json:"extreme_count"`
	ExtremePercentage float64 `json:"extreme_percentage"`
}

// View derives averages and percentages; total is the reading count of the
// whole series and sets the sector frequency.
func (b DirectionBucket) View(total int) DirectionView {
	return DirectionView{
		Direction:         b.Label,
		Degrees:           float64(b.Index) * 22.5,
		Count:             b.Count,
		Frequency:         percentage(b.Count, total),
		AvgSpeed:          ratio(b.SumSpeed, float64(b.Count)),
		StrongCount:       b.StrongCount,
		StrongPercentage:  percentage(b.StrongCount, b.Count),
		ExtremeCount:      b.ExtremeCount,
		ExtremePercentage: percentage(b.ExtremeCount, b.Count),
	}
}

// DirectionIndex maps degrees to a sector: round(deg/22.5) mod 16. Values
// outside [0, 360) wrap, so 360 maps to N.
func DirectionIndex(deg float64) int {
	idx := int(math.Round(deg/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return idx
}

// DirectionLabel returns the compass label for a direction in degrees.
func DirectionLabel(deg float64) string {
	return compassPoints[DirectionIndex(deg)]
}

// DirectionalDistribution builds the 16-sector wind rose over reference speeds.
func (s *Series) DirectionalDistribution() [16]DirectionBucket {
	var rose [16]DirectionBucket
	for i := range rose {
		rose[i].Index = i
		rose[i].Label = compassPoints[i]
	}
	for _, r := range s.readings {
		b := &rose[DirectionIndex(r.Direction)]
		b.Count++
		b.SumSpeed += r.SpeedRef
		if r.SpeedRef >= s.thresholds.Strong {
			b.StrongCount++
		}
		if r.SpeedRef >= s.thresholds.Extreme {
			b.ExtremeCount++
		}
	}
	return rose
}
