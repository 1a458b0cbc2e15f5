package httpadapter

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

func requiredFloat(q url.Values, key string) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

// parseRange reads start and end as calendar dates in loc, or as RFC 3339
// instants. A plain end date covers that whole day.
func parseRange(q url.Values, loc *time.Location) (time.Time, time.Time, error) {
	start, _, err := parseDate(q, "start", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, dateOnly, err := parseDate(q, "end", loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		end = end.AddDate(0, 0, 1).Add(-time.Hour)
	}
	return start, end, nil
}

func parseDate(q url.Values, key string, loc *time.Location) (time.Time, bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return time.Time{}, false, fmt.Errorf("missing %s", key)
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid %s: %q (want YYYY-MM-DD or RFC 3339)", key, raw)
	}
	return t.In(loc), false, nil
}

// parseThresholds overlays any of strong, extreme and min_duration onto the
// defaults. It returns the zero value when none are given so the service
// applies its own defaults.
func parseThresholds(q url.Values, defaults domain.Thresholds) (domain.Thresholds, error) {
	th := defaults
	set := false
	for key, dst := range map[string]*float64{
		"strong":       &th.Strong,
		"extreme":      &th.Extreme,
		"min_duration": &th.MinDurationHours,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Thresholds{}, fmt.Errorf("invalid %s: %q", key, raw)
		}
		*dst = v
		set = true
	}
	if !set {
		return domain.Thresholds{}, nil
	}
	return th, nil
}
