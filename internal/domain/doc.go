// Package domain models hourly wind readings for New Zealand wind-farm sites and
// the strong wind periods derived from them.
//
// # Data Source
//
// Readings come from the Open-Meteo archive and forecast APIs. Both return an
// "hourly" object of time-aligned parallel arrays, one per variable:
//
//	{"time": ["2024-07-01T00:00", ...], "wind_speed_10m": [42.1, ...], ...}
//
// Timestamps carry no offset. The provider is always queried with timezone=GMT
// because local wall-clock hours repeat or vanish across daylight-saving changes;
// [NormalizeHourly] converts each instant to the display zone (Pacific/Auckland
// by default). Missing values arrive as JSON null and are defaulted to 0.
//
// # Units and Heights
//
//	wind_speed_10m     reference height (meteorological standard), km/h
//	wind_speed_100m    hub height (turbine-relevant), km/h
//	wind_gusts_10m     gust speed at reference height, km/h
//	wind_direction_10m degrees, 0 = N, 90 = E
//
// # Strong Wind Periods
//
// A period is a maximal run of consecutive readings whose selected speed is at or
// above a threshold. The run closes on the first reading below the threshold,
// and that reading's timestamp becomes the exclusive end of the period. A run
// still open when the data ends closes on its own last reading instead, so its
// end is inclusive. Duration is measured between wall-clock timestamps, so gaps in
// the input lengthen a period rather than being ignored. See [DetectPeriods].
//
// Single-location analysis tests the reference height; the nationwide detector
// tests hub height.
//
// # Thresholds
//
//	strong   60 km/h  (default, configurable)
//	extreme 100 km/h  (default, configurable)
//	minimum  6 h      nationwide minimum period duration (0 disables the filter)
//
// # Nationwide Strong-Wind Days
//
// A calendar date counts as a strong-wind day if any site has at least one
// qualifying period starting on it. The fold is a union across sites, never a
// quorum. See [AggregateSites].
package domain
