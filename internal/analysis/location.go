package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// LocationRequest asks for a single-coordinate analysis over [Start, End].
// A zero Thresholds value selects the service defaults.
type LocationRequest struct {
	Site       string
	Lat        float64
	Lon        float64
	Start      time.Time
	End        time.Time
	Thresholds domain.Thresholds
}

// LocationResult is a single-series analysis plus run metadata.
type LocationResult struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Site        string    `json:"site,omitempty"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	domain.SeriesAnalysis
}

// AnalyzeLocation fetches the merged historical and forecast series for one
// coordinate and runs the single-series statistics over it.
func (s *Service) AnalyzeLocation(ctx context.Context, req LocationRequest) (res *LocationResult, err error) {
	start := s.clock.Now()
	defer func() { s.observe("location", start, err) }()

	if req.Lat < -90 || req.Lat > 90 || req.Lon < -180 || req.Lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidRequest)
	}
	if err := validateRange(req.Start, req.End); err != nil {
		return nil, err
	}
	th, err := s.resolveThresholds(req.Thresholds)
	if err != nil {
		return nil, err
	}

	readings, err := s.source.FetchReadings(ctx, req.Lat, req.Lon, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("fetch readings: %w", err)
	}

	analysis := domain.AnalyzeSeries(readings, th)
	s.metrics.PeriodsDetected.Add(float64(len(analysis.Periods)))
	s.logger.Info("location analysed",
		"lat", req.Lat,
		"lon", req.Lon,
		"readings", analysis.Summary.Count,
		"periods", len(analysis.Periods),
	)

	return &LocationResult{
		RunID:          uuid.NewString(),
		GeneratedAt:    s.clock.Now(),
		Site:           req.Site,
		Lat:            req.Lat,
		Lon:            req.Lon,
		From:           req.Start,
		To:             req.End,
		SeriesAnalysis: analysis,
	}, nil
}
