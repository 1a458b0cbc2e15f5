package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// NationwideRequest asks for a catalog-wide analysis over [Start, End].
// A zero Thresholds value selects the service defaults.
type NationwideRequest struct {
	Start      time.Time
	End        time.Time
	Thresholds domain.Thresholds
}

// AnalyzeNationwide fetches every catalog site concurrently, runs the
// hub-height detector per site, and folds the results. A failing site is
// recorded in the result and never aborts its siblings.
func (s *Service) AnalyzeNationwide(ctx context.Context, req NationwideRequest) (res *domain.NationwideResult, err error) {
	start := s.clock.Now()
	defer func() { s.observe("nationwide", start, err) }()

	if err := validateRange(req.Start, req.End); err != nil {
		return nil, err
	}
	th, err := s.resolveThresholds(req.Thresholds)
	if err != nil {
		return nil, err
	}
	list := s.Sites()
	if len(list) == 0 {
		return nil, fmt.Errorf("no sites: %w", domain.ErrEmptyInput)
	}

	results := make([]domain.SiteResult, len(list))
	errs := s.forEachSite(ctx, list, func(ctx context.Context, i int, site domain.Site) error {
		readings, err := s.source.FetchReadings(ctx, site.Lat, site.Lon, req.Start, req.End)
		if err != nil {
			return fmt.Errorf("fetch readings: %w", err)
		}
		results[i] = domain.SummarizeSite(site, readings, th)
		s.metrics.PeriodsDetected.Add(float64(len(results[i].Periods)))
		return nil
	})
	for i, e := range errs {
		if e != nil {
			results[i] = domain.SiteResult{Site: list[i], Error: e.Error()}
		}
	}

	runID := uuid.NewString()
	out := &domain.NationwideResult{
		RunID:       runID,
		GeneratedAt: s.clock.Now(),
		From:        req.Start,
		To:          req.End,
		Thresholds:  th,
		Sites:       results,
		Aggregate:   domain.AggregateSites(results),
	}

	s.logger.Info("nationwide analysis complete",
		"run_id", runID,
		"sites", out.SitesTotal,
		"failed", len(out.Errors),
		"affected", out.SitesAffected,
		"days", len(out.StrongWindDays),
	)

	s.publish(ctx, runID, results)
	return out, nil
}

// publish forwards every detected period to the publisher, if one is set.
// Failures are logged and counted; the analysis result is still returned.
func (s *Service) publish(ctx context.Context, runID string, results []domain.SiteResult) {
	if s.publisher == nil {
		return
	}
	var periods []domain.Period
	for _, r := range results {
		periods = append(periods, r.Periods...)
	}
	if len(periods) == 0 {
		return
	}
	if err := s.publisher.PublishPeriods(ctx, runID, periods); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Error("publish periods failed", "run_id", runID, "periods", len(periods), "error", err)
		return
	}
	s.metrics.PeriodsPublished.Add(float64(len(periods)))
}
