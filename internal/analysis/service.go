// Package analysis orchestrates reading fetches and the domain computations
// for single locations, the nationwide site catalog, and time-window re-analysis.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wind-period-service/internal/domain"
	"github.com/couchcryptid/wind-period-service/internal/observability"
	"github.com/couchcryptid/wind-period-service/internal/sites"
)

// ErrInvalidRequest is returned when request parameters fail validation.
var ErrInvalidRequest = errors.New("invalid request")

// maxRangeDays bounds a single request's date range.
const maxRangeDays = 366

// ReadingSource fetches normalized hourly readings for a coordinate. An empty
// slice means the provider had no data; an error means the fetch failed.
type ReadingSource interface {
	FetchReadings(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.Reading, error)
}

// PeriodPublisher receives the periods detected by a nationwide run.
type PeriodPublisher interface {
	PublishPeriods(ctx context.Context, runID string, periods []domain.Period) error
}

type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Thresholds  domain.Thresholds
	Location    *time.Location
	Concurrency int
	SiteTimeout time.Duration
	Clock       clockwork.Clock
	Publisher   PeriodPublisher
}

// Service runs analyses against a reading source and a fixed site catalog.
type Service struct {
	source      ReadingSource
	catalog     *sites.Catalog
	publisher   PeriodPublisher
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	thresholds  domain.Thresholds
	location    *time.Location
	concurrency int
	siteTimeout time.Duration
}

// New creates a Service. The catalog is shared read-only by every analysis.
func New(source ReadingSource, catalog *sites.Catalog, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	s := &Service{
		source:      source,
		catalog:     catalog,
		publisher:   opts.Publisher,
		clock:       opts.Clock,
		logger:      logger,
		metrics:     metrics,
		thresholds:  opts.Thresholds,
		location:    opts.Location,
		concurrency: opts.Concurrency,
		siteTimeout: opts.SiteTimeout,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.thresholds == (domain.Thresholds{}) {
		s.thresholds = domain.DefaultThresholds()
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.concurrency <= 0 {
		s.concurrency = 4
	}
	if s.siteTimeout <= 0 {
		s.siteTimeout = 30 * time.Second
	}
	return s
}

// Thresholds returns the service defaults applied when a request omits them.
func (s *Service) Thresholds() domain.Thresholds { return s.thresholds }

// Location returns the time zone used for calendar dates and window text.
func (s *Service) Location() *time.Location { return s.location }

// Sites returns the catalog sites in order.
func (s *Service) Sites() []domain.Site {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Sites()
}

// Lookup resolves a catalog site by name.
func (s *Service) Lookup(name string) (domain.Site, bool) {
	if s.catalog == nil {
		return domain.Site{}, false
	}
	return s.catalog.Lookup(name)
}

// CheckReadiness reports an error while the catalog is empty or the reading
// source reports itself unavailable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.catalog == nil || s.catalog.Len() == 0 {
		return errors.New("site catalog is empty")
	}
	if rc, ok := s.source.(readinessChecker); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}

func (s *Service) resolveThresholds(th domain.Thresholds) (domain.Thresholds, error) {
	if th == (domain.Thresholds{}) {
		return s.thresholds, nil
	}
	if err := th.Validate(); err != nil {
		return th, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return th, nil
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRequest)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end is before start", ErrInvalidRequest)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return fmt.Errorf("%w: range exceeds %d days", ErrInvalidRequest, maxRangeDays)
	}
	return nil
}

// forEachSite runs fn once per catalog site, at most s.concurrency at a time,
// each under its own timeout. fn must only write state owned by index i.
func (s *Service) forEachSite(ctx context.Context, list []domain.Site, fn func(ctx context.Context, i int, site domain.Site) error) []error {
	errs := make([]error, len(list))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, site := range list {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			siteCtx, cancel := context.WithTimeout(ctx, s.siteTimeout)
			defer cancel()

			start := s.clock.Now()
			errs[i] = fn(siteCtx, i, site)
			s.metrics.SiteFetchDuration.Observe(s.clock.Since(start).Seconds())
			if errs[i] != nil {
				s.metrics.SiteFetchErrors.Inc()
				s.logger.Warn("site analysis failed", "site", site.Name, "error", errs[i])
			}
		}()
	}
	wg.Wait()
	return errs
}

func (s *Service) observe(kind string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.Analyses.WithLabelValues(kind, outcome).Inc()
	s.metrics.AnalysisDuration.WithLabelValues(kind).Observe(s.clock.Since(start).Seconds())
}
