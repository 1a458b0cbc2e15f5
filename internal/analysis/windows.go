package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// ReanalyzeWindows fetches each catalog site once per fetch span (see
// fetchSpans) and reports the mean reference speed inside every window. A site
// whose fetch fails gets a row of nulls and an error annotation.
func (s *Service) ReanalyzeWindows(ctx context.Context, windows []domain.Window) (res *domain.WindowMatrix, err error) {
	start := s.clock.Now()
	defer func() { s.observe("windows", start, err) }()

	if err := domain.ValidateWindows(windows); err != nil {
		if !errors.Is(err, domain.ErrEmptyInput) {
			err = fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, err
	}
	list := s.Sites()
	if len(list) == 0 {
		return nil, fmt.Errorf("no sites: %w", domain.ErrEmptyInput)
	}

	for _, w := range windows {
		if err := validateRange(w.Start, w.End); err != nil {
			return nil, fmt.Errorf("window %s: %w", w, err)
		}
	}
	spans := fetchSpans(windows)

	rows := make([]domain.WindowRow, len(list))
	errs := s.forEachSite(ctx, list, func(ctx context.Context, i int, site domain.Site) error {
		var readings []domain.Reading
		for _, span := range spans {
			r, err := s.source.FetchReadings(ctx, site.Lat, site.Lon, span.Start, span.End)
			if err != nil {
				return fmt.Errorf("fetch readings: %w", err)
			}
			readings = domain.MergeReadings(readings, r)
		}
		rows[i] = domain.WindowRow{Site: site.Name, Averages: domain.WindowAverages(readings, windows)}
		return nil
	})
	for i, e := range errs {
		if e != nil {
			rows[i] = domain.WindowRow{
				Site:     list[i].Name,
				Averages: make([]*float64, len(windows)),
				Error:    e.Error(),
			}
		}
	}

	m := domain.BuildWindowMatrix(windows, rows)
	m.RunID = uuid.NewString()
	m.GeneratedAt = s.clock.Now()

	s.logger.Info("window re-analysis complete",
		"run_id", m.RunID,
		"windows", len(windows),
		"sites", len(rows),
		"failed", len(m.Errors),
		"cells", m.Overall.Cells,
	)
	return &m, nil
}

// fetchSpans groups windows, in start order, into the fewest spans no longer
// than maxRangeDays. Windows close together share one fetch; distant ones get
// their own.
func fetchSpans(windows []domain.Window) []domain.Window {
	sorted := slices.Clone(windows)
	slices.SortStableFunc(sorted, func(a, b domain.Window) int { return a.Start.Compare(b.Start) })

	limit := maxRangeDays * 24 * time.Hour
	spans := []domain.Window{sorted[0]}
	for _, w := range sorted[1:] {
		cur := &spans[len(spans)-1]
		end := cur.End
		if w.End.After(end) {
			end = w.End
		}
		if end.Sub(cur.Start) <= limit {
			cur.End = end
			continue
		}
		spans = append(spans, w)
	}
	return spans
}
