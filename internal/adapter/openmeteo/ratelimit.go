package openmeteo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// RateLimitedSource wraps a Source so calls proceed at no more than rps per
// second, with bursts up to burst.
type RateLimitedSource struct {
	inner   Source
	limiter *rate.Limiter
}

// NewRateLimitedSource creates a rate-limited source. rps may be fractional.
func NewRateLimitedSource(inner Source, rps float64, burst int) *RateLimitedSource {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSource{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchReadings waits for a rate limiter token or context cancellation, then forwards.
func (r *RateLimitedSource) FetchReadings(ctx context.Context, lat, lon float64, start, end time.Time) ([]domain.Reading, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.inner.FetchReadings(ctx, lat, lon, start, end)
}

// CheckReadiness delegates to the wrapped source.
func (r *RateLimitedSource) CheckReadiness(ctx context.Context) error {
	return checkInner(ctx, r.inner)
}

var (
	_ Source = (*Client)(nil)
	_ Source = (*CachedSource)(nil)
	_ Source = (*RateLimitedSource)(nil)
)
