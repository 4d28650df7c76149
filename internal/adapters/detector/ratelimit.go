package detector

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/okian/jamal/internal/domain/model"
)

// rateLimited paces calls to the wrapped detector with a token bucket.
type rateLimited struct {
	next    Detector
	limiter *rate.Limiter
}

// RateLimited wraps next so calls wait for a token. limit is calls per
// second and burst allows short spikes above it. A non-positive limit
// returns next unchanged.
func RateLimited(next Detector, limit rate.Limit, burst int) Detector {
	if limit <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Detect waits for rate limit permission before forwarding the request.
func (r *rateLimited) Detect(ctx context.Context, req Request) (model.Detection, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return model.Detection{}, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Detect(ctx, req)
}
