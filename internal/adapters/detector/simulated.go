package detector

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
)

// Default simulation constants.
const (
	defaultMinLatency = 80 * time.Millisecond
	defaultMaxLatency = 150 * time.Millisecond
	defaultSeed       = 42
)

// scoreRange is the uniform range a simulated region score is drawn from.
type scoreRange struct {
	region   model.Region
	min, max float64
}

// Ranges observed from the placeholder detector this service replaces.
var simulatedRanges = []scoreRange{ //nolint:gochecknoglobals // fixed simulation table
	{model.RegionHead, 70, 100},
	{model.RegionNeck, 65, 100},
	{model.RegionBody, 75, 100},
	{model.RegionSize, 80, 100},
}

const (
	minConfidence = 85.0
	maxConfidence = 95.0
)

// Option applies a configuration option to the Simulated detector.
type Option func(*Simulated)

// WithLatencyRange sets the simulated latency range. A zero range disables
// the delay.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Simulated) {
		if minLatency >= 0 && maxLatency >= minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// WithSeed seeds the random source for reproducible output.
func WithSeed(seed uint64) Option {
	return func(s *Simulated) {
		s.rng = rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // simulation, not security
	}
}

// Simulated stands in for the real detector. It waits a random latency and
// draws sub-scores from fixed per-region ranges. The category is left for
// the scoring layer to assign.
type Simulated struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulated detector with configuration options.
func NewSimulated(opts ...Option) *Simulated {
	s := &Simulated{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewPCG(defaultSeed, defaultSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect returns simulated sub-scores for req.
func (s *Simulated) Detect(ctx context.Context, req Request) (model.Detection, error) {
	if req.ImageURL == "" {
		return model.Detection{}, ErrNoImage
	}
	start := time.Now()

	s.mu.Lock()
	latency := s.minLatency
	if span := s.maxLatency - s.minLatency; span > 0 {
		latency += time.Duration(s.rng.Int64N(int64(span)))
	}
	scores := make(model.SubScores, len(simulatedRanges))
	for _, r := range simulatedRanges {
		scores[r.region] = scoring.Round2(r.min + s.rng.Float64()*(r.max-r.min))
	}
	confidence := scoring.Round2(minConfidence + s.rng.Float64()*(maxConfidence-minConfidence))
	s.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return model.Detection{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return model.Detection{
		Scores:         scores,
		Confidence:     confidence,
		ProcessingTime: time.Since(start),
	}, nil
}
