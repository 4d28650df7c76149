// Package service wires the scoring core to storage, the detection
// pipeline and the ranking, and implements what the HTTP API depends on.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/jamal/internal/adapters/detector"
	eventqueue "github.com/okian/jamal/internal/adapters/mq/queue"
	workerpool "github.com/okian/jamal/internal/adapters/mq/worker"
	"github.com/okian/jamal/internal/adapters/repository"
	"github.com/okian/jamal/internal/domain/compat"
	"github.com/okian/jamal/internal/domain/dedupe"
	"github.com/okian/jamal/internal/domain/history"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/pkg/logger"
	"github.com/okian/jamal/pkg/metrics"
)

// Service implements the API dependencies for the camel scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store       repository.Store
	leaderboard *repository.Leaderboard
	deduper     dedupe.Deduper
	queue       *eventqueue.InMemoryQueue
	pool        *workerpool.Pool
	stopWorkers context.CancelFunc
	detector    detector.Detector

	aggregator *scoring.Aggregator
	registry   *scoring.Registry
	compat     *compat.Evaluator
	history    *history.Analyzer

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	threshold   float64
	now         func() time.Time
	newID       func() string

	// State
	started bool
	stopped bool

	logger logger.Logger
}

// New constructs a Service. Pure components and storage are ready at once;
// the detection queue and workers start with Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  50_000,
		threshold:   scoring.DefaultBeautyThreshold,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.registry == nil {
		s.registry = scoring.DefaultRegistry()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.detector == nil {
		s.detector = detector.NewSimulated()
	}
	s.aggregator = scoring.NewAggregator(
		scoring.WithRegistry(s.registry),
		scoring.WithBeautyThreshold(s.threshold),
	)
	s.compat = compat.NewEvaluator()
	s.history = history.NewAnalyzer()
	s.leaderboard = repository.NewLeaderboard()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// RegistryFromProfiles builds a registry holding the built-in weight tables
// plus the named extra ones. Any invalid table is an error.
func RegistryFromProfiles(extra map[string]map[string]float64) (*scoring.Registry, error) {
	tables := scoring.DefaultTables()
	for name, weights := range extra {
		t, err := scoring.WeightTableFromMap(name, weights)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return scoring.NewRegistry(tables...)
}

// Start rebuilds the leaderboard from stored evaluations and starts the
// detection workers. Calling Start twice is a no-op. The workers outlive
// ctx; only Stop ends them, after the queue is drained.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting camel scoring service...")

	evals, err := s.store.AllEvaluations(ctx)
	if err != nil {
		return fmt.Errorf("load evaluations: %w", err)
	}
	for _, e := range evals {
		if _, err := s.leaderboard.UpdateBest(ctx, e.SubjectID, e.Overall, e.ID); err != nil {
			return fmt.Errorf("rebuild leaderboard: %w", err)
		}
	}

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.detector, s)
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopWorkers = cancel
	s.pool.Start(workCtx)

	s.started = true
	s.logger.Info(ctx, "camel scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("replayedEvaluations", len(evals)),
		logger.Int("rankedCamels", s.leaderboard.Count(ctx)),
	)
	return nil
}

// Stop drains queued detections, stops the workers and closes the store.
// A stopped service cannot be restarted.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.logger.Info(ctx, "stopping camel scoring service...")

	var firstErr error
	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if s.stopWorkers != nil {
		s.stopWorkers()
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "camel scoring service stopped")
	return firstErr
}

// Stats is a point-in-time view of the service for monitoring.
type Stats struct {
	Started       bool     `json:"started"`
	WorkerCount   int      `json:"worker_count"`
	QueueLength   int      `json:"queue_length"`
	QueueCapacity int      `json:"queue_capacity"`
	DedupeEntries int64    `json:"dedupe_entries"`
	CamelsRanked  int      `json:"camels_ranked"`
	Processed     int64    `json:"detections_processed"`
	Failed        int64    `json:"detections_failed"`
	Profiles      []string `json:"weight_profiles"`
}

// GetStats returns service statistics and refreshes the matching gauges.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:       s.started,
		WorkerCount:   s.workerCount,
		QueueCapacity: s.queueSize,
		DedupeEntries: s.deduper.Size(),
		CamelsRanked:  s.leaderboard.Count(ctx),
		Profiles:      s.registry.Names(),
	}
	if s.queue != nil {
		st.QueueLength = s.queue.Len(ctx)
		metrics.UpdateQueueSize(st.QueueLength)
	}
	if s.pool != nil {
		st.Processed = s.pool.Stats().Processed()
		st.Failed = s.pool.Stats().Failed()
	}
	metrics.UpdateCamelsRanked(st.CamelsRanked)
	return st
}

// Registry returns the weight profiles in use.
func (s *Service) Registry() *scoring.Registry { return s.registry }
