package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/jamal/internal/adapters/detector"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/pkg/logger"
	"github.com/okian/jamal/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
	tracerName              = "github.com/okian/jamal/internal/adapters/mq/worker"
)

// Job is what workers read off the queue.
type Job = model.DetectionJob

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Recorder turns a finished detection into a stored evaluation.
type Recorder interface {
	RecordDetection(ctx context.Context, job Job, det model.Detection) (model.Evaluation, error)
}

// Worker processes jobs until the queue closes or ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// Stats counts job outcomes.
type Stats struct {
	processed atomic.Int64
	failed    atomic.Int64
}

// Processed returns the number of jobs recorded successfully.
func (s *Stats) Processed() int64 { return s.processed.Load() }

// Failed returns the number of jobs that failed.
func (s *Stats) Failed() int64 { return s.failed.Load() }

// InMemoryWorker implements Worker for processing detection jobs.
type InMemoryWorker struct {
	queue    Queue
	detector detector.Detector
	recorder Recorder
	name     string
	stats    *Stats
	tracer   trace.Tracer

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, d detector.Detector, r Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		detector: d,
		recorder: r,
		name:     "worker",
		stats:    &Stats{},
		tracer:   otel.Tracer(tracerName),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop. Queued jobs are drained after the queue
// closes; Shutdown stops the loop without draining.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "detection job failed",
					logger.String("worker", w.name),
					logger.String("job_id", job.ID),
					logger.String("subject_id", job.SubjectID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for the current job to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// process runs one job inside its own span.
func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	ctx, span := w.tracer.Start(ctx, "worker.process",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("camel.id", job.SubjectID),
			attribute.String("worker", w.name),
		))
	defer span.End()

	fail := func(stage string, err error) error {
		w.stats.failed.Add(1)
		metrics.RecordDetectionFailed(stage)
		metrics.RecordErrorByComponent("worker", stage)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s job %s: %w", stage, job.ID, err)
	}

	start := time.Now()
	det, err := w.detector.Detect(ctx, detector.Request{SubjectID: job.SubjectID, ImageURL: job.ImageURL})
	metrics.RecordDetectionLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return fail("detect", err)
	}
	span.AddEvent("detected", trace.WithAttributes(attribute.Float64("confidence", det.Confidence)))

	eval, err := w.recorder.RecordDetection(ctx, job, det)
	if err != nil {
		return fail("record", err)
	}

	w.stats.processed.Add(1)
	span.SetAttributes(
		attribute.Float64("camel.overall", eval.Overall),
		attribute.String("camel.category", string(eval.Category)),
	)
	span.SetStatus(codes.Ok, "recorded")
	w.logger.Debug(ctx, "detection recorded",
		logger.String("job_id", job.ID),
		logger.String("subject_id", job.SubjectID),
		logger.Float64("overall", eval.Overall),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *Stats
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates a pool. A non-positive count defaults to a multiple of
// the CPU count.
func NewPool(workerCount int, q Queue, d detector.Detector, r Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &Stats{},
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, d, r,
			WithName("worker-"+strconv.Itoa(i)),
			WithStats(p.stats),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats returns the pool's shared counters.
func (p *Pool) Stats() *Stats { return p.stats }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
