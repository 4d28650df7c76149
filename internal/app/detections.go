package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	eventqueue "github.com/okian/jamal/internal/adapters/mq/queue"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/pkg/logger"
	"github.com/okian/jamal/pkg/metrics"
)

// DetectionRequest asks for a camel image to be scored asynchronously.
// Key is the idempotency key; when empty it is derived from the subject
// and image.
type DetectionRequest struct {
	Key       string `json:"idempotency_key"`
	SubjectID string `json:"camel_id"`
	ImageURL  string `json:"image_url"`
}

// Submission reports what happened to a DetectionRequest.
type Submission struct {
	JobID     string `json:"job_id,omitempty"`
	Key       string `json:"idempotency_key"`
	Duplicate bool   `json:"duplicate"`
}

// SubmitDetection validates and enqueues a detection job. A repeated key is
// reported as a duplicate without enqueueing. A full queue fails with
// eventqueue.ErrFull and the key is released so the client may retry.
func (s *Service) SubmitDetection(ctx context.Context, req DetectionRequest) (Submission, error) {
	req.SubjectID = strings.TrimSpace(req.SubjectID)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.SubjectID == "" || req.ImageURL == "" {
		return Submission{}, fmt.Errorf("%w: camel_id and image_url are required", ErrInvalidRequest)
	}
	if req.Key == "" {
		req.Key = req.SubjectID + "|" + req.ImageURL
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Submission{}, ErrNotStarted
	}
	if _, err := s.store.Profile(ctx, req.SubjectID); err != nil {
		return Submission{}, err
	}

	if s.deduper.SeenAndRecord(ctx, req.Key) {
		metrics.RecordDetectionDuplicate()
		s.logger.Debug(ctx, "duplicate detection skipped",
			logger.String("key", req.Key),
			logger.String("subject_id", req.SubjectID),
		)
		return Submission{Key: req.Key, Duplicate: true}, nil
	}

	job := model.DetectionJob{
		ID:          s.newID(),
		Key:         req.Key,
		SubjectID:   req.SubjectID,
		ImageURL:    req.ImageURL,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, req.Key)
		reason := "error"
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			reason = "full"
		case errors.Is(err, eventqueue.ErrClosed):
			reason = "closed"
		}
		metrics.RecordQueueRejected(reason)
		s.logger.Warn(ctx, "detection rejected",
			logger.String("subject_id", req.SubjectID),
			logger.String("reason", reason),
		)
		return Submission{}, fmt.Errorf("enqueue detection: %w", err)
	}

	metrics.RecordDetectionSubmitted()
	metrics.UpdateQueueSize(s.queue.Len(ctx))
	return Submission{JobID: job.ID, Key: req.Key}, nil
}

// RecordDetection turns a detector result into an automated evaluation
// under the 4-region profile. It is called by the detection workers.
func (s *Service) RecordDetection(ctx context.Context, job model.DetectionJob, det model.Detection) (model.Evaluation, error) {
	overall, err := s.aggregator.Aggregate(det.Scores, scoring.FourRegion)
	if err != nil {
		return model.Evaluation{}, err
	}
	e, err := model.NewEvaluation(model.Evaluation{
		ID:         s.newID(),
		SubjectID:  job.SubjectID,
		Source:     model.SourceAutomated,
		Profile:    scoring.FourRegion,
		Scores:     det.Scores,
		Overall:    overall,
		Category:   s.aggregator.Classify(overall),
		Confidence: det.Confidence,
		ImageURL:   job.ImageURL,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return model.Evaluation{}, err
	}
	if err := s.record(ctx, e); err != nil {
		return model.Evaluation{}, err
	}
	return e, nil
}

// record appends e and raises the camel's leaderboard entry if e is its best.
func (s *Service) record(ctx context.Context, e model.Evaluation) error {
	if err := s.store.AppendEvaluation(ctx, e); err != nil {
		metrics.RecordErrorByComponent("service", "store")
		return fmt.Errorf("store evaluation: %w", err)
	}
	metrics.RecordEvaluation(string(e.Source))
	improved, err := s.leaderboard.UpdateBest(ctx, e.SubjectID, e.Overall, e.ID)
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	if improved {
		s.logger.Debug(ctx, "new personal best",
			logger.String("subject_id", e.SubjectID),
			logger.Float64("overall", e.Overall),
		)
	}
	return nil
}
