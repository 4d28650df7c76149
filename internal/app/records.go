package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/jamal/internal/adapters/repository"
	"github.com/okian/jamal/internal/domain/compat"
	"github.com/okian/jamal/internal/domain/history"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/query"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/pkg/logger"
	"github.com/okian/jamal/pkg/metrics"
)

// EvaluationInput is a synchronous evaluation of a registered camel.
// Profile defaults to 5-region and Source to expert.
type EvaluationInput struct {
	SubjectID string          `json:"camel_id"`
	Profile   string          `json:"profile"`
	Source    model.Source    `json:"source"`
	Scores    model.SubScores `json:"scores"`
	Notes     string          `json:"notes"`
	ImageURL  string          `json:"image_url"`
}

// RecordEvaluation scores in.Scores under the chosen weight profile and
// appends the result to the camel's history.
func (s *Service) RecordEvaluation(ctx context.Context, in EvaluationInput) (model.Evaluation, error) {
	if in.Profile == "" {
		in.Profile = scoring.FiveRegion
	}
	if in.Source == "" {
		in.Source = model.SourceExpert
	}
	if _, err := s.store.Profile(ctx, in.SubjectID); err != nil {
		return model.Evaluation{}, err
	}
	overall, err := s.aggregator.Aggregate(in.Scores, in.Profile)
	if err != nil {
		return model.Evaluation{}, err
	}
	e, err := model.NewEvaluation(model.Evaluation{
		ID:        s.newID(),
		SubjectID: in.SubjectID,
		Source:    in.Source,
		Profile:   in.Profile,
		Scores:    in.Scores,
		Overall:   overall,
		Category:  s.aggregator.Classify(overall),
		Notes:     in.Notes,
		ImageURL:  in.ImageURL,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.Evaluation{}, err
	}
	if err := s.record(ctx, e); err != nil {
		return model.Evaluation{}, err
	}
	s.logger.Info(ctx, "evaluation recorded",
		logger.String("subject_id", e.SubjectID),
		logger.String("profile", e.Profile),
		logger.Float64("overall", e.Overall),
	)
	return e, nil
}

// RegisterProfile validates and stores a new camel. An empty id is
// generated. Overall is derived when the scores fit a weight profile
// exactly and stays 0 otherwise.
func (s *Service) RegisterProfile(ctx context.Context, p model.SubjectProfile) (model.SubjectProfile, error) {
	if strings.TrimSpace(p.ID) == "" {
		p.ID = s.newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p, err := model.NewSubjectProfile(p)
	if err != nil {
		return model.SubjectProfile{}, err
	}
	p = p.WithOverall(s.overallFor(p.Scores))
	if err := s.store.PutProfile(ctx, p); err != nil {
		return model.SubjectProfile{}, err
	}
	s.logger.Info(ctx, "profile registered",
		logger.String("subject_id", p.ID),
		logger.String("sex", string(p.Sex)),
	)
	return p, nil
}

// overallFor aggregates scores under the first profile, by name, whose
// regions they match.
func (s *Service) overallFor(scores model.SubScores) float64 {
	for _, name := range s.registry.Names() {
		if overall, err := s.aggregator.Aggregate(scores, name); err == nil {
			return overall
		}
	}
	return 0
}

// Profile returns a registered camel.
func (s *Service) Profile(ctx context.Context, id string) (model.SubjectProfile, error) {
	return s.store.Profile(ctx, id)
}

// History analyses a registered camel's evaluations. A camel without any
// evaluation fails with history.ErrEmptyHistory.
func (s *Service) History(ctx context.Context, id string) (history.Report, error) {
	if _, err := s.store.Profile(ctx, id); err != nil {
		return history.Report{}, err
	}
	evals, err := s.store.Evaluations(ctx, id)
	if err != nil {
		return history.Report{}, err
	}
	report, err := s.history.Analyze(evals)
	if err != nil {
		return history.Report{}, fmt.Errorf("camel %q: %w", id, err)
	}
	report.SubjectID = id
	return report, nil
}

// Compatibility scores b as a breeding partner for a. The rule is
// directional.
func (s *Service) Compatibility(ctx context.Context, aID, bID string) (compat.Result, error) {
	a, err := s.store.Profile(ctx, aID)
	if err != nil {
		return compat.Result{}, err
	}
	b, err := s.store.Profile(ctx, bID)
	if err != nil {
		return compat.Result{}, err
	}
	metrics.RecordCompatibilityComputed()
	return s.compat.Evaluate(a, b), nil
}

// Matches ranks every other registered camel as a partner for id.
// A non-positive limit returns all of them.
func (s *Service) Matches(ctx context.Context, id string, limit int) ([]compat.Match, error) {
	subject, err := s.store.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordCompatibilityComputed()
	return s.compat.Rank(subject, all, limit), nil
}

// AddListing stores a marketplace listing. When sub-scores are given the
// overall is derived from them under the 4-region profile.
func (s *Service) AddListing(ctx context.Context, l model.Listing) (model.Listing, error) {
	if strings.TrimSpace(l.ID) == "" {
		l.ID = s.newID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now().UTC()
	}
	l.Sex = model.Sex(strings.ToLower(strings.TrimSpace(string(l.Sex))))
	if err := model.ValidateListing(l); err != nil {
		return model.Listing{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if len(l.Scores) > 0 {
		overall, err := s.aggregator.Aggregate(l.Scores, scoring.FourRegion)
		if err != nil {
			return model.Listing{}, err
		}
		l.Overall = overall
		l.Scores = l.Scores.Clone()
	}
	if err := s.store.AddListing(ctx, l); err != nil {
		return model.Listing{}, err
	}
	return l, nil
}

// QueryListings filters listings and orders them by a marketplace preset.
// Newest keeps the store's newest-first order. A positive limit truncates.
func (s *Service) QueryListings(ctx context.Context, p query.PredicateSet, sortName string, limit int) ([]model.Listing, error) {
	spec, err := query.Preset(sortName)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.RecordQueryLatency("listings", float64(time.Since(start).Milliseconds()))
	}()

	all, err := s.store.Listings(ctx)
	if err != nil {
		return nil, err
	}
	if p.Search.Term != "" && len(p.Search.Fields) == 0 {
		p.Search.Fields = query.ListingSearchFields
	}
	p.Equals = normalizeEquals(p.Equals)
	return truncate(query.Run(all, p, spec), limit), nil
}

// QueryProfiles filters registered camels and orders them by spec.
func (s *Service) QueryProfiles(ctx context.Context, p query.PredicateSet, spec *query.SortSpec, limit int) ([]model.SubjectProfile, error) {
	start := time.Now()
	defer func() {
		metrics.RecordQueryLatency("profiles", float64(time.Since(start).Milliseconds()))
	}()

	all, err := s.store.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	if p.Search.Term != "" && len(p.Search.Fields) == 0 {
		p.Search.Fields = query.ProfileSearchFields
	}
	p.Equals = normalizeEquals(p.Equals)
	return truncate(query.Run(all, p, spec), limit), nil
}

// normalizeEquals lowercases sex filters to match how records store it.
// The caller's slice is not modified.
func normalizeEquals(in []query.Equal) []query.Equal {
	if len(in) == 0 {
		return in
	}
	out := make([]query.Equal, len(in))
	for i, eq := range in {
		if eq.Field == "sex" {
			eq.Value = strings.ToLower(strings.TrimSpace(eq.Value))
		}
		out[i] = eq
	}
	return out
}

func truncate[T any](in []T, limit int) []T {
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

// TopN returns the n best-scoring camels.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.leaderboard.TopN(ctx, n)
}

// Rank returns a camel's leaderboard position.
func (s *Service) Rank(ctx context.Context, id string) (repository.Entry, error) {
	return s.leaderboard.Rank(ctx, id)
}
