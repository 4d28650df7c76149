package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/pkg/metrics"
)

// MemoryStore keeps every record in process memory. Safe for concurrent use.
// Returned values are copies; callers cannot mutate stored state.
type MemoryStore struct {
	mu sync.RWMutex

	profiles     map[string]model.SubjectProfile
	profileOrder []string

	evaluations []model.Evaluation
	bySubject   map[string][]int

	listings  map[string]model.Listing
	listOrder []string

	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  make(map[string]model.SubjectProfile),
		bySubject: make(map[string][]int),
		listings:  make(map[string]model.Listing),
	}
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// PutProfile implements Store.
func (s *MemoryStore) PutProfile(ctx context.Context, p model.SubjectProfile) error {
	defer observe("profile_put", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.putProfileLocked(p)
}

func (s *MemoryStore) putProfileLocked(p model.SubjectProfile) error {
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("profile %q: %w", p.ID, ErrAlreadyExists)
	}
	p.Scores = p.Scores.Clone()
	s.profiles[p.ID] = p
	s.profileOrder = append(s.profileOrder, p.ID)
	return nil
}

// Profile implements Store.
func (s *MemoryStore) Profile(ctx context.Context, id string) (model.SubjectProfile, error) {
	defer observe("profile_get", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return model.SubjectProfile{}, err
	}
	p, ok := s.profiles[id]
	if !ok {
		return model.SubjectProfile{}, fmt.Errorf("profile %q: %w", id, ErrNotFound)
	}
	p.Scores = p.Scores.Clone()
	return p, nil
}

// Profiles implements Store.
func (s *MemoryStore) Profiles(ctx context.Context) ([]model.SubjectProfile, error) {
	defer observe("profile_list", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.SubjectProfile, 0, len(s.profileOrder))
	for _, id := range s.profileOrder {
		p := s.profiles[id]
		p.Scores = p.Scores.Clone()
		out = append(out, p)
	}
	return out, nil
}

// AppendEvaluation implements Store.
func (s *MemoryStore) AppendEvaluation(ctx context.Context, e model.Evaluation) error {
	defer observe("evaluation_append", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.appendEvaluationLocked(e)
	return nil
}

func (s *MemoryStore) appendEvaluationLocked(e model.Evaluation) {
	e.Scores = e.Scores.Clone()
	s.evaluations = append(s.evaluations, e)
	s.bySubject[e.SubjectID] = append(s.bySubject[e.SubjectID], len(s.evaluations)-1)
}

// Evaluations implements Store. An unknown subject yields an empty slice.
func (s *MemoryStore) Evaluations(ctx context.Context, subjectID string) ([]model.Evaluation, error) {
	defer observe("evaluation_list", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	idx := s.bySubject[subjectID]
	out := make([]model.Evaluation, 0, len(idx))
	for _, i := range idx {
		e := s.evaluations[i]
		e.Scores = e.Scores.Clone()
		out = append(out, e)
	}
	return out, nil
}

// AllEvaluations implements Store.
func (s *MemoryStore) AllEvaluations(ctx context.Context) ([]model.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Evaluation, len(s.evaluations))
	for i, e := range s.evaluations {
		e.Scores = e.Scores.Clone()
		out[i] = e
	}
	return out, nil
}

// AddListing implements Store.
func (s *MemoryStore) AddListing(ctx context.Context, l model.Listing) error {
	defer observe("listing_add", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.addListingLocked(l)
}

func (s *MemoryStore) addListingLocked(l model.Listing) error {
	if _, ok := s.listings[l.ID]; ok {
		return fmt.Errorf("listing %q: %w", l.ID, ErrAlreadyExists)
	}
	l.Scores = l.Scores.Clone()
	s.listings[l.ID] = l
	s.listOrder = append(s.listOrder, l.ID)
	return nil
}

// Listings implements Store. Newest means most recently added.
func (s *MemoryStore) Listings(ctx context.Context) ([]model.Listing, error) {
	defer observe("listing_list", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Listing, 0, len(s.listOrder))
	for i := len(s.listOrder) - 1; i >= 0; i-- {
		l := s.listings[s.listOrder[i]]
		l.Scores = l.Scores.Clone()
		out = append(out, l)
	}
	return out, nil
}

// Close implements Store. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
