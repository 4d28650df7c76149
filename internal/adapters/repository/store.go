// Package repository holds camel profiles, evaluations, listings and the
// leaderboard of best overall scores.
package repository

import (
	"context"

	"github.com/okian/jamal/internal/domain/model"
)

// Store provides read/write access to persisted domain records.
type Store interface {
	// PutProfile stores a new profile. Returns ErrAlreadyExists when the id is taken.
	PutProfile(ctx context.Context, p model.SubjectProfile) error
	// Profile returns the profile with id, or ErrNotFound.
	Profile(ctx context.Context, id string) (model.SubjectProfile, error)
	// Profiles returns all profiles in registration order.
	Profiles(ctx context.Context) ([]model.SubjectProfile, error)

	// AppendEvaluation adds an evaluation to its subject's history.
	AppendEvaluation(ctx context.Context, e model.Evaluation) error
	// Evaluations returns a subject's evaluations in append order.
	Evaluations(ctx context.Context, subjectID string) ([]model.Evaluation, error)
	// AllEvaluations returns every evaluation in append order.
	AllEvaluations(ctx context.Context) ([]model.Evaluation, error)

	// AddListing stores a new listing. Returns ErrAlreadyExists when the id is taken.
	AddListing(ctx context.Context, l model.Listing) error
	// Listings returns all listings, newest first.
	Listings(ctx context.Context) ([]model.Listing, error)

	// Close releases underlying resources.
	Close() error
}
