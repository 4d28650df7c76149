package seed

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/jamal/internal/adapters/repository"
	"github.com/okian/jamal/internal/domain/scoring"
)

// ErrVerification reports a leaderboard that disagrees with the fixture.
var ErrVerification = errors.New("leaderboard verification failed")

const scoreTolerance = 1e-6

// Ranked is an expected leaderboard row.
type Ranked struct {
	CamelID string
	Score   float64
}

// ExpectedBest computes each camel's best overall from the fixture's
// evaluations, best first with ties by id.
func ExpectedBest(f Fixture, agg *scoring.Aggregator) ([]Ranked, error) {
	best := make(map[string]float64)
	for i, e := range f.Evaluations {
		overall, err := agg.Aggregate(e.Scores, e.Profile)
		if err != nil {
			return nil, fmt.Errorf("evaluation %d: %w", i, err)
		}
		if cur, ok := best[e.SubjectID]; !ok || overall > cur {
			best[e.SubjectID] = overall
		}
	}
	out := make([]Ranked, 0, len(best))
	for id, s := range best {
		out = append(out, Ranked{CamelID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CamelID < out[j].CamelID
	})
	return out, nil
}

// Verify checks that entries is the head of expected: same camels in the
// same order with matching scores and competition ranks.
func Verify(expected []Ranked, entries []repository.Entry, topN int) error {
	want := min(topN, len(expected))
	if len(entries) != want {
		return fmt.Errorf("%w: got %d entries, want %d", ErrVerification, len(entries), want)
	}
	for i, e := range entries {
		x := expected[i]
		if e.CamelID != x.CamelID {
			return fmt.Errorf("%w: position %d is %s, want %s", ErrVerification, i+1, e.CamelID, x.CamelID)
		}
		if math.Abs(e.Score-x.Score) > scoreTolerance {
			return fmt.Errorf("%w: %s scored %.2f, want %.2f", ErrVerification, e.CamelID, e.Score, x.Score)
		}
		rank := i + 1
		if i > 0 && math.Abs(e.Score-entries[i-1].Score) <= scoreTolerance {
			rank = entries[i-1].Rank
		}
		if e.Rank != rank {
			return fmt.Errorf("%w: %s ranked %d, want %d", ErrVerification, e.CamelID, e.Rank, rank)
		}
	}
	return nil
}
