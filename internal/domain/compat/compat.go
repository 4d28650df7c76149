// Package compat scores how well two camels complement each other for breeding.
package compat

import (
	"math"
	"sort"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
)

// Point values and thresholds of the compatibility rule set.
const (
	sexPoints = 20

	traitStrongPoints   = 30
	traitStrongAbove    = 80.0
	traitModeratePoints = 20
	traitModerateAbove  = 70.0

	qualityHighPoints = 25
	qualityHighMin    = 85.0
	qualityMidPoints  = 15
	qualityMidMin     = 75.0
	qualityLowPoints  = 10
	qualityLowMin     = 65.0

	localityPoints = 15

	agePoints = 10
	minAge    = 3
	maxAge    = 12

	MaxScore = 100
)

// Breakdown lists the points awarded by each rule.
type Breakdown struct {
	Sex           int          `json:"sex"`
	Trait         int          `json:"trait"`
	Quality       int          `json:"quality"`
	Locality      int          `json:"locality"`
	Age           int          `json:"age"`
	WeakestA      model.Region `json:"weakest_a"`
	StrongestB    model.Region `json:"strongest_b"`
	StrongestBVal float64      `json:"strongest_b_value"`
	CombinedMean  float64      `json:"combined_mean"`
}

// Result is a compatibility score in [0, 100] with its breakdown.
type Result struct {
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Match is a ranked candidate for a subject.
type Match struct {
	ProfileID string `json:"profile_id"`
	Result
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithTable sets the region layout whose order drives tie-breaking and means.
func WithTable(t scoring.WeightTable) Option {
	return func(e *Evaluator) {
		if len(t.Regions()) > 0 {
			e.regions = t.Regions()
		}
	}
}

// Evaluator computes directional compatibility between profiles. Missing
// sub-scores read as 0. It holds only configuration and is safe for
// concurrent use.
type Evaluator struct {
	regions []model.Region
}

// NewEvaluator creates an evaluator over the 4-region layout unless
// overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.regions) == 0 {
		t, err := scoring.DefaultRegistry().Lookup(scoring.FourRegion)
		if err != nil {
			panic(err)
		}
		e.regions = t.Regions()
	}
	return e
}

// Regions returns the evaluator's canonical region order.
func (e *Evaluator) Regions() []model.Region {
	out := make([]model.Region, len(e.regions))
	copy(out, e.regions)
	return out
}

// Evaluate scores a as the subject and b as the partner. The trait rule
// compares a's weakest region with b's strongest, so swapping the arguments
// may change the result.
func (e *Evaluator) Evaluate(a, b model.SubjectProfile) Result {
	var bd Breakdown

	if a.Sex != b.Sex {
		bd.Sex = sexPoints
	}

	weak, _ := e.extreme(a.Scores, func(v, best float64) bool { return v < best })
	strong, strongVal := e.extreme(b.Scores, func(v, best float64) bool { return v > best })
	bd.WeakestA, bd.StrongestB, bd.StrongestBVal = weak, strong, strongVal
	if weak == strong {
		switch {
		case strongVal > traitStrongAbove:
			bd.Trait = traitStrongPoints
		case strongVal > traitModerateAbove:
			bd.Trait = traitModeratePoints
		}
	}

	bd.CombinedMean = (e.mean(a.Scores) + e.mean(b.Scores)) / 2
	switch {
	case bd.CombinedMean >= qualityHighMin:
		bd.Quality = qualityHighPoints
	case bd.CombinedMean >= qualityMidMin:
		bd.Quality = qualityMidPoints
	case bd.CombinedMean >= qualityLowMin:
		bd.Quality = qualityLowPoints
	}

	if a.Location == b.Location {
		bd.Locality = localityPoints
	}

	if inWindow(a.Age) && inWindow(b.Age) {
		bd.Age = agePoints
	}

	total := float64(bd.Sex + bd.Trait + bd.Quality + bd.Locality + bd.Age)
	return Result{
		Score:     int(math.Round(math.Min(total, MaxScore))),
		Breakdown: bd,
	}
}

// BestMatch returns the highest score any of owned achieves against
// candidate, with the owned profile that achieved it. The second value is
// false when owned is empty.
func (e *Evaluator) BestMatch(owned []model.SubjectProfile, candidate model.SubjectProfile) (Match, bool) {
	var best Match
	found := false
	for _, o := range owned {
		r := e.Evaluate(o, candidate)
		if !found || r.Score > best.Score {
			best = Match{ProfileID: o.ID, Result: r}
			found = true
		}
	}
	return best, found
}

// Rank scores every candidate against subject and returns them by
// descending score, ties by id ascending. The subject itself is skipped.
// A non-positive limit returns all candidates.
func (e *Evaluator) Rank(subject model.SubjectProfile, candidates []model.SubjectProfile, limit int) []Match {
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == subject.ID {
			continue
		}
		out = append(out, Match{ProfileID: c.ID, Result: e.Evaluate(subject, c)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// extreme walks the canonical order and keeps the first region that beats
// the current pick, so ties resolve to the earlier region.
func (e *Evaluator) extreme(s model.SubScores, better func(v, best float64) bool) (model.Region, float64) {
	pick := e.regions[0]
	val := s.Get(pick)
	for _, r := range e.regions[1:] {
		if v := s.Get(r); better(v, val) {
			pick, val = r, v
		}
	}
	return pick, val
}

func (e *Evaluator) mean(s model.SubScores) float64 {
	sum := 0.0
	for _, r := range e.regions {
		sum += s.Get(r)
	}
	return sum / float64(len(e.regions))
}

func inWindow(age int) bool {
	return age >= minAge && age <= maxAge
}
