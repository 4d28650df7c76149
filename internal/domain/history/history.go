// Package history reduces a camel's evaluation sequence to summary statistics.
package history

import (
	"math"
	"sort"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
)

// rankedRegions is how many regions are reported as strengths and weaknesses.
const rankedRegions = 2

// Report summarises one subject's evaluations. Numbers are rounded to two
// decimals.
type Report struct {
	SubjectID        string                   `json:"subject_id,omitempty"`
	Count            int                      `json:"count"`
	AverageScore     float64                  `json:"average_score"`
	BestScore        float64                  `json:"best_score"`
	FirstScore       float64                  `json:"first_score"`
	LatestScore      float64                  `json:"latest_score"`
	Improvement      float64                  `json:"improvement"`
	RegionAverages   map[model.Region]float64 `json:"region_averages"`
	Strengths        []model.Region           `json:"strengths"`
	Weaknesses       []model.Region           `json:"weaknesses"`
	SourceDivergence map[model.Region]float64 `json:"source_divergence,omitempty"`
	AutomatedCount   int                      `json:"automated_count"`
	ExpertCount      int                      `json:"expert_count"`
}

// HasDivergence reports whether both sources were present.
func (r Report) HasDivergence() bool {
	return r.SourceDivergence != nil
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithTable sets the preferred region order used to break ties.
func WithTable(t scoring.WeightTable) Option {
	return func(a *Analyzer) {
		if len(t.Regions()) > 0 {
			a.regions = t.Regions()
		}
	}
}

// Analyzer computes history reports. It keeps no state between calls.
type Analyzer struct {
	regions []model.Region
}

// NewAnalyzer creates an analyzer that orders regions like the 5-region
// profile unless overridden.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if len(a.regions) == 0 {
		t, err := scoring.DefaultRegistry().Lookup(scoring.FiveRegion)
		if err != nil {
			panic(err)
		}
		a.regions = t.Regions()
	}
	return a
}

// Analyze reduces evals to a Report. The input need not be ordered and is
// not modified. Each region is averaged over the evaluations that carry it,
// so 4-region and 5-region evaluations can share one history. Regions no
// evaluation carries are left out of the report.
func (a *Analyzer) Analyze(evals []model.Evaluation) (Report, error) {
	if len(evals) == 0 {
		return Report{}, ErrEmptyHistory
	}

	sorted := make([]model.Evaluation, len(evals))
	copy(sorted, evals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	first, latest := sorted[0], sorted[len(sorted)-1]
	rep := Report{
		SubjectID:   first.SubjectID,
		Count:       len(sorted),
		BestScore:   first.Overall,
		FirstScore:  first.Overall,
		LatestScore: latest.Overall,
	}

	sum := 0.0
	var automated, expert []model.Evaluation
	for _, e := range sorted {
		sum += e.Overall
		if e.Overall > rep.BestScore {
			rep.BestScore = e.Overall
		}
		switch e.Source {
		case model.SourceAutomated:
			automated = append(automated, e)
		case model.SourceExpert:
			expert = append(expert, e)
		}
	}
	rep.AutomatedCount, rep.ExpertCount = len(automated), len(expert)

	order := a.order(sorted)
	avgs := regionMeans(sorted, order)
	rep.AverageScore = scoring.Round2(sum / float64(len(sorted)))
	rep.Improvement = scoring.Round2(latest.Overall - first.Overall)
	rep.BestScore = scoring.Round2(rep.BestScore)
	rep.FirstScore = scoring.Round2(rep.FirstScore)
	rep.LatestScore = scoring.Round2(rep.LatestScore)
	rep.RegionAverages = rounded(avgs)
	rep.Strengths = rank(order, avgs, func(x, y float64) bool { return x > y })
	rep.Weaknesses = rank(order, avgs, func(x, y float64) bool { return x < y })

	if len(automated) > 0 && len(expert) > 0 {
		am, em := regionMeans(automated, order), regionMeans(expert, order)
		div := make(map[model.Region]float64, len(order))
		for _, r := range order {
			av, aok := am[r]
			ev, eok := em[r]
			if !aok || !eok {
				continue
			}
			div[r] = math.Abs(av - ev)
		}
		rep.SourceDivergence = rounded(div)
	}
	return rep, nil
}

// order lists the regions evals carry: the analyzer's vocabulary first,
// then any other region by name.
func (a *Analyzer) order(evals []model.Evaluation) []model.Region {
	seen := make(map[model.Region]bool)
	for _, e := range evals {
		for r := range e.Scores {
			seen[r] = true
		}
	}
	out := make([]model.Region, 0, len(seen))
	for _, r := range a.regions {
		if seen[r] {
			out = append(out, r)
			delete(seen, r)
		}
	}
	extra := make([]model.Region, 0, len(seen))
	for r := range seen {
		extra = append(extra, r)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// regionMeans averages each region of order over the evaluations that
// carry it. Regions none of evals carry are absent from the result.
func regionMeans(evals []model.Evaluation, order []model.Region) map[model.Region]float64 {
	out := make(map[model.Region]float64, len(order))
	for _, r := range order {
		sum, n := 0.0, 0
		for _, e := range evals {
			if v, ok := e.Scores[r]; ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out[r] = sum / float64(n)
		}
	}
	return out
}

// rank orders the regions of order by before on their unrounded averages,
// keeping order on ties, and returns the first two.
func rank(order []model.Region, avgs map[model.Region]float64, before func(x, y float64) bool) []model.Region {
	out := make([]model.Region, len(order))
	copy(out, order)
	sort.SliceStable(out, func(i, j int) bool {
		return before(avgs[out[i]], avgs[out[j]])
	})
	if len(out) > rankedRegions {
		out = out[:rankedRegions]
	}
	return out
}

func rounded(m map[model.Region]float64) map[model.Region]float64 {
	out := make(map[model.Region]float64, len(m))
	for k, v := range m {
		out[k] = scoring.Round2(v)
	}
	return out
}
