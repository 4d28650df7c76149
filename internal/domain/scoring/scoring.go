// Package scoring turns region sub-scores into an overall beauty score.
package scoring

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"

	"github.com/okian/jamal/internal/domain/model"
)

// DefaultBeautyThreshold is the overall score at or above which a camel is
// classified as beautiful.
const DefaultBeautyThreshold = 75.0

// Registry holds named weight tables. It is immutable after construction and
// safe for concurrent use.
type Registry struct {
	tables map[string]WeightTable
}

// NewRegistry builds a registry from validated tables. Zero-value tables and
// duplicate names are rejected with ErrInvalidWeightTable.
func NewRegistry(tables ...WeightTable) (*Registry, error) {
	r := &Registry{tables: make(map[string]WeightTable, len(tables))}
	for _, t := range tables {
		if t.name == "" || len(t.regions) == 0 {
			return nil, fmt.Errorf("%w: unbuilt table", ErrInvalidWeightTable)
		}
		if _, dup := r.tables[t.name]; dup {
			return nil, fmt.Errorf("%w: duplicate profile %q", ErrInvalidWeightTable, t.name)
		}
		r.tables[t.name] = t
	}
	return r, nil
}

// DefaultRegistry returns a registry holding the built-in profiles.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultTables()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the named table or ErrUnknownProfile.
func (r *Registry) Lookup(name string) (WeightTable, error) {
	t, ok := r.tables[name]
	if !ok {
		return WeightTable{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return t, nil
}

// Names lists registered profile names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tables))
	for name := range r.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithRegistry sets the weight registry used for lookups.
func WithRegistry(r *Registry) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.registry = r
		}
	}
}

// WithBeautyThreshold sets the classification threshold. A threshold
// outside [0, 100] is ignored and the aggregator keeps
// DefaultBeautyThreshold; read it back with Threshold.
func WithBeautyThreshold(threshold float64) Option {
	return func(a *Aggregator) {
		if threshold >= model.MinScore && threshold <= model.MaxScore {
			a.threshold = threshold
		}
	}
}

// Aggregator computes weighted overall scores. It holds only configuration
// and is safe for concurrent use.
type Aggregator struct {
	registry  *Registry
	threshold float64
}

// NewAggregator creates an aggregator over the default registry unless
// overridden by options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{threshold: DefaultBeautyThreshold}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = DefaultRegistry()
	}
	return a
}

// Registry returns the aggregator's weight registry.
func (a *Aggregator) Registry() *Registry { return a.registry }

// Threshold returns the beauty classification threshold.
func (a *Aggregator) Threshold() float64 { return a.threshold }

// Aggregate returns the weighted sum of subScores under the named profile,
// rounded to two decimals. Keys must match the profile's regions exactly and
// every value must lie in [0, 100]; nothing is clamped.
func (a *Aggregator) Aggregate(subScores model.SubScores, profile string) (float64, error) {
	t, err := a.registry.Lookup(profile)
	if err != nil {
		return 0, err
	}
	if !t.matches(subScores) {
		return 0, fmt.Errorf("%w: profile %q wants %v", ErrWeightMismatch, profile, t.regions)
	}
	sum := new(big.Rat)
	for _, r := range t.regions {
		v := subScores[r]
		if !model.InRange(v) {
			return 0, fmt.Errorf("%w: region %s score %v", ErrInvalidScoreRange, r, v)
		}
		sum.Add(sum, new(big.Rat).Mul(decimal(v), decimal(t.weights[r])))
	}
	return round2(sum), nil
}

// Classify labels an overall score against the configured threshold.
func (a *Aggregator) Classify(overall float64) model.Category {
	if overall >= a.threshold {
		return model.CategoryBeautiful
	}
	return model.CategoryUgly
}

// Round2 rounds v to two decimals, ties away from zero. v is taken at its
// shortest decimal form, so 1.005 rounds to 1.01.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return round2(decimal(v))
}

// decimal returns the shortest decimal that round-trips to v, exactly.
func decimal(v float64) *big.Rat {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'g', -1, 64))
	if !ok {
		return new(big.Rat).SetFloat64(v)
	}
	return r
}

// round2 rounds r to two decimals, ties away from zero.
func round2(r *big.Rat) float64 {
	scaled := new(big.Rat).Mul(r, big.NewRat(100, 1))
	num := new(big.Int).Abs(scaled.Num())
	q, m := new(big.Int).QuoRem(num, scaled.Denom(), new(big.Int))
	if m.Lsh(m, 1).Cmp(scaled.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if scaled.Sign() < 0 {
		q.Neg(q)
	}
	f, _ := new(big.Rat).SetFrac(q, big.NewInt(100)).Float64()
	return f
}
