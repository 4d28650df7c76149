package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/jamal/internal/domain/model"
)

// Built-in weight profile names.
const (
	FourRegion = "4-region"
	FiveRegion = "5-region"
)

// weightSumTolerance bounds how far a table's weights may drift from 1.0.
const weightSumTolerance = 1e-9

// WeightTable is a named, validated set of region weights. Regions keeps the
// canonical order used for tie-breaking across the engine.
type WeightTable struct {
	name    string
	regions []model.Region
	weights map[model.Region]float64
}

// RegionWeight pairs a region with its weight, in canonical order.
type RegionWeight struct {
	Region model.Region
	Weight float64
}

// NewWeightTable validates and builds a table. Weights must be non-negative,
// regions unique, and the total must be 1.0 within tolerance.
func NewWeightTable(name string, entries ...RegionWeight) (WeightTable, error) {
	if name == "" {
		return WeightTable{}, fmt.Errorf("%w: empty profile name", ErrInvalidWeightTable)
	}
	if len(entries) == 0 {
		return WeightTable{}, fmt.Errorf("%w: profile %q has no regions", ErrInvalidWeightTable, name)
	}
	t := WeightTable{
		name:    name,
		regions: make([]model.Region, 0, len(entries)),
		weights: make(map[model.Region]float64, len(entries)),
	}
	sum := 0.0
	for _, e := range entries {
		if e.Region == "" {
			return WeightTable{}, fmt.Errorf("%w: profile %q has an unnamed region", ErrInvalidWeightTable, name)
		}
		if math.IsNaN(e.Weight) || e.Weight < 0 {
			return WeightTable{}, fmt.Errorf("%w: profile %q region %s weight %v", ErrInvalidWeightTable, name, e.Region, e.Weight)
		}
		if _, dup := t.weights[e.Region]; dup {
			return WeightTable{}, fmt.Errorf("%w: profile %q repeats region %s", ErrInvalidWeightTable, name, e.Region)
		}
		t.regions = append(t.regions, e.Region)
		t.weights[e.Region] = e.Weight
		sum += e.Weight
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return WeightTable{}, fmt.Errorf("%w: profile %q weights sum to %v", ErrInvalidWeightTable, name, sum)
	}
	return t, nil
}

// WeightTableFromMap builds a table from an unordered map. Regions are placed
// in canonical order first, then any others alphabetically.
func WeightTableFromMap(name string, weights map[string]float64) (WeightTable, error) {
	entries := make([]RegionWeight, 0, len(weights))
	seen := make(map[model.Region]bool, len(weights))
	for _, r := range CanonicalOrder {
		if w, ok := weights[string(r)]; ok {
			entries = append(entries, RegionWeight{Region: r, Weight: w})
			seen[r] = true
		}
	}
	var rest []string
	for k := range weights {
		if !seen[model.Region(k)] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		entries = append(entries, RegionWeight{Region: model.Region(k), Weight: weights[k]})
	}
	return NewWeightTable(name, entries...)
}

// CanonicalOrder is the global region order used when no table order applies.
var CanonicalOrder = []model.Region{ //nolint:gochecknoglobals // fixed vocabulary
	model.RegionHead,
	model.RegionNeck,
	model.RegionHump,
	model.RegionBody,
	model.RegionSize,
	model.RegionLegs,
}

// Name returns the profile name.
func (t WeightTable) Name() string { return t.name }

// Regions returns the table's regions in canonical order.
func (t WeightTable) Regions() []model.Region {
	out := make([]model.Region, len(t.regions))
	copy(out, t.regions)
	return out
}

// Weight returns the weight for r and whether r belongs to the table.
func (t WeightTable) Weight(r model.Region) (float64, bool) {
	w, ok := t.weights[r]
	return w, ok
}

// matches reports whether s has exactly the table's regions.
func (t WeightTable) matches(s model.SubScores) bool {
	if len(s) != len(t.regions) {
		return false
	}
	for r := range s {
		if _, ok := t.weights[r]; !ok {
			return false
		}
	}
	return true
}

// Default tables.
var (
	fourRegionWeights = []RegionWeight{ //nolint:gochecknoglobals // fixed domain constants
		{model.RegionHead, 0.25},
		{model.RegionNeck, 0.25},
		{model.RegionBody, 0.30},
		{model.RegionSize, 0.20},
	}
	fiveRegionWeights = []RegionWeight{ //nolint:gochecknoglobals // fixed domain constants
		{model.RegionHead, 0.20},
		{model.RegionNeck, 0.20},
		{model.RegionHump, 0.25},
		{model.RegionBody, 0.20},
		{model.RegionLegs, 0.15},
	}
)

// DefaultTables returns the built-in 4-region and 5-region tables.
func DefaultTables() []WeightTable {
	four, err := NewWeightTable(FourRegion, fourRegionWeights...)
	if err != nil {
		panic(err)
	}
	five, err := NewWeightTable(FiveRegion, fiveRegionWeights...)
	if err != nil {
		panic(err)
	}
	return []WeightTable{four, five}
}
