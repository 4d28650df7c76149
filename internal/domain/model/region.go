// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
)

// Region is a named body-area dimension scored on a 0-100 scale.
type Region string

// Known regions. The detector reports head, neck, body and size; expert
// evaluations use head, neck, hump, body and legs.
const (
	RegionHead Region = "head"
	RegionNeck Region = "neck"
	RegionBody Region = "body"
	RegionSize Region = "size"
	RegionHump Region = "hump"
	RegionLegs Region = "legs"
)

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// SubScores maps regions to their scores.
type SubScores map[Region]float64

// Get returns the score for r, or 0 when the region is absent.
func (s SubScores) Get(r Region) float64 {
	return s[r]
}

// Clone returns an independent copy.
func (s SubScores) Clone() SubScores {
	if s == nil {
		return nil
	}
	out := make(SubScores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// CheckRange reports the first region whose score is outside [0, 100].
func (s SubScores) CheckRange() error {
	for r, v := range s {
		if !InRange(v) {
			return fmt.Errorf("region %s: score %v outside [%v, %v]", r, v, MinScore, MaxScore)
		}
	}
	return nil
}

// Missing returns the regions of order that have no score, keeping order.
func (s SubScores) Missing(order []Region) []Region {
	var out []Region
	for _, r := range order {
		if _, ok := s[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// InRange reports whether v is a valid sub-score. NaN is never valid.
func InRange(v float64) bool {
	return !math.IsNaN(v) && v >= MinScore && v <= MaxScore
}
