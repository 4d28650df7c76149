// Package query filters and orders in-memory record collections.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Record exposes named fields to predicates and sort keys. The boolean
// result reports whether the record knows the field at all.
type Record interface {
	Text(field string) (string, bool)
	Number(field string) (float64, bool)
	Flag(field string) (bool, bool)
}

// Search matches Term case-insensitively as a substring of any of Fields.
// An empty Term matches everything.
type Search struct {
	Term   string   `json:"term,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// Equal matches a coded field exactly. An empty Value is no constraint.
type Equal struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Range is an inclusive numeric bound. Nil bounds impose nothing. A field
// the record lacks reads as 0.
type Range struct {
	Field string   `json:"field"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

// PredicateSet is the AND of all its predicates. Flags constrain only the
// fields present in the map.
type PredicateSet struct {
	Search Search          `json:"search"`
	Equals []Equal         `json:"equals,omitempty"`
	Ranges []Range         `json:"ranges,omitempty"`
	Flags  map[string]bool `json:"flags,omitempty"`
}

// IsEmpty reports whether p imposes no constraint at all.
func (p PredicateSet) IsEmpty() bool {
	if p.Search.Term != "" || len(p.Flags) > 0 {
		return false
	}
	for _, e := range p.Equals {
		if e.Value != "" {
			return false
		}
	}
	for _, r := range p.Ranges {
		if r.Min != nil || r.Max != nil {
			return false
		}
	}
	return true
}

// SortSpec orders results by Field. Numeric fields compare numerically;
// fields no record reports as numeric compare as text.
type SortSpec struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// Bound returns a pointer to v for use in a Range.
func Bound(v float64) *float64 { return &v }

// Run returns the records matching p, ordered by s when s names a field.
// The input is never modified and ordering is stable, so equal keys keep
// input order.
func Run[R Record](records []R, p PredicateSet, s *SortSpec) []R {
	m := newMatcher(p)
	out := make([]R, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	if s == nil || s.Field == "" {
		return out
	}

	numeric := false
	for _, r := range out {
		if _, ok := r.Number(s.Field); ok {
			numeric = true
			break
		}
	}
	less := func(a, b R) bool {
		if numeric {
			x, _ := a.Number(s.Field)
			y, _ := b.Number(s.Field)
			return x < y
		}
		x, _ := a.Text(s.Field)
		y, _ := b.Text(s.Field)
		return x < y
	}
	sort.SliceStable(out, func(i, j int) bool {
		if s.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

type matcher struct {
	p      PredicateSet
	caser  cases.Caser
	folded string
}

func newMatcher(p PredicateSet) *matcher {
	m := &matcher{p: p, caser: cases.Fold()}
	if p.Search.Term != "" {
		m.folded = m.caser.String(p.Search.Term)
	}
	return m
}

func (m *matcher) match(r Record) bool {
	return m.search(r) && m.equals(r) && m.ranges(r) && m.flags(r)
}

func (m *matcher) search(r Record) bool {
	if m.p.Search.Term == "" {
		return true
	}
	for _, f := range m.p.Search.Fields {
		v, ok := r.Text(f)
		if ok && strings.Contains(m.caser.String(v), m.folded) {
			return true
		}
	}
	return false
}

func (m *matcher) equals(r Record) bool {
	for _, e := range m.p.Equals {
		if e.Value == "" {
			continue
		}
		if v, _ := r.Text(e.Field); v != e.Value {
			return false
		}
	}
	return true
}

func (m *matcher) ranges(r Record) bool {
	for _, rg := range m.p.Ranges {
		v, _ := r.Number(rg.Field)
		if rg.Min != nil && v < *rg.Min {
			return false
		}
		if rg.Max != nil && v > *rg.Max {
			return false
		}
	}
	return true
}

func (m *matcher) flags(r Record) bool {
	for field, want := range m.p.Flags {
		if v, _ := r.Flag(field); v != want {
			return false
		}
	}
	return true
}
