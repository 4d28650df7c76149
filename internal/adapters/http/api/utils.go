package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/jamal/internal/domain/query"
)

// parseLimit reads ?limit. Empty yields def; values outside [1, max] fail.
func parseLimit(q url.Values, def, maxLimit int) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return min(def, maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > maxLimit {
		return 0, fmt.Errorf("%w: limit exceeds %d", ErrBadRequest, maxLimit)
	}
	return n, nil
}

// floatParam reads an optional numeric query parameter.
func floatParam(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", ErrBadRequest, key)
	}
	return &v, nil
}

// rangeParam builds a Range from ?min_<name>= and ?max_<name>=.
func rangeParam(q url.Values, name, field string) (*query.Range, error) {
	lo, err := floatParam(q, "min_"+name)
	if err != nil {
		return nil, err
	}
	hi, err := floatParam(q, "max_"+name)
	if err != nil {
		return nil, err
	}
	if lo == nil && hi == nil {
		return nil, nil
	}
	return &query.Range{Field: field, Min: lo, Max: hi}, nil
}

// predicates turns query parameters into a PredicateSet. equals maps a
// parameter to the coded field it constrains, ranges maps a min_/max_ suffix
// to a numeric field, and flags lists boolean parameters.
func predicates(q url.Values, equals, ranges map[string]string, flags []string) (query.PredicateSet, error) {
	p := query.PredicateSet{Search: query.Search{Term: strings.TrimSpace(q.Get("q"))}}
	for param, field := range equals {
		if v := strings.TrimSpace(q.Get(param)); v != "" {
			p.Equals = append(p.Equals, query.Equal{Field: field, Value: v})
		}
	}
	for name, field := range ranges {
		r, err := rangeParam(q, name, field)
		if err != nil {
			return query.PredicateSet{}, err
		}
		if r != nil {
			p.Ranges = append(p.Ranges, *r)
		}
	}
	for _, f := range flags {
		raw := strings.TrimSpace(q.Get(f))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return query.PredicateSet{}, fmt.Errorf("%w: %s must be a boolean", ErrBadRequest, f)
		}
		if p.Flags == nil {
			p.Flags = make(map[string]bool)
		}
		p.Flags[f] = v
	}
	return p, nil
}
