package main

import (
	"fmt"
	"strconv"

	"github.com/okian/jamal/internal/domain/query"
	"github.com/spf13/cobra"
)

const queryExample = `  jamalctl query -f herd.yaml listings --q majaheem --sort price_low --max price=50000
  jamalctl query -f herd.yaml profiles --eq sex=female --sort age --desc`

// Collections the query command can search.
const (
	collectionListings = "listings"
	collectionProfiles = "profiles"
)

type queryOptions struct {
	term   string
	fields []string
	equals map[string]string
	mins   map[string]string
	maxs   map[string]string
	flags  map[string]string
	sort   string
	desc   bool
	limit  int
}

func newQueryCmd(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:       "query <listings|profiles>",
		Short:     "Search, filter and sort fixture records",
		Example:   queryExample,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{collectionListings, collectionProfiles},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.predicates()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := loadService(ctx, root)
			if err != nil {
				return err
			}
			switch args[0] {
			case collectionListings:
				out, err := svc.QueryListings(ctx, p, opts.sort, opts.limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			case collectionProfiles:
				var spec *query.SortSpec
				if opts.sort != "" {
					spec = &query.SortSpec{Field: opts.sort, Desc: opts.desc}
				}
				out, err := svc.QueryProfiles(ctx, p, spec, opts.limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			default:
				return fmt.Errorf("unknown collection %q", args[0])
			}
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.term, "q", "", "Case-insensitive search term")
	f.StringSliceVar(&opts.fields, "fields", nil, "Fields the search term covers (defaults per collection)")
	f.StringToStringVar(&opts.equals, "eq", nil, "Exact matches as field=value")
	f.StringToStringVar(&opts.mins, "min", nil, "Lower bounds as field=number")
	f.StringToStringVar(&opts.maxs, "max", nil, "Upper bounds as field=number")
	f.StringToStringVar(&opts.flags, "flag", nil, "Boolean filters as field=true|false")
	f.StringVar(&opts.sort, "sort", "", "Sort preset for listings, field name for profiles")
	f.BoolVar(&opts.desc, "desc", false, "Descending order for profile sorts")
	f.IntVar(&opts.limit, "limit", 0, "Maximum results (0 for all)")
	return cmd
}

func (o *queryOptions) predicates() (query.PredicateSet, error) {
	p := query.PredicateSet{Search: query.Search{Term: o.term, Fields: o.fields}}
	for field, v := range o.equals {
		p.Equals = append(p.Equals, query.Equal{Field: field, Value: v})
	}
	bounds := map[string]*query.Range{}
	for _, side := range []struct {
		values map[string]string
		lower  bool
	}{{o.mins, true}, {o.maxs, false}} {
		for field, raw := range side.values {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return query.PredicateSet{}, fmt.Errorf("bound %s: %w", field, err)
			}
			r, ok := bounds[field]
			if !ok {
				r = &query.Range{Field: field}
				bounds[field] = r
			}
			if side.lower {
				r.Min = query.Bound(v)
			} else {
				r.Max = query.Bound(v)
			}
		}
	}
	for _, r := range bounds {
		p.Ranges = append(p.Ranges, *r)
	}
	for field, raw := range o.flags {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return query.PredicateSet{}, fmt.Errorf("flag %s: %w", field, err)
		}
		if p.Flags == nil {
			p.Flags = make(map[string]bool)
		}
		p.Flags[field] = v
	}
	return p, nil
}
