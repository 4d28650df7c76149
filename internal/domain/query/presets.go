package query

import "fmt"

// Marketplace sort presets.
const (
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortScore     = "score"
	SortPopular   = "popular"
)

// Preset resolves a marketplace sort name. Newest and the empty name keep
// the store's order and return nil.
func Preset(name string) (*SortSpec, error) {
	switch name {
	case "", SortNewest:
		return nil, nil
	case SortPriceLow:
		return &SortSpec{Field: "price"}, nil
	case SortPriceHigh:
		return &SortSpec{Field: "price", Desc: true}, nil
	case SortScore:
		return &SortSpec{Field: "overall_score", Desc: true}, nil
	case SortPopular:
		return &SortSpec{Field: "view_count", Desc: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSort, name)
}

// ListingSearchFields are the text fields the marketplace search covers.
var ListingSearchFields = []string{"title", "camel_name", "city"} //nolint:gochecknoglobals // fixed field list

// ProfileSearchFields are the text fields the registry search covers.
var ProfileSearchFields = []string{"name", "breed", "city"} //nolint:gochecknoglobals // fixed field list
