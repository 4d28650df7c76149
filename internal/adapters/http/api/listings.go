package api

import (
	"context"
	"net/http"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/query"
)

// ListingDependencies defines the interface for the marketplace.
type ListingDependencies interface {
	AddListing(ctx context.Context, l model.Listing) (model.Listing, error)
	QueryListings(ctx context.Context, p query.PredicateSet, sortName string, limit int) ([]model.Listing, error)
}

// ListingsHandler handles marketplace requests.
type ListingsHandler struct {
	deps     ListingDependencies
	maxLimit int
}

// NewListingsHandler creates a new listings handler.
func NewListingsHandler(deps ListingDependencies, maxLimit int) *ListingsHandler {
	return &ListingsHandler{deps: deps, maxLimit: maxLimit}
}

// Listing filters exposed as query parameters.
var (
	listingEquals = map[string]string{ //nolint:gochecknoglobals // fixed parameter table
		"sex":      "sex",
		"breed":    "breed",
		"province": "province",
		"city":     "city",
		"color":    "color",
	}
	listingRanges = map[string]string{ //nolint:gochecknoglobals // fixed parameter table
		"age":   "age",
		"price": "price",
		"score": "overall_score",
	}
	listingFlags = []string{"negotiable", "featured"} //nolint:gochecknoglobals // fixed parameter table
)

// HandlePostListing handles POST /listings.
func (h *ListingsHandler) HandlePostListing(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_listing"
	var l model.Listing
	if err := decodeJSON(r, &l); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	created, err := h.deps.AddListing(r.Context(), l)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleListListings handles GET /listings with search, filters and a
// sort preset (newest, price_low, price_high, score, popular).
func (h *ListingsHandler) HandleListListings(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_listings"
	q := r.URL.Query()
	p, err := predicates(q, listingEquals, listingRanges, listingFlags)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	limit, err := parseLimit(q, h.maxLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	out, err := h.deps.QueryListings(r.Context(), p, q.Get("sort"), limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
