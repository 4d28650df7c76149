package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/jamal/internal/domain/compat"
	"github.com/okian/jamal/internal/domain/history"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/query"
)

// ProfileDependencies defines the interface for the breeding registry.
type ProfileDependencies interface {
	RegisterProfile(ctx context.Context, p model.SubjectProfile) (model.SubjectProfile, error)
	Profile(ctx context.Context, id string) (model.SubjectProfile, error)
	QueryProfiles(ctx context.Context, p query.PredicateSet, spec *query.SortSpec, limit int) ([]model.SubjectProfile, error)
	History(ctx context.Context, id string) (history.Report, error)
	Matches(ctx context.Context, id string, limit int) ([]compat.Match, error)
}

// ProfilesHandler handles profile, history and match requests.
type ProfilesHandler struct {
	deps          ProfileDependencies
	maxQueryLimit int
	maxMatchLimit int
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps ProfileDependencies, maxQueryLimit, maxMatchLimit int) *ProfilesHandler {
	return &ProfilesHandler{deps: deps, maxQueryLimit: maxQueryLimit, maxMatchLimit: maxMatchLimit}
}

// Profile filters exposed as query parameters.
var (
	profileEquals = map[string]string{ //nolint:gochecknoglobals // fixed parameter table
		"sex":      "sex",
		"breed":    "breed",
		"province": "province",
		"city":     "city",
		"color":    "color",
	}
	profileRanges = map[string]string{ //nolint:gochecknoglobals // fixed parameter table
		"age":   "age",
		"score": "overall_score",
	}
)

// HandlePostProfile handles POST /profiles.
func (h *ProfilesHandler) HandlePostProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_profile"
	var p model.SubjectProfile
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	// Derived fields are never taken from the client.
	p.Overall = 0
	created, err := h.deps.RegisterProfile(r.Context(), p)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGetProfile handles GET /profiles/{id}.
func (h *ProfilesHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	p, err := h.deps.Profile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleListProfiles handles GET /profiles?q=&sex=&breed=&min_age=&sort=&desc=&limit=.
func (h *ProfilesHandler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_profiles"
	q := r.URL.Query()
	p, err := predicates(q, profileEquals, profileRanges, nil)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	limit, err := parseLimit(q, h.maxQueryLimit, h.maxQueryLimit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var spec *query.SortSpec
	if field := strings.TrimSpace(q.Get("sort")); field != "" {
		desc, err := strconv.ParseBool(q.Get("desc"))
		if err != nil && q.Get("desc") != "" {
			writeFailure(w, op, fmt.Errorf("%w: desc must be a boolean", ErrBadRequest))
			return
		}
		spec = &query.SortSpec{Field: field, Desc: desc}
	}
	out, err := h.deps.QueryProfiles(r.Context(), p, spec, limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetHistory handles GET /profiles/{id}/history.
func (h *ProfilesHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	rep, err := h.deps.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleGetMatches handles GET /profiles/{id}/matches?limit=N.
func (h *ProfilesHandler) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matches"
	limit, err := parseLimit(r.URL.Query(), defaultLeaderboardLimit, h.maxMatchLimit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	matches, err := h.deps.Matches(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}
