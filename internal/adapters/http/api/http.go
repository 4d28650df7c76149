// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/jamal/internal/adapters/repository"
)

// Dependencies required by HTTP handlers. Each handler depends only on its
// own slice of this bundle.
type Dependencies interface {
	DetectionDependencies
	EvaluationDependencies
	ProfileDependencies
	CompatibilityDependencies
	ListingDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Default response caps.
const (
	defaultMaxLeaderboardLimit = 100
	defaultMaxQueryLimit       = 500
	defaultLeaderboardLimit    = 10
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	detectionsHandler    *DetectionsHandler
	evaluationsHandler   *EvaluationsHandler
	profilesHandler      *ProfilesHandler
	compatibilityHandler *CompatibilityHandler
	listingsHandler      *ListingsHandler
	leaderboardHandler   *LeaderboardHandler
	rankHandler          *RankHandler

	maxLeaderboardLimit int
	maxQueryLimit       int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		maxQueryLimit:       defaultMaxQueryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.detectionsHandler = NewDetectionsHandler(deps)
	s.evaluationsHandler = NewEvaluationsHandler(deps)
	s.profilesHandler = NewProfilesHandler(deps, s.maxQueryLimit, s.maxLeaderboardLimit)
	s.compatibilityHandler = NewCompatibilityHandler(deps)
	s.listingsHandler = NewListingsHandler(deps, s.maxQueryLimit)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLeaderboardLimit)
	s.rankHandler = NewRankHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /detections", MetricsMiddleware(s.detectionsHandler.HandlePostDetection, "detections"))
	mux.HandleFunc("POST /evaluations", MetricsMiddleware(s.evaluationsHandler.HandlePostEvaluation, "evaluations"))

	mux.HandleFunc("POST /profiles", MetricsMiddleware(s.profilesHandler.HandlePostProfile, "profiles"))
	mux.HandleFunc("GET /profiles", MetricsMiddleware(s.profilesHandler.HandleListProfiles, "profiles"))
	mux.HandleFunc("GET /profiles/{id}", MetricsMiddleware(s.profilesHandler.HandleGetProfile, "profile"))
	mux.HandleFunc("GET /profiles/{id}/history", MetricsMiddleware(s.profilesHandler.HandleGetHistory, "history"))
	mux.HandleFunc("GET /profiles/{id}/matches", MetricsMiddleware(s.profilesHandler.HandleGetMatches, "matches"))

	mux.HandleFunc("POST /compatibility", MetricsMiddleware(s.compatibilityHandler.HandlePostCompatibility, "compatibility"))

	mux.HandleFunc("POST /listings", MetricsMiddleware(s.listingsHandler.HandlePostListing, "listings"))
	mux.HandleFunc("GET /listings", MetricsMiddleware(s.listingsHandler.HandleListListings, "listings"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a status and code and writes it.
func writeFailure(w http.ResponseWriter, op string, err error) {
	kind, status, code := classify(err)
	writeError(w, status, code, WrapKind(op, kind, err))
}

// decodeJSON reads a single JSON object from r, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
