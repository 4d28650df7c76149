package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/jamal/internal/domain/compat"
)

// CompatibilityDependencies defines the interface for pairwise scoring.
type CompatibilityDependencies interface {
	Compatibility(ctx context.Context, aID, bID string) (compat.Result, error)
}

// CompatibilityHandler handles compatibility requests.
type CompatibilityHandler struct {
	deps CompatibilityDependencies
}

// NewCompatibilityHandler creates a new compatibility handler.
func NewCompatibilityHandler(deps CompatibilityDependencies) *CompatibilityHandler {
	return &CompatibilityHandler{deps: deps}
}

type compatibilityRequest struct {
	AID string `json:"a_id"`
	BID string `json:"b_id"`
}

type compatibilityResponse struct {
	AID string `json:"a_id"`
	BID string `json:"b_id"`
	compat.Result
}

// HandlePostCompatibility handles POST /compatibility. The score is
// directional: b is rated as a partner for a.
func (h *CompatibilityHandler) HandlePostCompatibility(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_compatibility"
	var req compatibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.AID) == "" || strings.TrimSpace(req.BID) == "" {
		writeFailure(w, op, fmt.Errorf("%w: a_id and b_id are required", ErrBadRequest))
		return
	}
	res, err := h.deps.Compatibility(r.Context(), req.AID, req.BID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, compatibilityResponse{AID: req.AID, BID: req.BID, Result: res})
}
