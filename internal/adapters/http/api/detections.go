package api

import (
	"context"
	"net/http"

	service "github.com/okian/jamal/internal/app"
)

// DetectionDependencies defines the interface for detection submission.
type DetectionDependencies interface {
	SubmitDetection(ctx context.Context, req service.DetectionRequest) (service.Submission, error)
}

// DetectionsHandler handles detection requests.
type DetectionsHandler struct {
	deps DetectionDependencies
}

// NewDetectionsHandler creates a new detections handler.
func NewDetectionsHandler(deps DetectionDependencies) *DetectionsHandler {
	return &DetectionsHandler{deps: deps}
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id,omitempty"`
	Key       string `json:"idempotency_key"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostDetection handles POST /detections. New jobs get 202, repeated
// idempotency keys 200 and a full queue 429.
func (h *DetectionsHandler) HandlePostDetection(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_detection"
	var req service.DetectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, err := h.deps.SubmitDetection(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if sub.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Key: sub.Key, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: sub.JobID, Key: sub.Key})
}
