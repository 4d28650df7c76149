package api

import (
	"context"
	"net/http"

	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/model"
)

// EvaluationDependencies defines the interface for synchronous evaluations.
type EvaluationDependencies interface {
	RecordEvaluation(ctx context.Context, in service.EvaluationInput) (model.Evaluation, error)
}

// EvaluationsHandler handles evaluation requests.
type EvaluationsHandler struct {
	deps EvaluationDependencies
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps}
}

// HandlePostEvaluation handles POST /evaluations.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	var in service.EvaluationInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	e, err := h.deps.RecordEvaluation(r.Context(), in)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
