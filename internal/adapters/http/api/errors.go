package api

import (
	"errors"
	"net/http"

	eventqueue "github.com/okian/jamal/internal/adapters/mq/queue"
	"github.com/okian/jamal/internal/adapters/repository"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/history"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/query"
	"github.com/okian/jamal/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal error")
)

// KindError ties an operation and an API kind to the underlying cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// classify maps domain and adapter errors to an API kind, HTTP status and
// machine-readable code.
func classify(err error) (error, int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound, http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrAlreadyExists):
		return ErrConflict, http.StatusConflict, "already_exists"
	case errors.Is(err, history.ErrEmptyHistory):
		return ErrConflict, http.StatusConflict, "empty_history"
	case errors.Is(err, scoring.ErrInvalidScoreRange), errors.Is(err, model.ErrInvalidScoreRange):
		return ErrBadRequest, http.StatusBadRequest, "invalid_score_range"
	case errors.Is(err, scoring.ErrWeightMismatch):
		return ErrBadRequest, http.StatusBadRequest, "weight_mismatch"
	case errors.Is(err, scoring.ErrUnknownProfile):
		return ErrBadRequest, http.StatusBadRequest, "unknown_profile"
	case errors.Is(err, query.ErrUnknownSort):
		return ErrBadRequest, http.StatusBadRequest, "unknown_sort"
	case errors.Is(err, repository.ErrInvalidLimit):
		return ErrBadRequest, http.StatusBadRequest, "invalid_limit"
	case errors.Is(err, model.ErrInvalidProfile),
		errors.Is(err, model.ErrInvalidEvaluation),
		errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, ErrBadRequest):
		return ErrBadRequest, http.StatusBadRequest, "bad_request"
	case errors.Is(err, eventqueue.ErrFull):
		return ErrBackpressure, http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, eventqueue.ErrClosed),
		errors.Is(err, service.ErrNotStarted),
		errors.Is(err, service.ErrStopped):
		return ErrUnavailable, http.StatusServiceUnavailable, "unavailable"
	}
	return ErrInternal, http.StatusInternalServerError, "internal_error"
}
