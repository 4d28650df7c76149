package scoring

import (
	"errors"

	"github.com/okian/jamal/internal/domain/model"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidScoreRange is shared with the model layer so boundary and
	// aggregation failures match the same errors.Is target.
	ErrInvalidScoreRange  = model.ErrInvalidScoreRange
	ErrWeightMismatch     = errors.New("sub-score regions do not match weight profile")
	ErrInvalidWeightTable = errors.New("invalid weight table")
	ErrUnknownProfile     = errors.New("unknown weight profile")
)
