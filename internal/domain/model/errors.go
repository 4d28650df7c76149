package model

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidScoreRange = errors.New("sub-score outside [0, 100]")
	ErrInvalidProfile    = errors.New("invalid profile")
	ErrInvalidEvaluation = errors.New("invalid evaluation")
)
