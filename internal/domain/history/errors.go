package history

import "errors"

// ErrEmptyHistory is returned when there are no evaluations to analyse.
var ErrEmptyHistory = errors.New("no evaluations to analyse")
