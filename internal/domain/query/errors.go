package query

import "errors"

// ErrUnknownSort is returned for an unrecognised sort preset.
var ErrUnknownSort = errors.New("unknown sort preset")
