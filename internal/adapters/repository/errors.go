package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrClosed        = errors.New("store closed")
)
