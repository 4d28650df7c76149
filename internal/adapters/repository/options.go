package repository

import "time"

// LeaderboardOption applies a configuration option to the Leaderboard.
type LeaderboardOption func(*Leaderboard)

// WithClock sets the time source used to stamp leaderboard updates.
func WithClock(now func() time.Time) LeaderboardOption {
	return func(l *Leaderboard) {
		if now != nil {
			l.now = now
		}
	}
}

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// WithMaxOpenConns caps the connection pool size.
func WithMaxOpenConns(n int) SQLiteOption {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
