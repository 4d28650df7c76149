package api

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps ?limit on the leaderboard and match lists.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithMaxQueryLimit caps ?limit on listing and profile queries.
func WithMaxQueryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxQueryLimit = n
		}
	}
}
