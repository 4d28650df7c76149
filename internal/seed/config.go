// Package seed generates sample camels, evaluations and listings, posts
// them to a running server and checks the leaderboard it builds.
package seed

import "time"

// Default generation sizes.
const (
	DefaultCamels              = 200
	DefaultEvaluationsPerCamel = 3
	DefaultListings            = 50
	DefaultTopN                = 50
	DefaultTimeout             = 30 * time.Second
)

// Config holds configuration for a seed run.
type Config struct {
	BaseURL             string        // Base URL of the service
	Camels              int           // Number of camels to register
	EvaluationsPerCamel int           // Expert evaluations per camel
	Listings            int           // Number of marketplace listings
	TopN                int           // Leaderboard entries to verify
	Workers             int           // Concurrent requests
	Timeout             time.Duration // HTTP request timeout
	Seed                uint64        // RNG seed for scores and attributes
	OutputFile          string        // Optional fixture output (.yaml or .json)
}

// Stats holds run statistics.
type Stats struct {
	CamelsPosted       int64         `json:"camels_posted"`
	EvaluationsPosted  int64         `json:"evaluations_posted"`
	ListingsPosted     int64         `json:"listings_posted"`
	LeaderboardEntries int           `json:"leaderboard_entries"`
	Duration           time.Duration `json:"duration"`
}
