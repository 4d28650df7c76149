package seed

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/okian/jamal/internal/adapters/repository"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Run generates a fixture, posts it to cfg.BaseURL and verifies the
// leaderboard the server builds from it.
func Run(ctx context.Context, cfg Config) (Stats, error) {
	cfg = withDefaults(cfg)
	start := time.Now()
	log := logger.Named("seed")

	log.Info(ctx, "starting seed run",
		logger.String("base_url", cfg.BaseURL),
		logger.Int("camels", cfg.Camels),
		logger.Int("evaluations_per_camel", cfg.EvaluationsPerCamel),
		logger.Int("listings", cfg.Listings),
		logger.Int("workers", cfg.Workers),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Get(ctx, "/healthz", nil); err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}

	f := NewGenerator(cfg.Seed).Generate(cfg.Camels, cfg.EvaluationsPerCamel, cfg.Listings)
	if cfg.OutputFile != "" {
		if err := SaveFixture(cfg.OutputFile, f); err != nil {
			log.Warn(ctx, "failed to save fixture", logger.Error(err))
		} else {
			log.Info(ctx, "fixture saved", logger.String("path", cfg.OutputFile))
		}
	}

	stats, err := Submit(ctx, client, f, cfg.Workers)
	if err != nil {
		return stats, err
	}

	expected, err := ExpectedBest(f, scoring.NewAggregator())
	if err != nil {
		return stats, err
	}
	var entries []repository.Entry
	if err := client.Get(ctx, fmt.Sprintf("/leaderboard?limit=%d", cfg.TopN), &entries); err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(entries)
	if err := Verify(expected, entries, cfg.TopN); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "seed run completed",
		logger.Int("camels_posted", int(stats.CamelsPosted)),
		logger.Int("evaluations_posted", int(stats.EvaluationsPosted)),
		logger.Int("listings_posted", int(stats.ListingsPosted)),
		logger.Int("leaderboard_entries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// Submit posts camels, then evaluations, then listings. Each phase runs
// with up to workers concurrent requests and stops at the first failure.
func Submit(ctx context.Context, client *Client, f Fixture, workers int) (Stats, error) {
	var camels, evals, listings atomic.Int64

	camelPhase := make([]func(context.Context) error, 0, len(f.Camels))
	for _, c := range f.Camels {
		camelPhase = append(camelPhase, func(ctx context.Context) error {
			if err := client.Post(ctx, "/profiles", c, nil); err != nil {
				return err
			}
			camels.Add(1)
			return nil
		})
	}
	evalPhase := make([]func(context.Context) error, 0, len(f.Evaluations))
	for _, e := range f.Evaluations {
		evalPhase = append(evalPhase, func(ctx context.Context) error {
			if err := client.Post(ctx, "/evaluations", e, nil); err != nil {
				return err
			}
			evals.Add(1)
			return nil
		})
	}
	listingPhase := make([]func(context.Context) error, 0, len(f.Listings))
	for _, l := range f.Listings {
		listingPhase = append(listingPhase, func(ctx context.Context) error {
			if err := client.Post(ctx, "/listings", l, nil); err != nil {
				return err
			}
			listings.Add(1)
			return nil
		})
	}

	var err error
	for _, phase := range []struct {
		name  string
		tasks []func(context.Context) error
	}{
		{"camels", camelPhase},
		{"evaluations", evalPhase},
		{"listings", listingPhase},
	} {
		if err = runPhase(ctx, workers, phase.tasks); err != nil {
			err = fmt.Errorf("submit %s: %w", phase.name, err)
			break
		}
	}
	return Stats{
		CamelsPosted:      camels.Load(),
		EvaluationsPosted: evals.Load(),
		ListingsPosted:    listings.Load(),
	}, err
}

func runPhase(ctx context.Context, workers int, tasks []func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range tasks {
		g.Go(func() error { return task(gctx) })
	}
	return g.Wait()
}

func withDefaults(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:9080"
	}
	if cfg.Camels <= 0 {
		cfg.Camels = DefaultCamels
	}
	if cfg.EvaluationsPerCamel <= 0 {
		cfg.EvaluationsPerCamel = DefaultEvaluationsPerCamel
	}
	if cfg.Listings < 0 {
		cfg.Listings = 0
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}
