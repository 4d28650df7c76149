package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/internal/seed"
	"github.com/okian/jamal/pkg/logger"
	"github.com/spf13/cobra"
)

// ErrNoFixture is returned by commands that need --fixture.
var ErrNoFixture = errors.New("--fixture is required")

type rootOptions struct {
	fixture   string
	threshold float64
	verbose   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "jamalctl",
		Short:        "Camel beauty scoring toolkit",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.fixture, "fixture", "f", "", "YAML or JSON fixture with camels, evaluations and listings")
	cmd.PersistentFlags().Float64Var(&opts.threshold, "threshold", scoring.DefaultBeautyThreshold, "Overall score at or above which a camel is beautiful")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newScoreCmd(opts),
		newCompatCmd(opts),
		newHistoryCmd(opts),
		newQueryCmd(opts),
		newSeedCmd(),
	)
	return cmd
}

// loadService replays the fixture into an in-memory service. The detection
// pipeline is never started.
func loadService(ctx context.Context, opts *rootOptions) (*service.Service, error) {
	if opts.fixture == "" {
		return nil, ErrNoFixture
	}
	f, err := seed.LoadFixture(opts.fixture)
	if err != nil {
		return nil, err
	}
	svc := service.New(service.WithBeautyThreshold(opts.threshold))
	for i, c := range f.Camels {
		if _, err := svc.RegisterProfile(ctx, c); err != nil {
			return nil, fmt.Errorf("camel %d: %w", i, err)
		}
	}
	for i, e := range f.Evaluations {
		if _, err := svc.RecordEvaluation(ctx, e); err != nil {
			return nil, fmt.Errorf("evaluation %d: %w", i, err)
		}
	}
	for i, l := range f.Listings {
		if _, err := svc.AddListing(ctx, l); err != nil {
			return nil, fmt.Errorf("listing %d: %w", i, err)
		}
	}
	return svc, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
