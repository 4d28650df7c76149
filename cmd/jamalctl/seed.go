package main

import (
	"github.com/okian/jamal/internal/seed"
	"github.com/spf13/cobra"
)

const seedExample = `  jamalctl seed --url http://localhost:9080 --camels 500 --evals 4
  jamalctl seed --seed 7 --output herd.yaml`

func newSeedCmd() *cobra.Command {
	cfg := seed.Config{}
	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Post a generated herd to a running server and verify its leaderboard",
		Example: seedExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := seed.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the jamal server")
	f.IntVar(&cfg.Camels, "camels", seed.DefaultCamels, "Camels to register")
	f.IntVar(&cfg.EvaluationsPerCamel, "evals", seed.DefaultEvaluationsPerCamel, "Expert evaluations per camel")
	f.IntVar(&cfg.Listings, "listings", seed.DefaultListings, "Marketplace listings to post")
	f.IntVar(&cfg.TopN, "top", seed.DefaultTopN, "Leaderboard entries to verify")
	f.IntVar(&cfg.Workers, "workers", 0, "Concurrent requests (0 for twice the CPU count)")
	f.DurationVar(&cfg.Timeout, "timeout", seed.DefaultTimeout, "Per-request timeout")
	f.Uint64Var(&cfg.Seed, "seed", 1, "Random seed for generated data")
	f.StringVar(&cfg.OutputFile, "output", "", "Write the generated fixture to this .yaml or .json file")
	return cmd
}
