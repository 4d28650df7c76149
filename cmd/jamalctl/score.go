package main

import (
	"fmt"
	"strconv"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/internal/seed"
	"github.com/spf13/cobra"
)

type scoreResult struct {
	SubjectID string         `json:"camel_id,omitempty"`
	Profile   string         `json:"profile"`
	Overall   float64        `json:"overall_score"`
	Category  model.Category `json:"category"`
}

const scoreExample = `  jamalctl score --profile 4-region --score head=80,neck=70,body=90,size=60
  jamalctl score -f herd.yaml`

func newScoreCmd(root *rootOptions) *cobra.Command {
	var (
		profile string
		raw     map[string]string
	)
	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Aggregate sub-scores into an overall score",
		Example: scoreExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agg := scoring.NewAggregator(scoring.WithBeautyThreshold(root.threshold))
			if len(raw) > 0 {
				scores, err := parseScores(raw)
				if err != nil {
					return err
				}
				overall, err := agg.Aggregate(scores, profile)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), scoreResult{Profile: profile, Overall: overall, Category: agg.Classify(overall)})
			}
			if root.fixture == "" {
				return fmt.Errorf("either --score or --fixture is required")
			}
			f, err := seed.LoadFixture(root.fixture)
			if err != nil {
				return err
			}
			out := make([]scoreResult, 0, len(f.Evaluations))
			for i, e := range f.Evaluations {
				p := e.Profile
				if p == "" {
					p = scoring.FiveRegion
				}
				overall, err := agg.Aggregate(e.Scores, p)
				if err != nil {
					return fmt.Errorf("evaluation %d: %w", i, err)
				}
				out = append(out, scoreResult{SubjectID: e.SubjectID, Profile: p, Overall: overall, Category: agg.Classify(overall)})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", scoring.FourRegion, "Weight profile name")
	cmd.Flags().StringToStringVar(&raw, "score", nil, "Region scores as region=value pairs")
	return cmd
}

func parseScores(raw map[string]string) (model.SubScores, error) {
	out := make(model.SubScores, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("score %s: %w", k, err)
		}
		out[model.Region(k)] = f
	}
	return out, nil
}
