package main

import "github.com/spf13/cobra"

const compatExample = `  jamalctl compat -f herd.yaml a b
  jamalctl compat -f herd.yaml a --limit 5`

func newCompatCmd(root *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "compat <camel-id> [partner-id]",
		Short:   "Score a breeding pair, or rank partners for one camel",
		Example: compatExample,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := loadService(ctx, root)
			if err != nil {
				return err
			}
			if len(args) == 2 {
				res, err := svc.Compatibility(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}
			matches, err := svc.Matches(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), matches)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum partners to list (0 for all)")
	return cmd
}
