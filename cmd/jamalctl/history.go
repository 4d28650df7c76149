package main

import "github.com/spf13/cobra"

const historyExample = `  jamalctl history -f herd.yaml a`

func newHistoryCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "history <camel-id>",
		Short:   "Summarize a camel's evaluation history",
		Example: historyExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := loadService(ctx, root)
			if err != nil {
				return err
			}
			rep, err := svc.History(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
}
