package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/tui"
)

func newMenuCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive teller menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.connect(ctx)
			if err != nil {
				return err
			}
			if err := migrate(ctx, st); err != nil {
				return err
			}
			svc, err := a.ledger(ctx)
			if err != nil {
				return err
			}
			reports, err := a.reports(ctx)
			if err != nil {
				return err
			}
			return tui.Run(ctx, svc, reports)
		},
	}
}
