package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/report"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Customer and balance reports",
	}
	cmd.AddCommand(
		newTopCustomersCommand(a),
		newActiveCustomersCommand(a),
		newAboveAverageCommand(a),
		newLoansCommand(a),
	)
	return cmd
}

func newTopCustomersCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top-customers",
		Short: "Customers with the highest total balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := reports.TopCustomers(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printer(cmd).TopCustomers(rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", report.DefaultTopLimit, "number of customers")

	return cmd
}

func newActiveCustomersCommand(a *app) *cobra.Command {
	var since string
	var p report.ActiveParams

	cmd := &cobra.Command{
		Use:   "active-customers",
		Short: "Customers with the most transactions since a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if p.Since, err = ledger.ParseDate(since); err != nil {
				return err
			}
			reports, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := reports.ActiveCustomers(cmd.Context(), p)
			if err != nil {
				return err
			}
			printer(cmd).ActiveCustomers(rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "count transactions on or after YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("since")
	cmd.Flags().IntVar(&p.MinCount, "min", report.DefaultActiveMinCount, "list customers with more than this many transactions")
	cmd.Flags().IntVar(&p.Limit, "limit", report.DefaultActiveLimit, "number of customers")

	return cmd
}

func newAboveAverageCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "above-average",
		Short: "Accounts with a balance above the average",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			rows, err := reports.AboveAverage(cmd.Context())
			if err != nil {
				return err
			}
			printer(cmd).AboveAverage(rows)
			return nil
		},
	}
}

func newLoansCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "loans",
		Short: "List all loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			loans, err := reports.Loans(cmd.Context())
			if err != nil {
				return err
			}
			printer(cmd).Loans(loans)
			return nil
		},
	}
}
