package commands

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/output"
)

func newBranchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Branch-wide operations",
	}
	cmd.AddCommand(newBranchCreditCommand(a))
	return cmd
}

func newBranchCreditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credit ID AMOUNT",
		Short: "Add an amount to every account of a branch",
		Long:  "Add AMOUNT to the balance of every account of the branch. A negative AMOUNT debits them.",
		Example: "  teller branch credit 3 25.00\n" +
			"  teller branch credit 3 -10.00",
		Args: exactIDs(2, "ID", "AMOUNT"),
		RunE: func(cmd *cobra.Command, args []string) error {
			branchID, err := id.Parse("branch", args[0])
			if err != nil {
				return err
			}
			amount, err := ledger.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return runBranchCredit(cmd, a, branchID, amount)
		},
	}
	// Stop flag parsing at the first positional argument so a negative
	// amount is not read as a shorthand flag.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runBranchCredit(cmd *cobra.Command, a *app, branchID int64, amount decimal.Decimal) error {
	svc, err := a.ledger(cmd.Context())
	if err != nil {
		return err
	}
	res, err := svc.CreditBranch(cmd.Context(), branchID, amount)
	if err != nil {
		return err
	}
	p := printer(cmd)
	if res.Credited() == 0 {
		p.Warning("Branch %s has no accounts; nothing changed", id.Label(branchID))
		return nil
	}
	p.Success("Credited %s to %d accounts of branch %s", output.Money(amount), res.Credited(), id.Label(branchID))
	return nil
}
