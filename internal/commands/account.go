package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/report"
)

func newAccountCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Open, close, inspect and re-branch accounts",
	}
	cmd.AddCommand(
		newAccountOpenCommand(a),
		newAccountCloseCommand(a),
		newAccountShowCommand(a),
		newAccountStatementCommand(a),
		newAccountDetachCommand(a),
		newAccountAssignCommand(a),
	)
	return cmd
}

func newAccountOpenCommand(a *app) *cobra.Command {
	var customer, typ, balance, date string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open an account for an existing customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := openParams(customer, typ, balance, date)
			if err != nil {
				return err
			}
			return runAccountOpen(cmd, a, params)
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "customer ID (required)")
	_ = cmd.MarkFlagRequired("customer")
	cmd.Flags().StringVar(&typ, "type", "", "Checking or Savings (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&balance, "balance", "0", "opening balance")
	cmd.Flags().StringVar(&date, "date", "", "date opened as YYYY-MM-DD (default today)")

	return cmd
}

func openParams(customer, typ, balance, date string) (ledger.OpenAccountParams, error) {
	var p ledger.OpenAccountParams
	var err error
	if p.CustomerID, err = id.Parse("customer", customer); err != nil {
		return p, err
	}
	t, ok := model.ParseAccountType(typ)
	if !ok {
		return p, fmt.Errorf("unknown account type %q: %w", typ, ledger.ErrInvalidArgument)
	}
	p.Type = t
	if p.InitialBalance, err = ledger.ParseAmount(balance); err != nil {
		return p, err
	}
	if date != "" {
		if p.DateOpened, err = ledger.ParseDate(date); err != nil {
			return p, err
		}
	}
	return p, nil
}

func runAccountOpen(cmd *cobra.Command, a *app, p ledger.OpenAccountParams) error {
	svc, err := a.ledger(cmd.Context())
	if err != nil {
		return err
	}
	accountID, err := svc.OpenAccount(cmd.Context(), p)
	if err != nil {
		return err
	}
	printer(cmd).Success("Opened %s account %s for customer %s", p.Type, id.Label(accountID), id.Label(p.CustomerID))
	return nil
}

func newAccountCloseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close ID",
		Short: "Close an account with a zero balance",
		Args:  exactIDs(1, "ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.Parse("account", args[0])
			if err != nil {
				return err
			}
			svc, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.CloseAccount(cmd.Context(), accountID); err != nil {
				return err
			}
			printer(cmd).Success("Closed account %s", id.Label(accountID))
			return nil
		},
	}
}

func newAccountShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show an account",
		Args:  exactIDs(1, "ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.Parse("account", args[0])
			if err != nil {
				return err
			}
			reports, err := a.reports(cmd.Context())
			if err != nil {
				return err
			}
			acct, err := reports.Account(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			printer(cmd).Account(acct)
			return nil
		},
	}
}

func newAccountStatementCommand(a *app) *cobra.Command {
	var csv bool

	cmd := &cobra.Command{
		Use:   "statement ID",
		Short: "List an account's transactions",
		Args:  exactIDs(1, "ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.Parse("account", args[0])
			if err != nil {
				return err
			}
			return runAccountStatement(cmd, a, accountID, csv)
		},
	}

	cmd.Flags().BoolVar(&csv, "csv", false, "write CSV instead of a table")

	return cmd
}

func runAccountStatement(cmd *cobra.Command, a *app, accountID int64, csv bool) error {
	reports, err := a.reports(cmd.Context())
	if err != nil {
		return err
	}
	txns, err := reports.Statement(cmd.Context(), accountID)
	if err != nil {
		return err
	}
	if csv {
		return report.WriteStatement(cmd.OutOrStdout(), txns)
	}
	printer(cmd).Statement(txns)
	return nil
}

func newAccountDetachCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detach ID",
		Short: "Remove an account from its branch",
		Args:  exactIDs(1, "ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.Parse("account", args[0])
			if err != nil {
				return err
			}
			svc, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.DetachFromBranch(cmd.Context(), accountID); err != nil {
				return err
			}
			printer(cmd).Success("Account %s has no branch", id.Label(accountID))
			return nil
		},
	}
}

func newAccountAssignCommand(a *app) *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "assign ID",
		Short: "Attach an account to a branch",
		Args:  exactIDs(1, "ID"),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.Parse("account", args[0])
			if err != nil {
				return err
			}
			branchID, err := id.Parse("branch", branch)
			if err != nil {
				return err
			}
			svc, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.AssignToBranch(cmd.Context(), accountID, branchID); err != nil {
				return err
			}
			printer(cmd).Success("Account %s now belongs to branch %s", id.Label(accountID), id.Label(branchID))
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch ID (required)")
	_ = cmd.MarkFlagRequired("branch")

	return cmd
}
