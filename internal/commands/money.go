package commands

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/output"
)

type postFunc func(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)

func newDepositCommand(a *app) *cobra.Command {
	return newPostCommand(a, "deposit", "Add money to an account", "Deposited",
		func(svc *ledger.Service) postFunc { return svc.Deposit })
}

func newWithdrawCommand(a *app) *cobra.Command {
	return newPostCommand(a, "withdraw", "Take money out of an account", "Withdrew",
		func(svc *ledger.Service) postFunc { return svc.Withdraw })
}

func newPostCommand(a *app, use, short, verb string, op func(*ledger.Service) postFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID AMOUNT",
		Short: short,
		Args:  exactIDs(2, "ID", "AMOUNT"),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := id.Parse("account", args[0])
			if err != nil {
				return err
			}
			amount, err := ledger.ParseAmount(args[1])
			if err != nil {
				return err
			}
			svc, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			balance, err := op(svc)(cmd.Context(), accountID, amount)
			if err != nil {
				return err
			}
			printer(cmd).Success("%s %s; account %s balance is %s",
				verb, output.Money(amount), id.Label(accountID), output.Money(balance))
			return nil
		},
	}
}

func newTransferCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer FROM TO AMOUNT",
		Short: "Move money between two accounts",
		Args:  exactIDs(3, "FROM", "TO", "AMOUNT"),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := id.Parse("source account", args[0])
			if err != nil {
				return err
			}
			to, err := id.Parse("target account", args[1])
			if err != nil {
				return err
			}
			amount, err := ledger.ParseAmount(args[2])
			if err != nil {
				return err
			}
			return runTransfer(cmd, a, ledger.TransferParams{From: from, To: to, Amount: amount})
		},
	}
}

func runTransfer(cmd *cobra.Command, a *app, p ledger.TransferParams) error {
	svc, err := a.ledger(cmd.Context())
	if err != nil {
		return err
	}
	res, err := svc.Transfer(cmd.Context(), p)
	if err != nil {
		return err
	}
	printer(cmd).Success("Transferred %s from %s (now %s) to %s (now %s)",
		output.Money(p.Amount), id.Label(p.From), output.Money(res.FromBalance),
		id.Label(p.To), output.Money(res.ToBalance))
	return nil
}
