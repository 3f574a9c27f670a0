package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/output"
	"github.com/cleared-dev/teller/internal/report"
)

// field is one prompt shown before an action runs.
type field struct {
	label       string
	placeholder string
	optional    bool
}

// action is a menu entry. run receives one value per field, in order, and
// writes its result to p.
type action struct {
	title  string
	fields []field
	run    func(ctx context.Context, p *output.Printer, vals []string) error
}

var (
	accountField  = field{label: "Account ID", placeholder: "1"}
	branchField   = field{label: "Branch ID", placeholder: "1"}
	amountField   = field{label: "Amount", placeholder: "100.00"}
	customerField = field{label: "Customer ID", placeholder: "1"}
)

func buildActions(svc *ledger.Service, reports *report.Service) []action {
	return []action{
		{
			title: "Open account",
			fields: []field{
				customerField,
				{label: "Type", placeholder: "Checking or Savings"},
				{label: "Initial balance", placeholder: "0.00", optional: true},
				{label: "Date opened", placeholder: "YYYY-MM-DD (today)", optional: true},
			},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				customer, err := id.Parse("customer", vals[0])
				if err != nil {
					return err
				}
				typ, ok := model.ParseAccountType(vals[1])
				if !ok {
					return fmt.Errorf("unknown account type %q: %w", vals[1], ledger.ErrInvalidArgument)
				}
				params := ledger.OpenAccountParams{CustomerID: customer, Type: typ}
				if vals[2] != "" {
					if params.InitialBalance, err = ledger.ParseAmount(vals[2]); err != nil {
						return err
					}
				}
				if vals[3] != "" {
					if params.DateOpened, err = ledger.ParseDate(vals[3]); err != nil {
						return err
					}
				}
				accountID, err := svc.OpenAccount(ctx, params)
				if err != nil {
					return err
				}
				p.Success("Opened %s account %s for customer %s", typ, id.Label(accountID), id.Label(customer))
				return nil
			},
		},
		{
			title:  "Close account",
			fields: []field{accountField},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				accountID, err := id.Parse("account", vals[0])
				if err != nil {
					return err
				}
				if err := svc.CloseAccount(ctx, accountID); err != nil {
					return err
				}
				p.Success("Closed account %s", id.Label(accountID))
				return nil
			},
		},
		{
			title:  "Show account",
			fields: []field{accountField},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				accountID, err := id.Parse("account", vals[0])
				if err != nil {
					return err
				}
				acct, err := reports.Account(ctx, accountID)
				if err != nil {
					return err
				}
				p.Account(acct)
				return nil
			},
		},
		{
			title:  "Account statement",
			fields: []field{accountField},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				accountID, err := id.Parse("account", vals[0])
				if err != nil {
					return err
				}
				txns, err := reports.Statement(ctx, accountID)
				if err != nil {
					return err
				}
				p.Statement(txns)
				return nil
			},
		},
		{
			title:  "Deposit",
			fields: []field{accountField, amountField},
			run:    postAction(svc.Deposit, "Deposited"),
		},
		{
			title:  "Withdraw",
			fields: []field{accountField, amountField},
			run:    postAction(svc.Withdraw, "Withdrew"),
		},
		{
			title:  "Transfer",
			fields: []field{{label: "From account", placeholder: "1"}, {label: "To account", placeholder: "2"}, amountField},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				from, err := id.Parse("source account", vals[0])
				if err != nil {
					return err
				}
				to, err := id.Parse("target account", vals[1])
				if err != nil {
					return err
				}
				amount, err := ledger.ParseAmount(vals[2])
				if err != nil {
					return err
				}
				res, err := svc.Transfer(ctx, ledger.TransferParams{From: from, To: to, Amount: amount})
				if err != nil {
					return err
				}
				p.Success("Transferred %s from %s (now %s) to %s (now %s)",
					output.Money(amount), id.Label(from), output.Money(res.FromBalance),
					id.Label(to), output.Money(res.ToBalance))
				return nil
			},
		},
		{
			title:  "Assign account to branch",
			fields: []field{accountField, branchField},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				accountID, err := id.Parse("account", vals[0])
				if err != nil {
					return err
				}
				branchID, err := id.Parse("branch", vals[1])
				if err != nil {
					return err
				}
				if err := svc.AssignToBranch(ctx, accountID, branchID); err != nil {
					return err
				}
				p.Success("Account %s now belongs to branch %s", id.Label(accountID), id.Label(branchID))
				return nil
			},
		},
		{
			title:  "Detach account from branch",
			fields: []field{accountField},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				accountID, err := id.Parse("account", vals[0])
				if err != nil {
					return err
				}
				if err := svc.DetachFromBranch(ctx, accountID); err != nil {
					return err
				}
				p.Success("Account %s has no branch", id.Label(accountID))
				return nil
			},
		},
		{
			title:  "Credit branch",
			fields: []field{branchField, {label: "Amount", placeholder: "50.00 or -50.00"}},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				branchID, err := id.Parse("branch", vals[0])
				if err != nil {
					return err
				}
				amount, err := ledger.ParseAmount(vals[1])
				if err != nil {
					return err
				}
				res, err := svc.CreditBranch(ctx, branchID, amount)
				if err != nil {
					return err
				}
				if res.Credited() == 0 {
					p.Warning("Branch %s has no accounts; nothing changed", id.Label(branchID))
					return nil
				}
				p.Success("Credited %s to %d accounts of branch %s", output.Money(amount), res.Credited(), id.Label(branchID))
				return nil
			},
		},
		{
			title:  "Top customers",
			fields: []field{{label: "Limit", placeholder: "5", optional: true}},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				limit, err := optionalInt("limit", vals[0])
				if err != nil {
					return err
				}
				rows, err := reports.TopCustomers(ctx, limit)
				if err != nil {
					return err
				}
				p.TopCustomers(rows)
				return nil
			},
		},
		{
			title: "Active customers",
			fields: []field{
				{label: "Since", placeholder: "YYYY-MM-DD"},
				{label: "More than", placeholder: "3 transactions", optional: true},
			},
			run: func(ctx context.Context, p *output.Printer, vals []string) error {
				since, err := ledger.ParseDate(vals[0])
				if err != nil {
					return err
				}
				minCount, err := optionalInt("minimum count", vals[1])
				if err != nil {
					return err
				}
				rows, err := reports.ActiveCustomers(ctx, report.ActiveParams{Since: since, MinCount: minCount})
				if err != nil {
					return err
				}
				p.ActiveCustomers(rows)
				return nil
			},
		},
		{
			title: "Above-average balances",
			run: func(ctx context.Context, p *output.Printer, _ []string) error {
				rows, err := reports.AboveAverage(ctx)
				if err != nil {
					return err
				}
				p.AboveAverage(rows)
				return nil
			},
		},
		{
			title: "Loans",
			run: func(ctx context.Context, p *output.Printer, _ []string) error {
				loans, err := reports.Loans(ctx)
				if err != nil {
					return err
				}
				p.Loans(loans)
				return nil
			},
		},
	}
}

type postFunc func(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)

func postAction(op postFunc, verb string) func(context.Context, *output.Printer, []string) error {
	return func(ctx context.Context, p *output.Printer, vals []string) error {
		accountID, err := id.Parse("account", vals[0])
		if err != nil {
			return err
		}
		amount, err := ledger.ParseAmount(vals[1])
		if err != nil {
			return err
		}
		balance, err := op(ctx, accountID, amount)
		if err != nil {
			return err
		}
		p.Success("%s %s; account %s balance is %s", verb, output.Money(amount), id.Label(accountID), output.Money(balance))
		return nil
	}
}

func optionalInt(what, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s %q must be a non-negative integer: %w", what, s, ledger.ErrInvalidArgument)
	}
	return n, nil
}
