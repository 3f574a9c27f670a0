package output

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/report"
)

// Money formats an amount with two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func fullName(first, last string) string {
	return model.User{FirstName: first, LastName: last}.FullName()
}

// Account prints a single account as a two-column table.
func (p *Printer) Account(a model.Account) {
	branch := "-"
	if a.HasBranch() {
		branch = id.Label(*a.BranchID)
	}
	p.Table([]string{"Field", "Value"}, [][]string{
		{"Account", id.Label(a.ID)},
		{"Customer", id.Label(a.CustomerID)},
		{"Branch", branch},
		{"Type", string(a.Type)},
		{"Balance", Money(a.Balance)},
		{"Opened", a.DateOpened.Format(ledger.DateLayout)},
	})
}

// Statement prints an account's transactions.
func (p *Printer) Statement(txns []model.Transaction) {
	if len(txns) == 0 {
		p.Muted("No transactions.")
		return
	}
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			id.Format(t.ID),
			t.Date.Format("2006-01-02 15:04"),
			string(t.Type),
			Money(t.Amount),
		})
	}
	p.Table([]string{"ID", "Date", "Type", "Amount"}, rows)
}

// TopCustomers prints the top-customers report.
func (p *Printer) TopCustomers(rows []report.CustomerBalance) {
	if len(rows) == 0 {
		p.Muted("No customers with accounts.")
		return
	}
	out := make([][]string, 0, len(rows))
	for i, r := range rows {
		out = append(out, []string{
			strconv.Itoa(i + 1),
			id.Label(r.CustomerID),
			fullName(r.FirstName, r.LastName),
			Money(r.TotalBalance),
		})
	}
	p.Table([]string{"Rank", "Customer", "Name", "Total balance"}, out)
}

// ActiveCustomers prints the customer-activity report.
func (p *Printer) ActiveCustomers(rows []report.CustomerActivity) {
	if len(rows) == 0 {
		p.Muted("No customers above the activity threshold.")
		return
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			id.Label(r.CustomerID),
			fullName(r.FirstName, r.LastName),
			strconv.Itoa(r.Transactions),
		})
	}
	p.Table([]string{"Customer", "Name", "Transactions"}, out)
}

// AboveAverage prints accounts with above-average balances.
func (p *Printer) AboveAverage(rows []report.AccountBalance) {
	if len(rows) == 0 {
		p.Muted("No accounts above the average balance.")
		return
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			id.Label(r.AccountID),
			fullName(r.FirstName, r.LastName),
			Money(r.Balance),
		})
	}
	p.Table([]string{"Account", "Owner", "Balance"}, out)
}

// Loans prints every loan.
func (p *Printer) Loans(loans []model.Loan) {
	if len(loans) == 0 {
		p.Muted("No loans.")
		return
	}
	out := make([][]string, 0, len(loans))
	for _, l := range loans {
		out = append(out, []string{
			id.Label(l.ID),
			id.Label(l.CustomerID),
			Money(l.AmountDue),
			l.InterestRate.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%",
			l.StartDate.Format(ledger.DateLayout),
			l.EndDate.Format(ledger.DateLayout),
		})
	}
	p.Table([]string{"Loan", "Customer", "Amount due", "Rate", "Start", "End"}, out)
}
