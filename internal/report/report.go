package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

// Default limits and thresholds for the customer reports.
const (
	DefaultTopLimit       = 5
	DefaultActiveMinCount = 3
	DefaultActiveLimit    = 10
)

// CustomerBalance is a customer's total balance across all their accounts.
type CustomerBalance struct {
	CustomerID   int64
	FirstName    string
	LastName     string
	TotalBalance decimal.Decimal
}

// CustomerActivity counts a customer's transactions in a period.
type CustomerActivity struct {
	CustomerID   int64
	FirstName    string
	LastName     string
	Transactions int
}

// AccountBalance is a single account with its owner's name.
type AccountBalance struct {
	AccountID  int64
	CustomerID int64
	FirstName  string
	LastName   string
	Balance    decimal.Decimal
}

// Reader is the read-only query surface a store provides for reporting.
// Results reflect committed state only.
type Reader interface {
	// TopCustomers orders customers with at least one account by total
	// balance, highest first.
	TopCustomers(ctx context.Context, limit int) ([]CustomerBalance, error)
	// ActiveCustomers returns customers with more than minCount transactions
	// dated on or after since, most active first.
	ActiveCustomers(ctx context.Context, since time.Time, minCount, limit int) ([]CustomerActivity, error)
	// AboveAverageBalances returns accounts whose balance exceeds the average
	// account balance, highest first.
	AboveAverageBalances(ctx context.Context) ([]AccountBalance, error)
	Account(ctx context.Context, id int64) (model.Account, bool, error)
	// Statement returns the account's transactions in ID order. Rows of a
	// closed account are still returned.
	Statement(ctx context.Context, accountID int64) ([]model.Transaction, error)
	Loans(ctx context.Context) ([]model.Loan, error)
}

// Service applies defaults and argument checks on top of a Reader.
type Service struct {
	r Reader
}

// NewService creates a report Service.
func NewService(r Reader) *Service {
	return &Service{r: r}
}

// TopCustomers returns the customers with the largest total balances. A
// non-positive limit means DefaultTopLimit.
func (s *Service) TopCustomers(ctx context.Context, limit int) ([]CustomerBalance, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	rows, err := s.r.TopCustomers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top customers: %w", err)
	}
	return rows, nil
}

// ActiveParams holds parameters for the customer activity report.
type ActiveParams struct {
	Since    time.Time
	MinCount int // zero = DefaultActiveMinCount
	Limit    int // zero = DefaultActiveLimit
}

// ActiveCustomers returns the customers with the most transactions since a date.
func (s *Service) ActiveCustomers(ctx context.Context, p ActiveParams) ([]CustomerActivity, error) {
	if p.Since.IsZero() {
		return nil, fmt.Errorf("active customers: start date is required: %w", ledger.ErrInvalidArgument)
	}
	if p.MinCount < 0 {
		return nil, fmt.Errorf("active customers: minimum count %d is negative: %w", p.MinCount, ledger.ErrInvalidArgument)
	}
	if p.MinCount == 0 {
		p.MinCount = DefaultActiveMinCount
	}
	if p.Limit <= 0 {
		p.Limit = DefaultActiveLimit
	}
	rows, err := s.r.ActiveCustomers(ctx, p.Since, p.MinCount, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("active customers: %w", err)
	}
	return rows, nil
}

// AboveAverage returns accounts with above-average balances.
func (s *Service) AboveAverage(ctx context.Context) ([]AccountBalance, error) {
	rows, err := s.r.AboveAverageBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("above average balances: %w", err)
	}
	return rows, nil
}

// Account looks up a single account.
func (s *Service) Account(ctx context.Context, id int64) (model.Account, error) {
	acct, ok, err := s.r.Account(ctx, id)
	if err != nil {
		return model.Account{}, fmt.Errorf("account %d: %w", id, err)
	}
	if !ok {
		return model.Account{}, fmt.Errorf("account %d: %w", id, ledger.ErrNotFound)
	}
	return acct, nil
}

// Statement returns an account's transaction history.
func (s *Service) Statement(ctx context.Context, accountID int64) ([]model.Transaction, error) {
	txns, err := s.r.Statement(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("statement for account %d: %w", accountID, err)
	}
	return txns, nil
}

// Loans lists every loan in ID order.
func (s *Service) Loans(ctx context.Context) ([]model.Loan, error) {
	loans, err := s.r.Loans(ctx)
	if err != nil {
		return nil, fmt.Errorf("loans: %w", err)
	}
	return loans, nil
}
