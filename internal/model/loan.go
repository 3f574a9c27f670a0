package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is a customer obligation. Loans are only created by seeding.
type Loan struct {
	ID           int64
	CustomerID   int64
	AmountDue    decimal.Decimal
	InterestRate decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
}
