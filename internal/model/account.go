package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies customer accounts.
type AccountType string

const (
	AccountTypeChecking AccountType = "Checking"
	AccountTypeSavings  AccountType = "Savings"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// ParseAccountType accepts the type name in any letter case.
func ParseAccountType(s string) (AccountType, bool) {
	switch {
	case equalFold(s, string(AccountTypeChecking)):
		return AccountTypeChecking, true
	case equalFold(s, string(AccountTypeSavings)):
		return AccountTypeSavings, true
	}
	return "", false
}

// Account is a financial holding owned by a user.
type Account struct {
	ID         int64
	CustomerID int64
	BranchID   *int64 // nil = not associated with a branch
	Type       AccountType
	Balance    decimal.Decimal
	DateOpened time.Time
}

// HasBranch reports whether the account is associated with a branch.
func (a Account) HasBranch() bool {
	return a.BranchID != nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}
