package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "Deposit"
	TransactionWithdrawal TransactionType = "Withdrawal"
)

// Transaction is an append-only ledger entry against one account.
// Amount is positive for deposits and negative for withdrawals.
type Transaction struct {
	ID        int64
	AccountID int64
	Type      TransactionType
	Amount    decimal.Decimal
	Date      time.Time
}

// NewEntry builds a Transaction for a signed balance change. A positive delta
// is a Deposit, a negative one a Withdrawal.
func NewEntry(accountID int64, delta decimal.Decimal, date time.Time) Transaction {
	typ := TransactionDeposit
	if delta.IsNegative() {
		typ = TransactionWithdrawal
	}
	return Transaction{AccountID: accountID, Type: typ, Amount: delta, Date: date}
}
