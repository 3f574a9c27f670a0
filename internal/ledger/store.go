package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Store opens transactional scopes over persisted ledger state.
//
// InTx runs fn inside a single write transaction. If fn returns nil the
// transaction commits; otherwise, or if fn panics, it rolls back and nothing
// fn wrote is visible. The error from fn is returned unchanged.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes a ledger operation may perform within one
// transaction. Lock methods hold the returned rows until the transaction ends,
// so read-then-write sequences on the same account cannot interleave.
type Tx interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	BranchExists(ctx context.Context, id int64) (bool, error)

	// LockAccount returns ok=false when no such account exists.
	LockAccount(ctx context.Context, id int64) (acct model.Account, ok bool, err error)
	// LockBranchAccounts returns the accounts referencing branchID ordered by ID.
	LockBranchAccounts(ctx context.Context, branchID int64) ([]model.Account, error)

	InsertAccount(ctx context.Context, acct model.Account) (int64, error)
	DeleteAccount(ctx context.Context, id int64) error
	SetAccountBranch(ctx context.Context, id int64, branchID *int64) error
	// AdjustBalance adds delta to the balance and returns the new balance.
	AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
	AppendTransaction(ctx context.Context, t model.Transaction) (int64, error)
}
