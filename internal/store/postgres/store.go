package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

var _ ledger.Store = (*Store)(nil)

// InTx runs fn in a read-committed transaction. Row locks taken through the
// Tx serialize concurrent writers on the same accounts.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	pgtx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// No-op after a successful commit.
	defer pgtx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := fn(ctx, &tx{tx: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type tx struct {
	tx pgx.Tx
}

const accountColumns = `id, customer_id, branch_id, account_type, balance, date_opened`

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	var typ string
	if err := row.Scan(&a.ID, &a.CustomerID, &a.BranchID, &typ, &a.Balance, &a.DateOpened); err != nil {
		return model.Account{}, err
	}
	a.Type = model.AccountType(typ)
	return a, nil
}

func (t *tx) exists(ctx context.Context, query string, id int64) (bool, error) {
	var ok bool
	if err := t.tx.QueryRow(ctx, query, id).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (t *tx) UserExists(ctx context.Context, id int64) (bool, error) {
	ok, err := t.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("looking up user %d: %w", id, err)
	}
	return ok, nil
}

func (t *tx) BranchExists(ctx context.Context, id int64) (bool, error) {
	ok, err := t.exists(ctx, `SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("looking up branch %d: %w", id, err)
	}
	return ok, nil
}

func (t *tx) LockAccount(ctx context.Context, id int64) (model.Account, bool, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, fmt.Errorf("locking account %d: %w", id, err)
	}
	return a, true, nil
}

func (t *tx) LockBranchAccounts(ctx context.Context, branchID int64) ([]model.Account, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE branch_id = $1 ORDER BY id FOR UPDATE`, branchID)
	if err != nil {
		return nil, fmt.Errorf("locking accounts of branch %d: %w", branchID, err)
	}
	accts, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.Account, error) {
		return scanAccount(r)
	})
	if err != nil {
		return nil, fmt.Errorf("reading accounts of branch %d: %w", branchID, err)
	}
	return accts, nil
}

func (t *tx) InsertAccount(ctx context.Context, a model.Account) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO accounts (customer_id, branch_id, account_type, balance, date_opened)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.CustomerID, a.BranchID, string(a.Type), numeric(a.Balance), a.DateOpened).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting account: %w", err)
	}
	return id, nil
}

func (t *tx) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting account %d: %w", id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("deleting account %d: no such row", id)
	}
	return nil
}

func (t *tx) SetAccountBranch(ctx context.Context, id int64, branchID *int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE accounts SET branch_id = $2 WHERE id = $1`, id, branchID)
	if err != nil {
		return fmt.Errorf("updating branch of account %d: %w", id, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("updating branch of account %d: no such row", id)
	}
	return nil
}

func (t *tx) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE id = $1 RETURNING balance`, id, numeric(delta)).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("adjusting balance of account %d: %w", id, err)
	}
	return balance, nil
}

func (t *tx) AppendTransaction(ctx context.Context, txn model.Transaction) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO transactions (account_id, transaction_type, amount, date)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		txn.AccountID, string(txn.Type), numeric(txn.Amount), txn.Date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting transaction for account %d: %w", txn.AccountID, err)
	}
	return id, nil
}
