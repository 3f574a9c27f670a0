package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/report"
)

var _ report.Reader = (*Store)(nil)

// Account implements report.Reader.
func (s *Store) Account(ctx context.Context, id int64) (model.Account, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, fmt.Errorf("reading account %d: %w", id, err)
	}
	return a, true, nil
}

// Statement implements report.Reader.
func (s *Store) Statement(ctx context.Context, accountID int64) ([]model.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_id, transaction_type, amount, date
		 FROM transactions WHERE account_id = $1 ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	txns, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.Transaction, error) {
		var t model.Transaction
		var typ string
		if err := r.Scan(&t.ID, &t.AccountID, &typ, &t.Amount, &t.Date); err != nil {
			return model.Transaction{}, err
		}
		t.Type = model.TransactionType(typ)
		t.Date = t.Date.UTC()
		return t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading transactions: %w", err)
	}
	return txns, nil
}

// TopCustomers implements report.Reader.
func (s *Store) TopCustomers(ctx context.Context, limit int) ([]report.CustomerBalance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.first_name, u.last_name, SUM(a.balance) AS total
		FROM users u
		JOIN accounts a ON a.customer_id = u.id
		GROUP BY u.id, u.first_name, u.last_name
		ORDER BY total DESC, u.id
		LIMIT $1`, nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying top customers: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (report.CustomerBalance, error) {
		var c report.CustomerBalance
		err := r.Scan(&c.CustomerID, &c.FirstName, &c.LastName, &c.TotalBalance)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading top customers: %w", err)
	}
	return out, nil
}

// ActiveCustomers implements report.Reader. Transactions of closed accounts
// are not attributed to anyone.
func (s *Store) ActiveCustomers(ctx context.Context, since time.Time, minCount, limit int) ([]report.CustomerActivity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.first_name, u.last_name, COUNT(t.id) AS n
		FROM users u
		JOIN accounts a ON a.customer_id = u.id
		JOIN transactions t ON t.account_id = a.id
		WHERE t.date >= $1
		GROUP BY u.id, u.first_name, u.last_name
		HAVING COUNT(t.id) > $2
		ORDER BY n DESC, u.id
		LIMIT $3`, since, minCount, nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying active customers: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (report.CustomerActivity, error) {
		var c report.CustomerActivity
		var n int64
		err := r.Scan(&c.CustomerID, &c.FirstName, &c.LastName, &n)
		c.Transactions = int(n)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading active customers: %w", err)
	}
	return out, nil
}

// AboveAverageBalances implements report.Reader.
func (s *Store) AboveAverageBalances(ctx context.Context) ([]report.AccountBalance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, u.id, u.first_name, u.last_name, a.balance
		FROM accounts a
		JOIN users u ON u.id = a.customer_id
		WHERE a.balance > (SELECT AVG(balance) FROM accounts)
		ORDER BY a.balance DESC, a.id`)
	if err != nil {
		return nil, fmt.Errorf("querying above-average balances: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (report.AccountBalance, error) {
		var b report.AccountBalance
		err := r.Scan(&b.AccountID, &b.CustomerID, &b.FirstName, &b.LastName, &b.Balance)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading above-average balances: %w", err)
	}
	return out, nil
}

// nullLimit maps a non-positive limit to SQL NULL, which LIMIT treats as no
// limit.
func nullLimit(limit int) *int64 {
	if limit <= 0 {
		return nil
	}
	n := int64(limit)
	return &n
}
