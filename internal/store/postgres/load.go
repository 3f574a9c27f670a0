package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/seed"
)

var _ seed.Loader = (*Store)(nil)

// numeric converts d to the pgx NUMERIC representation without a text round
// trip.
func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// Load bulk-copies ds into the tables in one transaction and advances the
// identity sequences past the copied IDs.
func (s *Store) Load(ctx context.Context, ds seed.Dataset) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning load: %w", err)
	}
	defer pgtx.Rollback(context.WithoutCancel(ctx)) //nolint:errcheck

	copies := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{"users", []string{"id", "first_name", "last_name", "ssn", "email", "phone"}, userRows(ds.Users)},
		{"branches", []string{"id", "name", "state", "address", "zip_code", "manager_id"}, branchRows(ds.Branches)},
		{"accounts", []string{"id", "customer_id", "branch_id", "account_type", "balance", "date_opened"}, accountRows(ds.Accounts)},
		{"transactions", []string{"id", "account_id", "transaction_type", "amount", "date"}, transactionRows(ds.Transactions)},
		{"loans", []string{"id", "customer_id", "amount_due", "interest_rate", "start_date", "end_date"}, loanRows(ds.Loans)},
	}
	for _, c := range copies {
		if len(c.rows) == 0 {
			continue
		}
		n, err := pgtx.CopyFrom(ctx, pgx.Identifier{c.table}, c.columns, pgx.CopyFromRows(c.rows))
		if err != nil {
			return fmt.Errorf("copying %s: %w", c.table, err)
		}
		if int(n) != len(c.rows) {
			return fmt.Errorf("copying %s: wrote %d of %d rows", c.table, n, len(c.rows))
		}
		// Rows were copied with explicit IDs; later inserts must not collide.
		if _, err := pgtx.Exec(ctx,
			`SELECT setval(pg_get_serial_sequence($1, 'id'), (SELECT MAX(id) FROM `+c.table+`))`, c.table); err != nil {
			return fmt.Errorf("advancing %s id sequence: %w", c.table, err)
		}
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("committing load: %w", err)
	}
	return nil
}

func userRows(users []model.User) [][]any {
	rows := make([][]any, 0, len(users))
	for _, u := range users {
		rows = append(rows, []any{u.ID, u.FirstName, u.LastName, u.SSN, u.Email, u.Phone})
	}
	return rows
}

func branchRows(branches []model.Branch) [][]any {
	rows := make([][]any, 0, len(branches))
	for _, b := range branches {
		rows = append(rows, []any{b.ID, b.Name, b.State, b.Address, b.ZipCode, b.ManagerID})
	}
	return rows
}

func accountRows(accounts []model.Account) [][]any {
	rows := make([][]any, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []any{a.ID, a.CustomerID, a.BranchID, string(a.Type), numeric(a.Balance), a.DateOpened})
	}
	return rows
}

func transactionRows(txns []model.Transaction) [][]any {
	rows := make([][]any, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []any{t.ID, t.AccountID, string(t.Type), numeric(t.Amount), t.Date})
	}
	return rows
}

func loanRows(loans []model.Loan) [][]any {
	rows := make([][]any, 0, len(loans))
	for _, l := range loans {
		rows = append(rows, []any{l.ID, l.CustomerID, numeric(l.AmountDue), numeric(l.InterestRate), l.StartDate, l.EndDate})
	}
	return rows
}

// InsertUser adds a single customer and returns its ID.
func (s *Store) InsertUser(ctx context.Context, u model.User) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, ssn, email, phone) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		u.FirstName, u.LastName, u.SSN, u.Email, u.Phone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return id, nil
}

// InsertBranch adds a single branch and returns its ID.
func (s *Store) InsertBranch(ctx context.Context, b model.Branch) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO branches (name, state, address, zip_code, manager_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		b.Name, b.State, b.Address, b.ZipCode, b.ManagerID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting branch: %w", err)
	}
	return id, nil
}

// Loans implements report.Reader.
func (s *Store) Loans(ctx context.Context) ([]model.Loan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, customer_id, amount_due, interest_rate, start_date, end_date FROM loans ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying loans: %w", err)
	}
	loans, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (model.Loan, error) {
		var l model.Loan
		err := r.Scan(&l.ID, &l.CustomerID, &l.AmountDue, &l.InterestRate, &l.StartDate, &l.EndDate)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading loans: %w", err)
	}
	return loans, nil
}
