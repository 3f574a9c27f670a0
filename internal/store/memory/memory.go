// Package memory is an in-process ledger store. It serializes transactions
// with a single mutex and applies each transaction to a private copy of the
// state that replaces the live state only on commit.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/report"
	"github.com/cleared-dev/teller/internal/seed"
)

var (
	_ ledger.Store  = (*Store)(nil)
	_ report.Reader = (*Store)(nil)
	_ seed.Loader   = (*Store)(nil)
)

// Store holds all ledger tables in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

// New returns an empty Store.
func New() *Store {
	return &Store{st: newState()}
}

type state struct {
	users        map[int64]model.User
	branches     map[int64]model.Branch
	accounts     map[int64]model.Account
	transactions []model.Transaction
	loans        []model.Loan

	lastUser, lastBranch, lastAccount, lastTransaction, lastLoan int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]model.User),
		branches: make(map[int64]model.Branch),
		accounts: make(map[int64]model.Account),
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = make(map[int64]model.User, len(s.users))
	for id, u := range s.users {
		c.users[id] = u
	}
	c.branches = make(map[int64]model.Branch, len(s.branches))
	for id, b := range s.branches {
		b.ManagerID = copyRef(b.ManagerID)
		c.branches[id] = b
	}
	c.accounts = make(map[int64]model.Account, len(s.accounts))
	for id, a := range s.accounts {
		a.BranchID = copyRef(a.BranchID)
		c.accounts[id] = a
	}
	c.transactions = slices.Clone(s.transactions)
	c.loans = slices.Clone(s.loans)
	return &c
}

// InTx runs fn against a copy of the state and installs the copy if fn
// returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.st = work
	return nil
}

// Migrate is a no-op; the in-memory tables always exist.
func (s *Store) Migrate(context.Context) error { return nil }

// Reset discards every row.
func (s *Store) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = newState()
	return nil
}

// Ping reports ctx errors only; the store is always reachable.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (s *Store) Close() {}

// AddUser inserts a user and returns its ID. A zero ID is assigned.
func (s *Store) AddUser(u model.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.st.lastUser + 1
	}
	s.st.lastUser = max(s.st.lastUser, u.ID)
	s.st.users[u.ID] = u
	return u.ID
}

// AddBranch inserts a branch and returns its ID. A zero ID is assigned.
func (s *Store) AddBranch(b model.Branch) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.st.lastBranch + 1
	}
	s.st.lastBranch = max(s.st.lastBranch, b.ID)
	s.st.branches[b.ID] = b
	return b.ID
}

// Load inserts a seed dataset. The store must not already contain rows with
// the dataset's IDs.
func (s *Store) Load(ctx context.Context, ds seed.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	for _, u := range ds.Users {
		if _, dup := work.users[u.ID]; dup {
			return fmt.Errorf("loading users: duplicate id %d", u.ID)
		}
		work.users[u.ID] = u
		work.lastUser = max(work.lastUser, u.ID)
	}
	for _, b := range ds.Branches {
		if _, dup := work.branches[b.ID]; dup {
			return fmt.Errorf("loading branches: duplicate id %d", b.ID)
		}
		work.branches[b.ID] = b
		work.lastBranch = max(work.lastBranch, b.ID)
	}
	for _, a := range ds.Accounts {
		if _, dup := work.accounts[a.ID]; dup {
			return fmt.Errorf("loading accounts: duplicate id %d", a.ID)
		}
		if _, ok := work.users[a.CustomerID]; !ok {
			return fmt.Errorf("loading accounts: account %d references missing customer %d", a.ID, a.CustomerID)
		}
		work.accounts[a.ID] = a
		work.lastAccount = max(work.lastAccount, a.ID)
	}
	for _, t := range ds.Transactions {
		work.transactions = append(work.transactions, t)
		work.lastTransaction = max(work.lastTransaction, t.ID)
	}
	for _, l := range ds.Loans {
		work.loans = append(work.loans, l)
		work.lastLoan = max(work.lastLoan, l.ID)
	}
	s.st = work
	return nil
}

// Loans implements report.Reader.
func (s *Store) Loans(context.Context) ([]model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.st.loans)
	slices.SortFunc(out, func(a, b model.Loan) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

type tx struct {
	st *state
}

func (t *tx) UserExists(_ context.Context, id int64) (bool, error) {
	_, ok := t.st.users[id]
	return ok, nil
}

func (t *tx) BranchExists(_ context.Context, id int64) (bool, error) {
	_, ok := t.st.branches[id]
	return ok, nil
}

func (t *tx) LockAccount(_ context.Context, id int64) (model.Account, bool, error) {
	a, ok := t.st.accounts[id]
	return a, ok, nil
}

func (t *tx) LockBranchAccounts(_ context.Context, branchID int64) ([]model.Account, error) {
	var out []model.Account
	for _, a := range t.st.accounts {
		if a.BranchID != nil && *a.BranchID == branchID {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b model.Account) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) InsertAccount(_ context.Context, a model.Account) (int64, error) {
	if _, ok := t.st.users[a.CustomerID]; !ok {
		return 0, fmt.Errorf("insert account: customer %d does not exist", a.CustomerID)
	}
	t.st.lastAccount++
	a.ID = t.st.lastAccount
	a.BranchID = copyRef(a.BranchID)
	t.st.accounts[a.ID] = a
	return a.ID, nil
}

func (t *tx) DeleteAccount(_ context.Context, id int64) error {
	if _, ok := t.st.accounts[id]; !ok {
		return fmt.Errorf("delete account %d: no such row", id)
	}
	delete(t.st.accounts, id)
	return nil
}

func (t *tx) SetAccountBranch(_ context.Context, id int64, branchID *int64) error {
	a, ok := t.st.accounts[id]
	if !ok {
		return fmt.Errorf("update account %d: no such row", id)
	}
	a.BranchID = copyRef(branchID)
	t.st.accounts[id] = a
	return nil
}

func (t *tx) AdjustBalance(_ context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	a, ok := t.st.accounts[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("update account %d: no such row", id)
	}
	a.Balance = a.Balance.Add(delta)
	t.st.accounts[id] = a
	return a.Balance, nil
}

func (t *tx) AppendTransaction(_ context.Context, txn model.Transaction) (int64, error) {
	if _, ok := t.st.accounts[txn.AccountID]; !ok {
		return 0, fmt.Errorf("insert transaction: account %d does not exist", txn.AccountID)
	}
	t.st.lastTransaction++
	txn.ID = t.st.lastTransaction
	t.st.transactions = append(t.st.transactions, txn)
	return txn.ID, nil
}

// Account implements report.Reader.
func (s *Store) Account(_ context.Context, id int64) (model.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.st.accounts[id]
	a.BranchID = copyRef(a.BranchID)
	return a, ok, nil
}

// Statement implements report.Reader.
func (s *Store) Statement(_ context.Context, accountID int64) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Transaction
	for _, t := range s.st.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b model.Transaction) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// TopCustomers implements report.Reader.
func (s *Store) TopCustomers(_ context.Context, limit int) ([]report.CustomerBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[int64]decimal.Decimal)
	for _, a := range s.st.accounts {
		totals[a.CustomerID] = totals[a.CustomerID].Add(a.Balance)
	}
	var out []report.CustomerBalance
	for id, total := range totals {
		u, ok := s.st.users[id]
		if !ok {
			continue
		}
		out = append(out, report.CustomerBalance{
			CustomerID:   id,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			TotalBalance: total,
		})
	}
	slices.SortFunc(out, func(a, b report.CustomerBalance) int {
		if c := b.TotalBalance.Cmp(a.TotalBalance); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	return truncate(out, limit), nil
}

// ActiveCustomers implements report.Reader.
func (s *Store) ActiveCustomers(_ context.Context, since time.Time, minCount, limit int) ([]report.CustomerActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[int64]int)
	for _, t := range s.st.transactions {
		if t.Date.Before(since) {
			continue
		}
		// Transactions of closed accounts have no owner to attribute them to.
		a, ok := s.st.accounts[t.AccountID]
		if !ok {
			continue
		}
		counts[a.CustomerID]++
	}
	var out []report.CustomerActivity
	for id, n := range counts {
		if n <= minCount {
			continue
		}
		u, ok := s.st.users[id]
		if !ok {
			continue
		}
		out = append(out, report.CustomerActivity{
			CustomerID:   id,
			FirstName:    u.FirstName,
			LastName:     u.LastName,
			Transactions: n,
		})
	}
	slices.SortFunc(out, func(a, b report.CustomerActivity) int {
		if c := cmp.Compare(b.Transactions, a.Transactions); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	return truncate(out, limit), nil
}

// AboveAverageBalances implements report.Reader.
func (s *Store) AboveAverageBalances(_ context.Context) ([]report.AccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.st.accounts) == 0 {
		return nil, nil
	}
	sum := decimal.Zero
	for _, a := range s.st.accounts {
		sum = sum.Add(a.Balance)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(s.st.accounts))))

	var out []report.AccountBalance
	for _, a := range s.st.accounts {
		if !a.Balance.GreaterThan(avg) {
			continue
		}
		u, ok := s.st.users[a.CustomerID]
		if !ok {
			continue
		}
		out = append(out, report.AccountBalance{
			AccountID:  a.ID,
			CustomerID: a.CustomerID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			Balance:    a.Balance,
		})
	}
	slices.SortFunc(out, func(a, b report.AccountBalance) int {
		if c := b.Balance.Cmp(a.Balance); c != 0 {
			return c
		}
		return cmp.Compare(a.AccountID, b.AccountID)
	})
	return out, nil
}

func truncate[T any](rows []T, limit int) []T {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func copyRef(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
