// Package seed generates synthetic bootstrap data for an empty ledger store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Config controls how much data Generate produces.
type Config struct {
	Users        int     `yaml:"users"`
	Branches     int     `yaml:"branches"`
	Accounts     int     `yaml:"accounts"`
	Transactions int     `yaml:"transactions"`
	Loans        int     `yaml:"loans"`
	BranchRatio  float64 `yaml:"branch_ratio"` // share of accounts assigned to a branch
	RandomSeed   uint64  `yaml:"random_seed"`  // 0 = pick one at random
}

// DefaultConfig returns the standard bootstrap sizes.
func DefaultConfig() Config {
	return Config{
		Users:        20,
		Branches:     5,
		Accounts:     50,
		Transactions: 400,
		Loans:        10,
		BranchRatio:  0.2,
	}
}

// Validate checks that the counts are consistent with each other.
func (c Config) Validate() error {
	var errs []error
	for name, n := range map[string]int{
		"users": c.Users, "branches": c.Branches, "accounts": c.Accounts,
		"transactions": c.Transactions, "loans": c.Loans,
	} {
		if n < 0 {
			errs = append(errs, fmt.Errorf("%s count %d is negative", name, n))
		}
	}
	if c.Accounts > 0 && c.Users == 0 {
		errs = append(errs, errors.New("accounts require at least one user"))
	}
	if c.Loans > 0 && c.Users == 0 {
		errs = append(errs, errors.New("loans require at least one user"))
	}
	if c.Transactions > 0 && c.Accounts == 0 {
		errs = append(errs, errors.New("transactions require at least one account"))
	}
	if c.BranchRatio < 0 || c.BranchRatio > 1 {
		errs = append(errs, fmt.Errorf("branch ratio %v not in [0, 1]", c.BranchRatio))
	}
	return errors.Join(errs...)
}

// Dataset is a complete, referentially consistent set of rows. IDs are
// assigned from 1 within each table.
type Dataset struct {
	Users        []model.User
	Branches     []model.Branch
	Accounts     []model.Account
	Transactions []model.Transaction
	Loans        []model.Loan
}

// Loader writes a Dataset into an empty store, keeping the dataset's IDs.
type Loader interface {
	Load(ctx context.Context, ds Dataset) error
}

var (
	firstNames = []string{"John", "Emma", "Michael", "Olivia", "William", "Ava", "James", "Isabella", "Benjamin", "Sophia"}
	lastNames  = []string{"Smith", "Johnson", "Brown", "Taylor", "Miller", "Anderson", "Wilson", "Davis", "Clark", "Hall"}
	states     = []string{"CA", "NY", "TX", "FL", "IL", "PA", "OH", "GA", "NC", "MI"}
	streets    = []string{"Main", "Oak", "Elm", "Maple"}
)

// Generate builds a random Dataset according to cfg.
func Generate(cfg Config) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("invalid seed config: %w", err)
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &generator{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}

	var ds Dataset
	for i := 1; i <= cfg.Users; i++ {
		ds.Users = append(ds.Users, g.user(int64(i)))
	}
	for i := 1; i <= cfg.Branches; i++ {
		ds.Branches = append(ds.Branches, g.branch(int64(i), cfg.Users))
	}
	for i := 1; i <= cfg.Accounts; i++ {
		ds.Accounts = append(ds.Accounts, g.account(int64(i), cfg))
	}
	for i := 1; i <= cfg.Transactions; i++ {
		ds.Transactions = append(ds.Transactions, g.transaction(int64(i), cfg.Accounts))
	}
	for i := 1; i <= cfg.Loans; i++ {
		ds.Loans = append(ds.Loans, g.loan(int64(i), cfg.Users))
	}
	return ds, nil
}

type generator struct {
	rnd *rand.Rand
}

func (g *generator) user(id int64) model.User {
	first := pick(g.rnd, firstNames)
	last := pick(g.rnd, lastNames)
	return model.User{
		ID:        id,
		FirstName: first,
		LastName:  last,
		SSN:       g.digits(9),
		Email:     strings.ToLower(first) + "." + strings.ToLower(last) + "@example.com",
		Phone:     g.digits(10),
	}
}

func (g *generator) branch(id int64, users int) model.Branch {
	b := model.Branch{
		ID:      id,
		Name:    fmt.Sprintf("Branch %d", id),
		State:   pick(g.rnd, states),
		Address: fmt.Sprintf("%d %s St", 100+g.rnd.IntN(900), pick(g.rnd, streets)),
		ZipCode: g.digits(5),
	}
	if users > 0 {
		manager := g.ref(users)
		b.ManagerID = &manager
	}
	return b
}

func (g *generator) account(id int64, cfg Config) model.Account {
	a := model.Account{
		ID:         id,
		CustomerID: g.ref(cfg.Users),
		Type:       pick(g.rnd, []model.AccountType{model.AccountTypeChecking, model.AccountTypeSavings}),
		Balance:    g.money(1000, 100000),
		DateOpened: g.date(),
	}
	if cfg.Branches > 0 && g.rnd.Float64() < cfg.BranchRatio {
		branch := g.ref(cfg.Branches)
		a.BranchID = &branch
	}
	return a
}

func (g *generator) transaction(id int64, accounts int) model.Transaction {
	amount := g.money(100, 5000)
	if g.rnd.IntN(2) == 1 {
		amount = amount.Neg()
	}
	t := model.NewEntry(g.ref(accounts), amount, g.date())
	t.ID = id
	return t
}

func (g *generator) loan(id int64, users int) model.Loan {
	start := g.date()
	return model.Loan{
		ID:           id,
		CustomerID:   g.ref(users),
		AmountDue:    g.money(5000, 50000),
		InterestRate: decimal.NewFromFloat(0.05 + g.rnd.Float64()*0.10).Round(2),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 365),
	}
}

// ref returns a random ID in 1..n.
func (g *generator) ref(n int) int64 {
	return int64(1 + g.rnd.IntN(n))
}

func (g *generator) digits(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(byte('0' + g.rnd.IntN(10)))
	}
	return b.String()
}

func (g *generator) money(lo, hi float64) decimal.Decimal {
	return decimal.NewFromFloat(lo + g.rnd.Float64()*(hi-lo)).Round(2)
}

// date returns a day between 2020 and 2023. Days stop at 28 so every month is valid.
func (g *generator) date() time.Time {
	return time.Date(2020+g.rnd.IntN(4), time.Month(1+g.rnd.IntN(12)), 1+g.rnd.IntN(28), 0, 0, 0, 0, time.UTC)
}

func pick[T any](rnd *rand.Rand, items []T) T {
	return items[rnd.IntN(len(items))]
}
