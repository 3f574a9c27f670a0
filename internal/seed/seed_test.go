package seed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/model"
)

func TestGenerate_DefaultSizes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomSeed = 42

	ds, err := Generate(cfg)
	require.NoError(t, err)

	assert.Len(t, ds.Users, 20)
	assert.Len(t, ds.Branches, 5)
	assert.Len(t, ds.Accounts, 50)
	assert.Len(t, ds.Transactions, 400)
	assert.Len(t, ds.Loans, 10)
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomSeed = 7

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Users, b.Users)
	require.Len(t, b.Accounts, len(a.Accounts))
	for i := range a.Accounts {
		assert.Equal(t, a.Accounts[i].CustomerID, b.Accounts[i].CustomerID)
		assert.True(t, a.Accounts[i].Balance.Equal(b.Accounts[i].Balance))
	}
}

func TestGenerate_ReferentialIntegrity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomSeed = 99
	ds, err := Generate(cfg)
	require.NoError(t, err)

	users := make(map[int64]bool)
	for i, u := range ds.Users {
		assert.Equal(t, int64(i+1), u.ID)
		users[u.ID] = true
	}
	branches := make(map[int64]bool)
	for _, b := range ds.Branches {
		branches[b.ID] = true
		require.NotNil(t, b.ManagerID)
		assert.True(t, users[*b.ManagerID], "branch %d manager %d", b.ID, *b.ManagerID)
	}
	accounts := make(map[int64]bool)
	for _, a := range ds.Accounts {
		accounts[a.ID] = true
		assert.True(t, users[a.CustomerID], "account %d customer %d", a.ID, a.CustomerID)
		if a.BranchID != nil {
			assert.True(t, branches[*a.BranchID], "account %d branch %d", a.ID, *a.BranchID)
		}
		assert.True(t, a.Type.Valid())
	}
	for _, tx := range ds.Transactions {
		assert.True(t, accounts[tx.AccountID], "transaction %d account %d", tx.ID, tx.AccountID)
	}
	for _, l := range ds.Loans {
		assert.True(t, users[l.CustomerID])
		assert.Equal(t, l.StartDate.AddDate(0, 0, 365), l.EndDate)
	}
}

func TestGenerate_ValueRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RandomSeed = 3
	ds, err := Generate(cfg)
	require.NoError(t, err)

	lo, hi := decimal.NewFromInt(1000), decimal.NewFromInt(100000)
	for _, a := range ds.Accounts {
		assert.True(t, a.Balance.GreaterThanOrEqual(lo) && a.Balance.LessThanOrEqual(hi), "balance %s", a.Balance)
		assert.True(t, a.Balance.Equal(a.Balance.Round(2)))
		assert.GreaterOrEqual(t, a.DateOpened.Year(), 2020)
		assert.LessOrEqual(t, a.DateOpened.Year(), 2023)
	}
	for _, tx := range ds.Transactions {
		switch tx.Type {
		case model.TransactionDeposit:
			assert.True(t, tx.Amount.IsPositive())
		case model.TransactionWithdrawal:
			assert.True(t, tx.Amount.IsNegative())
		default:
			t.Fatalf("unexpected type %q", tx.Type)
		}
		assert.True(t, tx.Amount.Abs().GreaterThanOrEqual(decimal.NewFromInt(100)))
	}
	for _, u := range ds.Users {
		assert.Len(t, u.SSN, 9)
		assert.Len(t, u.Phone, 10)
		assert.Contains(t, u.Email, "@example.com")
	}
}

func TestGenerate_NoBranchesLeavesAccountsUnassigned(t *testing.T) {
	cfg := Config{Users: 3, Accounts: 10, BranchRatio: 1, RandomSeed: 1}
	ds, err := Generate(cfg)
	require.NoError(t, err)
	for _, a := range ds.Accounts {
		assert.Nil(t, a.BranchID)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"empty", Config{}, false},
		{"negative users", Config{Users: -1}, true},
		{"accounts without users", Config{Accounts: 1}, true},
		{"loans without users", Config{Loans: 1}, true},
		{"transactions without accounts", Config{Users: 1, Transactions: 1}, true},
		{"ratio above one", Config{BranchRatio: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
