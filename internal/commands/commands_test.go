package commands_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/commands"
	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
	"github.com/cleared-dev/teller/internal/store/memory"
)

type fixture struct {
	store    *memory.Store
	config   string
	customer int64
	branch   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	return &fixture{
		store:    st,
		config:   filepath.Join(t.TempDir(), "teller.yaml"),
		customer: st.AddUser(model.User{FirstName: "Emma", LastName: "Clark"}),
		branch:   st.AddBranch(model.Branch{Name: "Downtown", State: "CA"}),
	}
}

// run executes one CLI invocation against the fixture's store.
func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	opener := func(context.Context, *config.Config) (commands.Store, error) { return f.store, nil }
	cmd := commands.NewRootCommand(commands.WithOpener(opener), commands.WithLogOutput(io.Discard))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (f *fixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := f.run(t, args...)
	require.NoError(t, err, "teller %s", strings.Join(args, " "))
	return out
}

func (f *fixture) balance(t *testing.T, id int64) string {
	t.Helper()
	acct, ok, err := f.store.Account(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok, "account %d should exist", id)
	return acct.Balance.StringFixed(2)
}

func TestAccountLifecycle(t *testing.T) {
	f := newFixture(t)

	out := f.mustRun(t, "account", "open", "--customer", "1", "--type", "checking", "--balance", "100", "--date", "2024-01-15")
	assert.Contains(t, out, "Opened Checking account #1 for customer #1")
	assert.Equal(t, "100.00", f.balance(t, 1))

	out = f.mustRun(t, "account", "show", "1")
	assert.Contains(t, out, "Checking")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "2024-01-15")

	out = f.mustRun(t, "account", "statement", "1", "--csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "transaction_id,account_id,date,type,amount", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,1,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",Deposit,100.00"), lines[1])

	_, err := f.run(t, "account", "close", "1")
	require.ErrorIs(t, err, ledger.ErrPreconditionFailed)

	f.mustRun(t, "withdraw", "1", "100")
	out = f.mustRun(t, "account", "close", "1")
	assert.Contains(t, out, "Closed account #1")

	_, err = f.run(t, "account", "show", "1")
	require.ErrorIs(t, err, ledger.ErrNotFound)

	// History outlives the account.
	out = f.mustRun(t, "account", "statement", "1")
	assert.Contains(t, out, "Withdrawal")
}

func TestAccountOpenValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown customer", []string{"--customer", "99", "--type", "Savings"}, ledger.ErrNotFound},
		{"bad type", []string{"--customer", "1", "--type", "Brokerage"}, ledger.ErrInvalidArgument},
		{"bad balance", []string{"--customer", "1", "--type", "Savings", "--balance", "ten"}, ledger.ErrInvalidArgument},
		{"fractional cents", []string{"--customer", "1", "--type", "Savings", "--balance", "1.005"}, ledger.ErrInvalidArgument},
		{"bad date", []string{"--customer", "1", "--type", "Savings", "--date", "15/01/2024"}, ledger.ErrInvalidArgument},
		{"bad customer id", []string{"--customer", "abc", "--type", "Savings"}, ledger.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, append([]string{"account", "open"}, tt.args...)...)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.run(t, "account", "open", "--type", "Savings")
	require.Error(t, err, "--customer is required")
}

func TestDepositWithdrawTransfer(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Checking", "--balance", "100")
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Savings", "--balance", "50")

	out := f.mustRun(t, "deposit", "1", "25.50")
	assert.Contains(t, out, "Deposited 25.50; account #1 balance is 125.50")

	out = f.mustRun(t, "withdraw", "#1", "0.50")
	assert.Contains(t, out, "Withdrew 0.50; account #1 balance is 125.00")

	out = f.mustRun(t, "transfer", "1", "2", "25")
	assert.Contains(t, out, "Transferred 25.00 from #1 (now 100.00) to #2 (now 75.00)")

	_, err := f.run(t, "transfer", "1", "2", "1000")
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, "100.00", f.balance(t, 1))
	assert.Equal(t, "75.00", f.balance(t, 2))

	_, err = f.run(t, "transfer", "1", "1", "5")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = f.run(t, "deposit", "1", "0")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = f.run(t, "deposit", "1")
	require.Error(t, err)
}

func TestBranchCommands(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Checking", "--balance", "100")
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Savings", "--balance", "40")

	out := f.mustRun(t, "branch", "credit", "1", "10")
	assert.Contains(t, out, "nothing changed")

	f.mustRun(t, "account", "assign", "1", "--branch", "1")
	out = f.mustRun(t, "account", "assign", "2", "--branch", "#1")
	assert.Contains(t, out, "Account #2 now belongs to branch #1")

	out = f.mustRun(t, "branch", "credit", "1", "10")
	assert.Contains(t, out, "Credited 10.00 to 2 accounts of branch #1")
	assert.Equal(t, "110.00", f.balance(t, 1))
	assert.Equal(t, "50.00", f.balance(t, 2))

	f.mustRun(t, "branch", "credit", "1", "-50")
	assert.Equal(t, "60.00", f.balance(t, 1))
	assert.Equal(t, "0.00", f.balance(t, 2))

	// Balances are signed; a debit may overdraw.
	f.mustRun(t, "branch", "credit", "1", "-1")
	assert.Equal(t, "-1.00", f.balance(t, 2))

	_, err := f.run(t, "branch", "credit", "1", "0")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = f.run(t, "account", "assign", "1", "--branch", "9")
	require.ErrorIs(t, err, ledger.ErrNotFound)

	out = f.mustRun(t, "account", "detach", "1")
	assert.Contains(t, out, "Account #1 has no branch")
}

func TestReports(t *testing.T) {
	f := newFixture(t)

	out := f.mustRun(t, "report", "top-customers")
	assert.Contains(t, out, "No customers with accounts.")

	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Checking", "--balance", "100", "--date", "2024-01-01")
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Savings", "--balance", "10", "--date", "2024-01-01")

	out = f.mustRun(t, "report", "top-customers", "--limit", "1")
	assert.Contains(t, out, "Emma")
	assert.Contains(t, out, "110.00")

	out = f.mustRun(t, "report", "above-average")
	assert.Contains(t, out, "100.00")

	out = f.mustRun(t, "report", "active-customers", "--since", "2000-01-01", "--min", "1")
	assert.Contains(t, out, "Clark")

	_, err := f.run(t, "report", "active-customers", "--since", "yesterday")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)

	out = f.mustRun(t, "report", "loans")
	assert.Contains(t, out, "No loans.")
}

func TestInitAndSeed(t *testing.T) {
	f := newFixture(t)
	written := filepath.Join(t.TempDir(), "out.yaml")

	out := f.mustRun(t, "init", "--write-config", written)
	assert.Contains(t, out, "Database ready")
	cfg, err := config.Load(written)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server.Addr, cfg.Server.Addr)

	out = f.mustRun(t, "init", "--reset")
	assert.Contains(t, out, "Reset database")
	_, err = f.run(t, "account", "open", "--customer", "1", "--type", "Savings")
	require.ErrorIs(t, err, ledger.ErrNotFound, "reset removes customers")

	out = f.mustRun(t, "seed", "--users", "4", "--branches", "2", "--accounts", "6",
		"--transactions", "12", "--loans", "3", "--random-seed", "42")
	assert.Contains(t, out, "Seeded 4 customers, 2 branches, 6 accounts, 12 transactions and 3 loans")

	loans, err := f.store.Loans(context.Background())
	require.NoError(t, err)
	assert.Len(t, loans, 3)

	_, err = f.run(t, "seed", "--users", "0", "--accounts", "1")
	require.Error(t, err)
}

func TestSeedUsesConfigCounts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Reset(context.Background()))

	cfg := config.Default()
	cfg.Seed.Users = 2
	cfg.Seed.Branches = 1
	cfg.Seed.Accounts = 3
	cfg.Seed.Transactions = 0
	cfg.Seed.Loans = 0
	require.NoError(t, config.Save(f.config, cfg))

	out := f.mustRun(t, "seed", "--loans", "1")
	assert.Contains(t, out, "Seeded 2 customers, 1 branches, 3 accounts, 0 transactions and 1 loans")
}

func TestOpenerError(t *testing.T) {
	boom := errors.New("connection refused")
	opener := func(context.Context, *config.Config) (commands.Store, error) { return nil, boom }
	cmd := commands.NewRootCommand(commands.WithOpener(opener), commands.WithLogOutput(io.Discard))
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "report", "loans"})

	err := cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestInvalidConfig(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.config, []byte("database: [\n"), 0o644))

	_, err := f.run(t, "report", "loans")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	f := newFixture(t)
	out := f.mustRun(t, "--version")
	assert.Contains(t, out, "teller version dev")
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Checking")
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Savings")

	out := f.mustRun(t, "import", "../../testdata/postings.csv")
	assert.Contains(t, out, "postings.csv: applied 4 postings")
	assert.Equal(t, "60.00", f.balance(t, 1))
	assert.Equal(t, "25.00", f.balance(t, 2))

	inbox := t.TempDir()
	good := "account_id,amount\n1,10\n"
	bad := "account_id,amount\n2,-1000\n1,5\n"
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "good.csv"), []byte(good), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "bad.csv"), []byte(bad), 0o644))

	out, err := f.run(t, "import", "--dir", inbox)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 postings were rejected")
	assert.Contains(t, out, "bad.csv: 1 of 2 postings rejected, nothing applied")
	assert.Contains(t, out, "insufficient funds")
	assert.Equal(t, "70.00", f.balance(t, 1))

	_, err = os.Stat(filepath.Join(inbox, "processed", "good.csv"))
	assert.NoError(t, err, "clean files are moved")
	_, err = os.Stat(filepath.Join(inbox, "bad.csv"))
	assert.NoError(t, err, "files with rejections stay in the inbox")

	_, err = f.run(t, "import", "--format", "ofx", "x.csv")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = f.run(t, "import")
	require.ErrorIs(t, err, ledger.ErrInvalidArgument)
}

func TestImport_RerunAppliesOnce(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "account", "open", "--customer", "1", "--type", "Checking")

	inbox := t.TempDir()
	path := filepath.Join(inbox, "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte("account_id,amount\n1,100.00\n99,5.00\n"), 0o644))

	for range 2 {
		out, err := f.run(t, "import", "--dir", inbox)
		require.Error(t, err)
		assert.Contains(t, out, "mixed.csv: 1 of 2 postings rejected, nothing applied")
		assert.Equal(t, "0.00", f.balance(t, 1))
	}

	// Once the bad row is fixed the file applies exactly once.
	require.NoError(t, os.WriteFile(path, []byte("account_id,amount\n1,100.00\n"), 0o644))
	f.mustRun(t, "import", "--dir", inbox)
	assert.Equal(t, "100.00", f.balance(t, 1))

	out := f.mustRun(t, "import", "--dir", inbox)
	assert.Contains(t, out, "No CSV files")
	assert.Equal(t, "100.00", f.balance(t, 1))
}
