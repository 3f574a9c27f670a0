package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Service performs the state-changing ledger operations. Every operation runs
// in one Store transaction: it either completes fully or leaves the store
// unchanged and returns an error carrying one of the ledger kinds.
type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for operation logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the time source used to date transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a ledger Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenAccountParams holds parameters for opening an account.
type OpenAccountParams struct {
	CustomerID     int64
	Type           model.AccountType
	InitialBalance decimal.Decimal
	DateOpened     time.Time // zero = today
}

// OpenAccount creates an account for an existing customer and returns its ID.
// A positive initial balance is recorded as an opening deposit.
func (s *Service) OpenAccount(ctx context.Context, p OpenAccountParams) (int64, error) {
	if !p.Type.Valid() {
		return 0, s.reject(ctx, "open account", fmt.Errorf("account type %q must be %s or %s: %w",
			p.Type, model.AccountTypeChecking, model.AccountTypeSavings, ErrInvalidArgument))
	}
	if err := validateOpening(p.InitialBalance); err != nil {
		return 0, s.reject(ctx, "open account", err)
	}

	now := s.now()
	opened := p.DateOpened
	if opened.IsZero() {
		opened = now
	}
	opened = truncateDay(opened)

	var accountID int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.UserExists(ctx, p.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("customer %d: %w", p.CustomerID, ErrNotFound)
		}

		accountID, err = tx.InsertAccount(ctx, model.Account{
			CustomerID: p.CustomerID,
			Type:       p.Type,
			Balance:    p.InitialBalance,
			DateOpened: opened,
		})
		if err != nil {
			return err
		}

		if p.InitialBalance.IsPositive() {
			if _, err := tx.AppendTransaction(ctx, model.NewEntry(accountID, p.InitialBalance, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.reject(ctx, "open account", err)
	}

	s.log.InfoContext(ctx, "account opened",
		"account_id", accountID,
		"customer_id", p.CustomerID,
		"type", string(p.Type),
		"balance", p.InitialBalance.StringFixed(2))
	return accountID, nil
}

// CloseAccount deletes an account whose balance is exactly zero. The account's
// transactions are kept.
func (s *Service) CloseAccount(ctx context.Context, accountID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if !acct.Balance.IsZero() {
			return fmt.Errorf("account %d has balance %s: %w", accountID, acct.Balance.StringFixed(2), ErrPreconditionFailed)
		}
		return tx.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		return s.reject(ctx, "close account", err)
	}

	s.log.InfoContext(ctx, "account closed", "account_id", accountID)
	return nil
}

// DetachFromBranch clears the account's branch association.
func (s *Service) DetachFromBranch(ctx context.Context, accountID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := lockAccount(ctx, tx, accountID); err != nil {
			return err
		}
		return tx.SetAccountBranch(ctx, accountID, nil)
	})
	if err != nil {
		return s.reject(ctx, "detach from branch", err)
	}

	s.log.InfoContext(ctx, "account detached from branch", "account_id", accountID)
	return nil
}

// AssignToBranch associates the account with an existing branch.
func (s *Service) AssignToBranch(ctx context.Context, accountID, branchID int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := lockAccount(ctx, tx, accountID); err != nil {
			return err
		}
		ok, err := tx.BranchExists(ctx, branchID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("branch %d: %w", branchID, ErrNotFound)
		}
		return tx.SetAccountBranch(ctx, accountID, &branchID)
	})
	if err != nil {
		return s.reject(ctx, "assign to branch", err)
	}

	s.log.InfoContext(ctx, "account assigned to branch", "account_id", accountID, "branch_id", branchID)
	return nil
}

// Deposit adds amount to the account balance, records a Deposit transaction
// and returns the new balance.
func (s *Service) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validatePositive(amount); err != nil {
		return decimal.Zero, s.reject(ctx, "deposit", err)
	}

	var balance decimal.Decimal
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		balance, err = s.post(ctx, tx, acct, amount)
		return err
	})
	if err != nil {
		return decimal.Zero, s.reject(ctx, "deposit", err)
	}

	s.log.InfoContext(ctx, "deposit",
		"account_id", accountID,
		"amount", amount.StringFixed(2),
		"balance", balance.StringFixed(2))
	return balance, nil
}

// Withdraw removes amount from the account balance, records a Withdrawal
// transaction and returns the new balance. The balance may not go negative.
func (s *Service) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validatePositive(amount); err != nil {
		return decimal.Zero, s.reject(ctx, "withdraw", err)
	}

	var balance decimal.Decimal
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		acct, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if acct.Balance.LessThan(amount) {
			return fmt.Errorf("account %d balance %s is less than %s: %w",
				accountID, acct.Balance.StringFixed(2), amount.StringFixed(2), ErrInsufficientFunds)
		}
		balance, err = s.post(ctx, tx, acct, amount.Neg())
		return err
	})
	if err != nil {
		return decimal.Zero, s.reject(ctx, "withdraw", err)
	}

	s.log.InfoContext(ctx, "withdrawal",
		"account_id", accountID,
		"amount", amount.StringFixed(2),
		"balance", balance.StringFixed(2))
	return balance, nil
}

// TransferParams holds parameters for moving money between two accounts.
type TransferParams struct {
	From   int64
	To     int64
	Amount decimal.Decimal
}

// TransferResult reports both balances after a transfer.
type TransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// Transfer debits the source and credits the target as one unit, recording a
// Withdrawal against the source and a Deposit against the target.
func (s *Service) Transfer(ctx context.Context, p TransferParams) (TransferResult, error) {
	if err := validatePositive(p.Amount); err != nil {
		return TransferResult{}, s.reject(ctx, "transfer", err)
	}
	if p.From == p.To {
		return TransferResult{}, s.reject(ctx, "transfer",
			fmt.Errorf("source and target are both account %d: %w", p.From, ErrInvalidArgument))
	}

	var res TransferResult
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		// Lock in ascending ID order so opposing transfers cannot deadlock.
		first, second := p.From, p.To
		if second < first {
			first, second = second, first
		}
		locked := make(map[int64]model.Account, 2)
		for _, id := range []int64{first, second} {
			acct, err := lockAccount(ctx, tx, id)
			if err != nil {
				return err
			}
			locked[id] = acct
		}

		src := locked[p.From]
		if src.Balance.LessThan(p.Amount) {
			return fmt.Errorf("account %d balance %s is less than %s: %w",
				p.From, src.Balance.StringFixed(2), p.Amount.StringFixed(2), ErrInsufficientFunds)
		}

		var err error
		if res.FromBalance, err = s.post(ctx, tx, src, p.Amount.Neg()); err != nil {
			return err
		}
		if res.ToBalance, err = s.post(ctx, tx, locked[p.To], p.Amount); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return TransferResult{}, s.reject(ctx, "transfer", err)
	}

	s.log.InfoContext(ctx, "transfer",
		"from", p.From,
		"to", p.To,
		"amount", p.Amount.StringFixed(2))
	return res, nil
}

// BranchCredit reports the outcome of a branch-wide credit.
type BranchCredit struct {
	BranchID int64
	Accounts []int64 // credited accounts in ID order
}

// Credited returns how many accounts were adjusted. Zero means the branch had
// no accounts and nothing changed.
func (b BranchCredit) Credited() int {
	return len(b.Accounts)
}

// CreditBranch adds amount (positive or negative) to every account of the
// branch, all or nothing, recording one transaction per account.
func (s *Service) CreditBranch(ctx context.Context, branchID int64, amount decimal.Decimal) (BranchCredit, error) {
	if err := validateNonZero(amount); err != nil {
		return BranchCredit{}, s.reject(ctx, "credit branch", err)
	}

	res := BranchCredit{BranchID: branchID}
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		accts, err := tx.LockBranchAccounts(ctx, branchID)
		if err != nil {
			return err
		}
		for _, acct := range accts {
			if _, err := s.post(ctx, tx, acct, amount); err != nil {
				return err
			}
			res.Accounts = append(res.Accounts, acct.ID)
		}
		return nil
	})
	if err != nil {
		return BranchCredit{}, s.reject(ctx, "credit branch", err)
	}

	if res.Credited() == 0 {
		s.log.InfoContext(ctx, "branch credit found no accounts", "branch_id", branchID)
		return res, nil
	}
	s.log.InfoContext(ctx, "branch credited",
		"branch_id", branchID,
		"amount", amount.StringFixed(2),
		"accounts", res.Credited())
	return res, nil
}

// post applies a signed balance change to a locked account and appends the
// matching transaction. A resulting balance the column cannot hold is rejected
// before anything is written.
func (s *Service) post(ctx context.Context, tx Tx, acct model.Account, delta decimal.Decimal) (decimal.Decimal, error) {
	accountID := acct.ID
	if err := checkRange(fmt.Sprintf("balance of account %d", accountID), acct.Balance.Add(delta)); err != nil {
		return decimal.Zero, err
	}
	balance, err := tx.AdjustBalance(ctx, accountID, delta)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := tx.AppendTransaction(ctx, model.NewEntry(accountID, delta, s.now())); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// reject logs a failed operation and prefixes err with the operation name.
func (s *Service) reject(ctx context.Context, op string, err error) error {
	if KindOf(err) == KindInternal {
		s.log.ErrorContext(ctx, op+" failed", "error", err)
	} else {
		s.log.DebugContext(ctx, op+" rejected", "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func lockAccount(ctx context.Context, tx Tx, id int64) (model.Account, error) {
	acct, ok, err := tx.LockAccount(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	if !ok {
		return model.Account{}, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	return acct, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
