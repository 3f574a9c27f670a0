package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/model"
)

// Posting is one signed balance change in a batch. A positive amount is a
// deposit, a negative amount a withdrawal.
type Posting struct {
	AccountID int64
	Amount    decimal.Decimal
}

// PostingError is a batch posting that could not be applied.
type PostingError struct {
	Index int // position in the batch
	Err   error
}

func (e PostingError) Error() string {
	return fmt.Sprintf("posting %d: %v", e.Index+1, e.Err)
}

func (e PostingError) Unwrap() error { return e.Err }

// BatchError is returned when a batch was rolled back. It lists every posting
// that failed, not just the first.
type BatchError struct {
	Failures []PostingError
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	return fmt.Sprintf("%d postings rejected, first: %v", len(e.Failures), e.Failures[0])
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// PostBatch applies postings in order as one transaction. Each posting is
// checked against the balance left by the ones before it. If any posting is
// rejected nothing is applied and a *BatchError names them all.
func (s *Service) PostBatch(ctx context.Context, postings []Posting) error {
	if len(postings) == 0 {
		return nil
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		ids := make([]int64, 0, len(postings))
		for _, p := range postings {
			ids = append(ids, p.AccountID)
		}
		slices.Sort(ids)
		ids = slices.Compact(ids)

		// Ascending ID order, same as Transfer.
		locked := make(map[int64]model.Account, len(ids))
		for _, id := range ids {
			acct, err := lockAccount(ctx, tx, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			locked[id] = acct
		}

		var batchErr BatchError
		for i, p := range postings {
			err := s.postOne(ctx, tx, locked, p)
			if err == nil {
				continue
			}
			if KindOf(err) == KindInternal {
				return err
			}
			batchErr.Failures = append(batchErr.Failures, PostingError{Index: i, Err: err})
		}
		if len(batchErr.Failures) > 0 {
			return &batchErr
		}
		return nil
	})
	if err != nil {
		return s.reject(ctx, "post batch", err)
	}

	s.log.InfoContext(ctx, "batch posted", "postings", len(postings))
	return nil
}

// postOne applies p against the working balances in locked and updates them.
func (s *Service) postOne(ctx context.Context, tx Tx, locked map[int64]model.Account, p Posting) error {
	if err := validateNonZero(p.Amount); err != nil {
		return err
	}
	acct, ok := locked[p.AccountID]
	if !ok {
		return fmt.Errorf("account %d: %w", p.AccountID, ErrNotFound)
	}
	if p.Amount.IsNegative() && acct.Balance.LessThan(p.Amount.Neg()) {
		return fmt.Errorf("account %d balance %s is less than %s: %w",
			p.AccountID, acct.Balance.StringFixed(2), p.Amount.Neg().StringFixed(2), ErrInsufficientFunds)
	}
	balance, err := s.post(ctx, tx, acct, p.Amount)
	if err != nil {
		return err
	}
	acct.Balance = balance
	locked[p.AccountID] = acct
	return nil
}
