package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/ledger"
)

func TestPostBatch(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "50")
	b := f.open(t, "0")

	err := f.svc.PostBatch(context.Background(), []ledger.Posting{
		{AccountID: a, Amount: dec("100.00")},
		{AccountID: b, Amount: dec("25.50")},
		{AccountID: a, Amount: dec("-140.00")},
	})
	require.NoError(t, err)

	assertBalance(t, "10", f.balance(t, a))
	assertBalance(t, "25.50", f.balance(t, b))
	assert.Len(t, f.txns(t, a), 3)
	assert.Len(t, f.txns(t, b), 1)
}

func TestPostBatch_Empty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.PostBatch(context.Background(), nil))
}

func TestPostBatch_RejectsWholeBatch(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "50")

	postings := []ledger.Posting{
		{AccountID: a, Amount: dec("100.00")},
		{AccountID: 99, Amount: dec("5.00")},
		{AccountID: a, Amount: dec("-500.00")},
		{AccountID: a, Amount: dec("0")},
	}

	// Repeating a rejected batch must not apply its good postings twice.
	for range 2 {
		err := f.svc.PostBatch(context.Background(), postings)
		require.Error(t, err)

		var batchErr *ledger.BatchError
		require.True(t, errors.As(err, &batchErr))
		require.Len(t, batchErr.Failures, 3)
		assert.Equal(t, 1, batchErr.Failures[0].Index)
		assert.Equal(t, ledger.KindNotFound, ledger.KindOf(batchErr.Failures[0].Err))
		assert.Equal(t, 2, batchErr.Failures[1].Index)
		assert.Equal(t, ledger.KindInsufficientFunds, ledger.KindOf(batchErr.Failures[1].Err))
		assert.Equal(t, 3, batchErr.Failures[2].Index)
		assert.Equal(t, ledger.KindInvalidArgument, ledger.KindOf(batchErr.Failures[2].Err))

		assertBalance(t, "50", f.balance(t, a))
		assert.Len(t, f.txns(t, a), 1)
	}
}

func TestPostBatch_UsesRunningBalance(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")

	err := f.svc.PostBatch(context.Background(), []ledger.Posting{
		{AccountID: a, Amount: dec("-10.00")},
		{AccountID: a, Amount: dec("-0.01")},
	})
	require.Error(t, err)
	assert.Equal(t, ledger.KindInsufficientFunds, ledger.KindOf(err))
	assertBalance(t, "10", f.balance(t, a))
}

func TestPostBatch_StoreFailure(t *testing.T) {
	f := newFixture(t)
	a := f.open(t, "10")

	svc := newService(&failingStore{inner: f.store, failAt: 2})
	err := svc.PostBatch(context.Background(), []ledger.Posting{
		{AccountID: a, Amount: dec("1.00")},
		{AccountID: a, Amount: dec("2.00")},
	})
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, ledger.KindInternal, ledger.KindOf(err))

	var batchErr *ledger.BatchError
	assert.False(t, errors.As(err, &batchErr))
	assertBalance(t, "10", f.balance(t, a))
}
