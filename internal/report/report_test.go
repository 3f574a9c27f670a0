package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/model"
)

// stubReader records the arguments it was called with.
type stubReader struct {
	limit    int
	since    time.Time
	minCount int
	err      error
	accounts map[int64]model.Account
}

func (r *stubReader) TopCustomers(_ context.Context, limit int) ([]CustomerBalance, error) {
	r.limit = limit
	return nil, r.err
}

func (r *stubReader) ActiveCustomers(_ context.Context, since time.Time, minCount, limit int) ([]CustomerActivity, error) {
	r.since, r.minCount, r.limit = since, minCount, limit
	return nil, r.err
}

func (r *stubReader) AboveAverageBalances(context.Context) ([]AccountBalance, error) {
	return nil, r.err
}

func (r *stubReader) Account(_ context.Context, id int64) (model.Account, bool, error) {
	a, ok := r.accounts[id]
	return a, ok, r.err
}

func (r *stubReader) Statement(context.Context, int64) ([]model.Transaction, error) {
	return nil, r.err
}

func (r *stubReader) Loans(context.Context) ([]model.Loan, error) {
	return nil, r.err
}

func TestTopCustomers_DefaultLimit(t *testing.T) {
	r := &stubReader{}
	svc := NewService(r)

	_, err := svc.TopCustomers(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopLimit, r.limit)

	_, err = svc.TopCustomers(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 12, r.limit)
}

func TestActiveCustomers_Defaults(t *testing.T) {
	r := &stubReader{}
	svc := NewService(r)
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.ActiveCustomers(context.Background(), ActiveParams{Since: since})
	require.NoError(t, err)
	assert.Equal(t, since, r.since)
	assert.Equal(t, DefaultActiveMinCount, r.minCount)
	assert.Equal(t, DefaultActiveLimit, r.limit)
}

func TestActiveCustomers_InvalidArguments(t *testing.T) {
	svc := NewService(&stubReader{})

	_, err := svc.ActiveCustomers(context.Background(), ActiveParams{})
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)

	_, err = svc.ActiveCustomers(context.Background(), ActiveParams{Since: time.Now(), MinCount: -1})
	assert.ErrorIs(t, err, ledger.ErrInvalidArgument)
}

func TestAccount(t *testing.T) {
	svc := NewService(&stubReader{accounts: map[int64]model.Account{3: {ID: 3}}})

	acct, err := svc.Account(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), acct.ID)

	_, err = svc.Account(context.Background(), 4)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestReaderErrorsAreWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&stubReader{err: boom})

	_, err := svc.AboveAverage(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, ledger.KindInternal, ledger.KindOf(err))

	_, err = svc.Statement(context.Background(), 1)
	assert.ErrorContains(t, err, "statement for account 1")

	_, err = svc.Loans(context.Background())
	assert.ErrorIs(t, err, boom)
}
