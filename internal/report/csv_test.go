package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/teller/internal/model"
)

func TestWriteStatement(t *testing.T) {
	txns := []model.Transaction{
		{ID: 1, AccountID: 7, Type: model.TransactionDeposit, Amount: decimal.RequireFromString("100"), Date: time.Date(2024, 2, 26, 15, 4, 5, 0, time.UTC)},
		{ID: 2, AccountID: 7, Type: model.TransactionWithdrawal, Amount: decimal.RequireFromString("-25.5"), Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, txns))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, StatementHeader, lines[0])
	assert.Equal(t, "1,7,2024-02-26,Deposit,100.00", lines[1])
	assert.Equal(t, "2,7,2024-03-01,Withdrawal,-25.50", lines[2])
}

func TestWriteStatement_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatement(&buf, nil))
	assert.Equal(t, StatementHeader+"\n", buf.String())
}
