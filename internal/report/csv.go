package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/teller/internal/model"
)

// StatementHeader is the CSV header for exported statements.
const StatementHeader = "transaction_id,account_id,date,type,amount"

const (
	numFields  = 5
	dateFormat = "2006-01-02"
	colID      = 0
	colAcctID  = 1
	colDate    = 2
	colType    = 3
	colAmount  = 4
)

// WriteStatement writes transactions as CSV, header first.
func WriteStatement(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(StatementHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range txns {
		if err := cw.Write(MarshalTransaction(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row.
func MarshalTransaction(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.FormatInt(t.ID, 10)
	row[colAcctID] = strconv.FormatInt(t.AccountID, 10)
	row[colDate] = t.Date.Format(dateFormat)
	row[colType] = string(t.Type)
	row[colAmount] = t.Amount.StringFixed(2)
	return row
}
