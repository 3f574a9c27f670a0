package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/report"
)

// StatementParser replays exported statements ("account statement --csv").
// Each row's signed amount becomes a posting against its account; the
// original transaction IDs and dates are not kept.
type StatementParser struct{}

const (
	stmtNumFields = 5
	stmtColAcctID = 1
	stmtColAmount = 4
)

// Format returns the parser name.
func (p *StatementParser) Format() string { return "statement" }

// Parse reads a statement CSV.
func (p *StatementParser) Parse(r io.Reader) ([]Posting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = stmtNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != report.StatementHeader {
		return nil, fmt.Errorf("unexpected header %q, want %q: %w", got, report.StatementHeader, ledger.ErrInvalidArgument)
	}

	var postings []Posting
	for i, rec := range records[1:] {
		line := i + 2
		accountID, err := id.Parse("account", rec[stmtColAcctID])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := ledger.ParseAmount(rec[stmtColAmount])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		postings = append(postings, Posting{Line: line, AccountID: accountID, Amount: amount})
	}
	return postings, nil
}
