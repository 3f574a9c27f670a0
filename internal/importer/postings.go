package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/ledger"
)

// PostingsHeader is the header of a postings batch file.
const PostingsHeader = "account_id,amount"

// PostingsParser reads "account_id,amount" batch files.
type PostingsParser struct{}

const (
	postingsNumFields = 2
	postingsColAcctID = 0
	postingsColAmount = 1
)

// Format returns the parser name.
func (p *PostingsParser) Format() string { return "postings" }

// Parse reads a postings CSV. The header row is required.
func (p *PostingsParser) Parse(r io.Reader) ([]Posting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = postingsNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading postings CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != PostingsHeader {
		return nil, fmt.Errorf("unexpected header %q, want %q: %w", got, PostingsHeader, ledger.ErrInvalidArgument)
	}

	var postings []Posting
	for i, rec := range records[1:] {
		line := i + 2
		accountID, err := id.Parse("account", rec[postingsColAcctID])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		amount, err := ledger.ParseAmount(rec[postingsColAmount])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		postings = append(postings, Posting{Line: line, AccountID: accountID, Amount: amount})
	}
	return postings, nil
}
