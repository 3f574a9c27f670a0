// Package importer reads batches of postings from CSV files and applies them
// to the ledger.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/teller/internal/ledger"
)

// Posting is one balance change read from a batch file. A positive amount is
// a deposit, a negative amount a withdrawal.
type Posting struct {
	Line      int // 1-based line in the source file
	AccountID int64
	Amount    decimal.Decimal
}

// Parser converts a CSV file into Postings.
type Parser interface {
	Parse(r io.Reader) ([]Posting, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file waiting in an inbox directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&PostingsParser{})
	r.Register(&StatementParser{})
	return r
}

// ProcessedDir is the subdirectory of an inbox that applied files move to.
const ProcessedDir = "processed"

// Scan returns the CSV files directly inside dir. A missing dir is empty.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed.
func MarkProcessed(dir, fileName string) error {
	dstDir := filepath.Join(dir, ProcessedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := filepath.Join(dir, fileName)
	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Poster applies a batch of balance changes as one unit.
type Poster interface {
	PostBatch(ctx context.Context, postings []ledger.Posting) error
}

// Failure is a posting the ledger rejected.
type Failure struct {
	Posting Posting
	Err     error
}

// Result summarizes an Apply run. A file is applied whole or not at all, so
// Applied is zero whenever Failures is not empty.
type Result struct {
	Applied  int
	Failures []Failure
}

// Apply posts every entry of one file in a single ledger batch. Rejected
// postings are reported in Failures and nothing is applied; any other error
// is returned.
func Apply(ctx context.Context, p Poster, postings []Posting) (Result, error) {
	batch := make([]ledger.Posting, len(postings))
	for i, posting := range postings {
		batch[i] = ledger.Posting{AccountID: posting.AccountID, Amount: posting.Amount}
	}

	err := p.PostBatch(ctx, batch)
	var batchErr *ledger.BatchError
	switch {
	case err == nil:
		return Result{Applied: len(postings)}, nil
	case errors.As(err, &batchErr):
		var res Result
		for _, f := range batchErr.Failures {
			res.Failures = append(res.Failures, Failure{Posting: postings[f.Index], Err: f.Err})
		}
		return res, nil
	default:
		return Result{}, err
	}
}
