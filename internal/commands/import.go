package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/id"
	"github.com/cleared-dev/teller/internal/importer"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/output"
)

func newImportCommand(a *app) *cobra.Command {
	var format, dir string

	cmd := &cobra.Command{
		Use:   "import [FILE...]",
		Short: "Apply deposits and withdrawals from CSV batch files",
		Long: "Apply every row of the given CSV files as a deposit (positive amount) or\n" +
			"withdrawal (negative amount). Each file is applied whole or not at all: one\n" +
			"rejected row leaves every account untouched. With --dir, every CSV in the\n" +
			"directory is applied and applied files are moved to its processed/ subdirectory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dir == "") == (len(args) == 0) {
				return fmt.Errorf("pass either files or --dir: %w", ledger.ErrInvalidArgument)
			}
			registry := importer.DefaultRegistry()
			parser := registry.Get(format)
			if parser == nil {
				formats := registry.Formats()
				slices.Sort(formats)
				return fmt.Errorf("unknown format %q (have %s): %w", format, strings.Join(formats, ", "), ledger.ErrInvalidArgument)
			}
			return runImport(cmd, a, parser, dir, args)
		},
	}

	cmd.Flags().StringVar(&format, "format", "postings", "file format: postings or statement")
	cmd.Flags().StringVar(&dir, "dir", "", "inbox directory to scan for CSV files")

	return cmd
}

func runImport(cmd *cobra.Command, a *app, parser importer.Parser, dir string, paths []string) error {
	ctx := cmd.Context()
	p := printer(cmd)

	if dir != "" {
		files, err := importer.Scan(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			p.Muted("No CSV files in %s.", dir)
			return nil
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}

	svc, err := a.ledger(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range paths {
		n, err := importFile(cmd, a, svc, parser, path)
		if err != nil {
			return err
		}
		failed += n
		if n == 0 && dir != "" {
			if err := importer.MarkProcessed(dir, filepath.Base(path)); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d postings were rejected", failed)
	}
	return nil
}

// importFile applies one file and returns how many postings failed.
func importFile(cmd *cobra.Command, a *app, svc *ledger.Service, parser importer.Parser, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	postings, err := parser.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	res, err := importer.Apply(cmd.Context(), svc, postings)
	if err != nil {
		return 0, err
	}

	a.log.Info("imported batch", "file", path, "applied", res.Applied, "rejected", len(res.Failures))
	p := printer(cmd)
	name := filepath.Base(path)
	if len(res.Failures) == 0 {
		p.Success("%s: applied %d postings", name, res.Applied)
		return 0, nil
	}

	p.Warning("%s: %d of %d postings rejected, nothing applied", name, len(res.Failures), len(postings))
	rows := make([][]string, 0, len(res.Failures))
	for _, fl := range res.Failures {
		rows = append(rows, []string{
			fmt.Sprint(fl.Posting.Line),
			id.Label(fl.Posting.AccountID),
			output.Money(fl.Posting.Amount),
			fl.Err.Error(),
		})
	}
	p.Table([]string{"Line", "Account", "Amount", "Error"}, rows)
	return len(res.Failures), nil
}
