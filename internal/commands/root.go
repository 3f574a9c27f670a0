package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/buildinfo"
	"github.com/cleared-dev/teller/internal/output"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(opts ...Option) *cobra.Command {
	return newRootCommand(newApp(opts))
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "teller",
		Short:   "Retail banking ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", a.configPath, "path to teller.yaml")

	rootCmd.AddCommand(
		newInitCommand(a),
		newSeedCommand(a),
		newAccountCommand(a),
		newDepositCommand(a),
		newWithdrawCommand(a),
		newTransferCommand(a),
		newBranchCommand(a),
		newImportCommand(a),
		newReportCommand(a),
		newServeCommand(a),
		newMenuCommand(a),
	)

	return rootCmd
}

// Execute runs the CLI and returns the process exit code. Errors are printed
// to stderr.
func Execute(ctx context.Context, args []string, opts ...Option) int {
	a := newApp(opts)
	// PersistentPostRun is skipped when a command fails.
	defer a.close()

	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	output.New(os.Stderr).Error("%v", err)
	return 1
}

func exactIDs(n int, names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("expected %d argument(s): %v", n, names)
		}
		return nil
	}
}
