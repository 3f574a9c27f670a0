package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/seed"
)

func newSeedCommand(a *app) *cobra.Command {
	var flags seed.Config

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty database with synthetic data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Seed
			fl := cmd.Flags()
			if fl.Changed("users") {
				cfg.Users = flags.Users
			}
			if fl.Changed("branches") {
				cfg.Branches = flags.Branches
			}
			if fl.Changed("accounts") {
				cfg.Accounts = flags.Accounts
			}
			if fl.Changed("transactions") {
				cfg.Transactions = flags.Transactions
			}
			if fl.Changed("loans") {
				cfg.Loans = flags.Loans
			}
			if fl.Changed("random-seed") {
				cfg.RandomSeed = flags.RandomSeed
			}
			return runSeed(cmd, a, cfg)
		},
	}

	defaults := seed.DefaultConfig()
	cmd.Flags().IntVar(&flags.Users, "users", defaults.Users, "number of customers")
	cmd.Flags().IntVar(&flags.Branches, "branches", defaults.Branches, "number of branches")
	cmd.Flags().IntVar(&flags.Accounts, "accounts", defaults.Accounts, "number of accounts")
	cmd.Flags().IntVar(&flags.Transactions, "transactions", defaults.Transactions, "number of transactions")
	cmd.Flags().IntVar(&flags.Loans, "loans", defaults.Loans, "number of loans")
	cmd.Flags().Uint64Var(&flags.RandomSeed, "random-seed", 0, "seed for reproducible data (0 = random)")

	return cmd
}

func runSeed(cmd *cobra.Command, a *app, cfg seed.Config) error {
	ctx := cmd.Context()
	ds, err := seed.Generate(cfg)
	if err != nil {
		return fmt.Errorf("generating data: %w", err)
	}

	st, err := a.connect(ctx)
	if err != nil {
		return err
	}
	if err := migrate(ctx, st); err != nil {
		return err
	}
	if err := st.Load(ctx, ds); err != nil {
		return fmt.Errorf("loading data: %w", err)
	}

	a.log.Info("seeded database",
		"users", len(ds.Users), "branches", len(ds.Branches), "accounts", len(ds.Accounts),
		"transactions", len(ds.Transactions), "loans", len(ds.Loans))
	printer(cmd).Success("Seeded %d customers, %d branches, %d accounts, %d transactions and %d loans",
		len(ds.Users), len(ds.Branches), len(ds.Accounts), len(ds.Transactions), len(ds.Loans))
	return nil
}
