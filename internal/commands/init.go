package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/config"
)

func newInitCommand(a *app) *cobra.Command {
	var reset bool
	var writeConfig string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ledger tables",
		Long:  "Create any missing ledger tables. With --reset every table is dropped first and all data is lost.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeConfig != "" {
				if err := config.Save(writeConfig, a.cfg); err != nil {
					return fmt.Errorf("writing config: %w", err)
				}
				printer(cmd).Success("Wrote %s", writeConfig)
			}
			return runInit(cmd, a, reset)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "drop all tables before creating them")
	cmd.Flags().StringVar(&writeConfig, "write-config", "", "also write the effective configuration to this path")

	return cmd
}

func runInit(cmd *cobra.Command, a *app, reset bool) error {
	ctx := cmd.Context()
	st, err := a.connect(ctx)
	if err != nil {
		return err
	}

	if reset {
		if err := st.Reset(ctx); err != nil {
			return fmt.Errorf("resetting database: %w", err)
		}
		a.log.Warn("dropped all ledger tables")
		printer(cmd).Success("Reset database")
		return nil
	}

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	printer(cmd).Success("Database ready")
	return nil
}

// migrate is run by commands that write before anything else has.
func migrate(ctx context.Context, st Store) error {
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}
