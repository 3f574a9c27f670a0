package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			return runServe(cmd, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := a.connect(ctx)
	if err != nil {
		return err
	}
	if err := migrate(ctx, st); err != nil {
		return err
	}
	svc, err := a.ledger(ctx)
	if err != nil {
		return err
	}
	reports, err := a.reports(ctx)
	if err != nil {
		return err
	}

	router := server.NewRouter(a.log, server.Dependencies{Ledger: svc, Reports: reports, Health: st})
	return server.New(a.log, a.cfg.Server.Addr, router).Run(ctx)
}
