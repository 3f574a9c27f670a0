package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/teller/internal/config"
	"github.com/cleared-dev/teller/internal/ledger"
	"github.com/cleared-dev/teller/internal/logging"
	"github.com/cleared-dev/teller/internal/output"
	"github.com/cleared-dev/teller/internal/report"
	"github.com/cleared-dev/teller/internal/seed"
	"github.com/cleared-dev/teller/internal/store/postgres"
)

// Store is everything the commands need from a backing store.
type Store interface {
	ledger.Store
	report.Reader
	seed.Loader
	Migrate(ctx context.Context) error
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

// Opener connects to the store described by cfg.
type Opener func(ctx context.Context, cfg *config.Config) (Store, error)

// OpenPostgres is the default Opener.
func OpenPostgres(ctx context.Context, cfg *config.Config) (Store, error) {
	st, err := postgres.Connect(ctx, postgres.Options{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return st, nil
}

// app carries state shared by all subcommands of one invocation.
type app struct {
	open       Opener
	logOut     io.Writer
	configPath string

	cfg   *config.Config
	log   *slog.Logger
	store Store
}

// Option configures the root command.
type Option func(*app)

// WithOpener replaces the store Opener.
func WithOpener(open Opener) Option {
	return func(a *app) { a.open = open }
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *app) { a.logOut = w }
}

// setup loads configuration and builds the logger. It runs before every
// subcommand.
func (a *app) setup() error {
	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(a.logOut, cfg.Logging)
	return nil
}

// connect opens the store once per invocation.
func (a *app) connect(ctx context.Context) (Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	st, err := a.open(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.store = st
	return st, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

func (a *app) ledger(ctx context.Context) (*ledger.Service, error) {
	st, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.NewService(st, ledger.WithLogger(a.log)), nil
}

func (a *app) reports(ctx context.Context) (*report.Service, error) {
	st, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	return report.NewService(st), nil
}

func printer(cmd *cobra.Command) *output.Printer {
	return output.New(cmd.OutOrStdout())
}

func newApp(opts []Option) *app {
	a := &app{
		open:       OpenPostgres,
		logOut:     os.Stderr,
		configPath: config.DefaultPath,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
