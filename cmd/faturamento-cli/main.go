package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"faturamento/internal/backend"
	"faturamento/internal/cli"
	"faturamento/internal/config"
	applog "faturamento/internal/log"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
	out    io.Writer

	logFormat string
	dbPath    string
}

func main() {
	cli.LoadEnvFile()
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := newRootCommand(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "faturamento-cli",
		Short: "Project recurring revenue, expenses and loans month by month",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cfg, applog.ComponentApp, a.logFormat)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", applog.FormatPretty, "log format: text, json or pretty")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path; selects the sqlite backend")

	rootCmd.AddCommand(
		newProjectCommand(a),
		newItemsCommand(a),
		newMigrateCommand(a),
	)
	return rootCmd
}

// openBackend builds the configured item store, or SQLite when --db is set.
func (a *app) openBackend(ctx context.Context) (backend.Backend, func(), error) {
	bc, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	if a.dbPath != "" {
		bc.Type = backend.SQLiteBackend
		bc.SQLiteDBPath = a.dbPath
	}
	res, err := backend.NewFactory(a.logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s backend: %w", bc.Type, err)
	}
	cleanup := func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				a.logger.Warn("Backend cleanup failed", "error", err)
			}
		}
	}
	return res.Backend, cleanup, nil
}
