// Package cli provides the command-line interface of saint.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/dialect/sql"
	"github.com/syssam/saint/graph"
	"github.com/syssam/saint/internal/config"
)

// App is the admin application served by the commands.
type App struct {
	Name    string
	Version string
	Graph   *graph.Graph
	// Setup registers the controllers. Settings stores the values of
	// opts pools.
	Setup func(reg *admin.Registry, settings saint.Cache)
	// Seed fills an empty database. It is optional.
	Seed func(ctx context.Context, reg *admin.Registry) error
}

// env is the state shared by the commands of a run.
type env struct {
	app     App
	cfgFile string
	cfg     *config.Config
	level   slog.LevelVar
	logger  *slog.Logger
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(app App) *cobra.Command {
	e := &env{app: app}
	rootCmd := &cobra.Command{
		Use:     app.Name,
		Short:   "Admin interface for your models",
		Version: app.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(e.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = config.NewLogger(cmd.ErrOrStderr(), cfg.Log, &e.level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&e.cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().String("dialect", "", "database driver: sqlite, mysql or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sqlite", "mysql", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand(app))
	rootCmd.AddCommand(newServeCommand(e))
	rootCmd.AddCommand(newMigrateCommand(e))
	rootCmd.AddCommand(newSchemaCommand(e))

	return rootCmd
}

// Execute runs the root command.
func Execute(app App) error {
	rootCmd := NewRootCmd(app)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// open connects to the configured database.
func (e *env) open() (*sql.StatsDriver, error) {
	drv, err := sql.Open(e.cfg.Database.Dialect, e.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(e.cfg.Database.SlowQuery),
		sql.WithSlowQueryLog(e.logger),
	), nil
}

func newVersionCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout(), app)
		},
	}
}

func printVersion(w io.Writer, app App) {
	_, _ = fmt.Fprintf(w, "%s v%s\n", app.Name, app.Version)
}
