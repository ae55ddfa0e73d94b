package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/saint"
	"github.com/syssam/saint/admin"
	"github.com/syssam/saint/cache"
	"github.com/syssam/saint/dialect/sql"
	sqlschema "github.com/syssam/saint/dialect/sql/schema"
	"github.com/syssam/saint/fm"
	"github.com/syssam/saint/internal/config"
	"github.com/syssam/saint/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Migrate bool
	Seed    bool
	Watch   bool
}

func newServeCommand(e *env) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the admin server",
		Example: `  # Serve on the default address with the demo data
  saint serve --seed

  # Serve on a custom address
  saint serve --addr :3000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, e, cmd, opts)
		},
	}

	cmd.Flags().String("addr", "", "address to listen on (default: :8080)")
	cmd.Flags().BoolVar(&opts.Migrate, "migrate", true, "create the missing tables")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "fill an empty database with sample rows")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "reload the config file when it changes")

	return cmd
}

func runServe(ctx context.Context, e *env, cmd *cobra.Command, opts *ServeOptions) error {
	drv, err := e.open()
	if err != nil {
		return err
	}
	defer drv.Close()

	settings := cache.NewSQL(drv, "")
	if opts.Migrate {
		if err := migrate(ctx, e, drv); err != nil {
			return err
		}
		if err := settings.Init(ctx); err != nil {
			return fmt.Errorf("failed to create the settings table: %w", err)
		}
	}

	reg, err := e.registry(drv, settings)
	if err != nil {
		return err
	}
	if opts.Seed && e.app.Seed != nil {
		if err := e.app.Seed(ctx, reg); err != nil {
			return err
		}
	}
	files, err := e.files()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:          e.cfg.Server.Addr,
		SessionSecret: e.cfg.Server.SessionSecret,
		Registry:      reg,
		Files:         files,
		Stats:         drv,
		Logger:        e.logger,
	})
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Serve(egctx)
	})
	if opts.Watch && e.cfgFile != "" {
		eg.Go(func() error {
			return config.Watch(egctx, e.cfgFile, cmd.Flags(), e.logger, func(cfg *config.Config) {
				if l, err := config.ParseLevel(cfg.Log.Level); err == nil {
					e.level.Set(l)
				}
				reg.SetItemsPerPage(cfg.Admin.ItemsPerPage)
				drv.SetSlowThreshold(cfg.Database.SlowQuery)
			})
		})
	}
	err = eg.Wait()
	e.logger.Info("admin server stopped", "queries", drv.QueryStats().Stats().String())
	return err
}

// registry registers and boots the controllers of the application.
func (e *env) registry(drv *sql.StatsDriver, settings saint.Cache) (*admin.Registry, error) {
	reg := admin.NewRegistry(drv, e.app.Graph,
		admin.WithItemsPerPage(e.cfg.Admin.ItemsPerPage),
		admin.WithLogger(e.logger),
	)
	if e.app.Setup != nil {
		e.app.Setup(reg, settings)
	}
	if err := reg.Boot(); err != nil {
		return nil, fmt.Errorf("failed to boot the admin: %w", err)
	}
	return reg, nil
}

// files returns the file manager of the configured roots, nil without
// roots.
func (e *env) files() (*fm.Manager, error) {
	if len(e.cfg.FM.Roots) == 0 {
		return nil, nil
	}
	osfs := afero.NewOsFs()
	roots := make([]*fm.Root, 0, len(e.cfg.FM.Roots))
	for _, rc := range e.cfg.FM.Roots {
		root, err := fm.NewRoot(osfs, rc.Path, fm.RootOpts{
			Label:         rc.Label,
			EditMaxSize:   rc.EditMaxSize,
			UploadMaxSize: rc.UploadMaxSize,
		})
		if err != nil {
			return nil, err
		}
		roots = append(roots, root)
	}
	return fm.New(fm.Options{Prefix: e.cfg.FM.Prefix, Logger: e.logger}, roots...)
}

func migrate(ctx context.Context, e *env, drv *sql.StatsDriver, opts ...sqlschema.MigrateOption) error {
	tables, err := sqlschema.Tables(e.app.Graph)
	if err != nil {
		return err
	}
	opts = append(opts, sqlschema.WithLogger(e.logger))
	if err := sqlschema.NewMigrate(drv, opts...).Create(ctx, tables...); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
