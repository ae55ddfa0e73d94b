package cli

import (
	"github.com/spf13/cobra"

	"github.com/syssam/saint/cache"
	sqlschema "github.com/syssam/saint/dialect/sql/schema"
)

func newMigrateCommand(e *env) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the missing tables",
		Long: `Create the tables of the models and of the settings cache.

Existing tables are never altered.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			drv, err := e.open()
			if err != nil {
				return err
			}
			defer drv.Close()
			var opts []sqlschema.MigrateOption
			if dryRun {
				opts = append(opts, sqlschema.WithDryRun(cmd.OutOrStdout()))
			}
			if err := migrate(cmd.Context(), e, drv, opts...); err != nil {
				return err
			}
			settings := cache.NewSQL(drv, "")
			if dryRun {
				return sqlschema.NewMigrate(drv, opts...).Create(cmd.Context(), settings.Table())
			}
			return settings.Init(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements instead of running them")
	return cmd
}
