package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/syssam/saint/cache"
)

func newSchemaCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the resolved controllers as YAML",
		Long: `Boot the controllers and print their columns, associations,
filters and subsets as YAML. The database is not queried.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			drv, err := e.open()
			if err != nil {
				return err
			}
			defer drv.Close()
			reg, err := e.registry(drv, cache.NewMemory())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(Describe(reg)); err != nil {
				return fmt.Errorf("failed to encode schema: %w", err)
			}
			return enc.Close()
		},
	}
}
