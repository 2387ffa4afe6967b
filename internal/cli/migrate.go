package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "migrate",
		Short:         "Apply pending database migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// openEnv migrates on connect
			e, err := openEnv(cmd.Context(), cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"status": "ok", "driver": e.db.Driver})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Migrated %s database\n", e.db.Driver)
			return err
		},
	}
}
