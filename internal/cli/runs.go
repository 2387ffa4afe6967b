package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	Kind  string
	Limit int
}

// NewRunsCommand creates the runs command, which lists recorded import runs.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "List recent import runs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), cmd, rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			runs, err := repository.NewImportRunRepository(e.db, e.logger).ListRecent(cmd.Context(), opts.Kind, opts.Limit)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), runs)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tKIND\tROSTER\tSTATUS\tCREATED\tUPDATED\tSKIPPED\tFAILED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Kind, r.Roster, r.Status,
					r.Created, r.Updated, r.Skipped, r.Failed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only runs of this kind (courses|prelims|finals)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs")

	return cmd
}
