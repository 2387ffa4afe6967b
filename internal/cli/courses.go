package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-sync/internal/batch"
	"github.com/joseph-ayodele/syllabus-sync/internal/catalog"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/directory"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
)

// CoursesOptions holds flags for the courses command.
type CoursesOptions struct {
	Roster   string
	Subjects []string
}

// NewCoursesCommand creates the courses command.
func NewCoursesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CoursesOptions{}

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Import courses and instructors from the class roster API",
		Long: `Import every class of a roster (or of the given subjects) into the course
directory. Existing courses are matched on their code and overwritten.

Examples:
  syllabus-import courses --roster FA23
  syllabus-import courses --roster FA23 --subject CS --subject MATH`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCourses(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Roster, "roster", "", "roster token, e.g. FA23 (required)")
	cmd.Flags().StringSliceVar(&opts.Subjects, "subject", nil, "subject code to import (repeatable; default all)")
	_ = cmd.MarkFlagRequired("roster")

	return cmd
}

func runCourses(cmd *cobra.Command, rootOpts *RootOptions, opts *CoursesOptions) error {
	roster := strings.ToUpper(strings.TrimSpace(opts.Roster))
	v := common.NewValidator().Field("roster", roster, common.Required, common.RosterToken)
	if err := common.ValidateAndReturnError(v); err != nil {
		return err
	}
	subjects := make([]string, 0, len(opts.Subjects))
	for _, s := range opts.Subjects {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			subjects = append(subjects, s)
		}
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, cmd, rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	client := catalog.NewClient(catalog.Config{
		BaseURL:  e.cfg.Catalog.BaseURL,
		Timeout:  e.cfg.Catalog.Timeout,
		CacheTTL: e.cfg.Catalog.CacheTTL,
	}, nil, e.logger)
	builder := directory.NewBuilder(client, repository.NewCourseRepository(e.db, e.logger), e.logger).
		WithRecorder(repository.NewImportRunRepository(e.db, e.logger))

	run, cause := builder.BuildRoster(ctx, roster, subjects...)
	if err := writeRuns(cmd.OutOrStdout(), rootOpts.Format, []*batch.Run{run}, []error{cause}); err != nil {
		return err
	}
	return cause
}
