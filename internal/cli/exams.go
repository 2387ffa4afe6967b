package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/syllabus-sync/internal/batch"
	"github.com/joseph-ayodele/syllabus-sync/internal/common"
	"github.com/joseph-ayodele/syllabus-sync/internal/registrar"
	"github.com/joseph-ayodele/syllabus-sync/internal/repository"
	"github.com/joseph-ayodele/syllabus-sync/internal/schedule"
)

// ExamKinds are the values accepted by --kind.
var ExamKinds = []string{"prelims", "finals", "all"}

// ExamsOptions holds flags for the exams command.
type ExamsOptions struct {
	Roster string
	Kind   string
}

// NewExamsCommand creates the exams command.
func NewExamsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExamsOptions{}

	cmd := &cobra.Command{
		Use:   "exams",
		Short: "Import prelims and finals from the registrar schedule pages",
		Long: `Scrape the registrar prelim and final exam pages and attach each exam to its
course. Lines naming a course missing from the directory are skipped, so run
"courses" for the same roster first.

Examples:
  syllabus-import exams --roster SP24
  syllabus-import exams --roster SP24 --kind finals`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExams(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Roster, "roster", "", "roster token, e.g. SP24 (required)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "which page to import (prelims|finals|all)")
	_ = cmd.MarkFlagRequired("roster")

	return cmd
}

func runExams(cmd *cobra.Command, rootOpts *RootOptions, opts *ExamsOptions) error {
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if !slices.Contains(ExamKinds, kind) {
		return common.InvalidArgumentErrorf("invalid kind %q: must be one of %v", opts.Kind, ExamKinds)
	}
	roster := strings.ToUpper(strings.TrimSpace(opts.Roster))
	v := common.NewValidator().Field("roster", roster, common.Required, common.RosterToken)
	if err := common.ValidateAndReturnError(v); err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx, cmd, rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	host, err := time.LoadLocation(e.cfg.Registrar.HostTimezone)
	if err != nil {
		return fmt.Errorf("load host timezone: %w", err)
	}
	exam, err := time.LoadLocation(e.cfg.Registrar.ExamTimezone)
	if err != nil {
		return fmt.Errorf("load exam timezone: %w", err)
	}

	scraper := registrar.NewScraper(&http.Client{Timeout: e.cfg.Registrar.Timeout}, e.logger)
	importer, err := schedule.NewImporter(schedule.Config{
		PrelimURL:    e.cfg.Registrar.PrelimURL,
		FinalURL:     e.cfg.Registrar.FinalURL,
		HostLocation: host,
		ExamLocation: exam,
	}, scraper, repository.NewCourseRepository(e.db, e.logger), repository.NewScheduleRepository(e.db, e.logger), e.logger)
	if err != nil {
		return err
	}
	importer.WithRecorder(repository.NewImportRunRepository(e.db, e.logger))

	var steps []func(context.Context, string) (*batch.Run, error)
	if kind == "prelims" || kind == "all" {
		steps = append(steps, importer.ImportPrelims)
	}
	if kind == "finals" || kind == "all" {
		steps = append(steps, importer.ImportFinals)
	}

	// a failed page does not stop the other one
	var (
		runs   []*batch.Run
		causes []error
	)
	for _, step := range steps {
		run, cause := step(ctx, roster)
		runs = append(runs, run)
		causes = append(causes, cause)
	}
	if err := writeRuns(cmd.OutOrStdout(), rootOpts.Format, runs, causes); err != nil {
		return err
	}
	return errors.Join(causes...)
}

