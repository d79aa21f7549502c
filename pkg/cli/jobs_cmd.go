package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/service/history"
)

func newJobsCmd(a *app) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent enrichment jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := history.NewService(a.client, a.logger)
			if err := svc.Load(cmd.Context()); err != nil {
				return &messageError{msg: svc.Snapshot().Error, err: err}
			}

			jobs := svc.Snapshot().Jobs
			if statusFilter != "" {
				kept := jobs[:0]
				for _, j := range jobs {
					if string(j.Status) == statusFilter {
						kept = append(kept, j)
					}
				}
				jobs = kept
			}

			switch {
			case getOutputFormat(cmd) == "json":
				return PrintJSON(os.Stdout, jobs)
			case a.quiet:
				for _, j := range jobs {
					_, _ = fmt.Fprintln(os.Stdout, j.ID)
				}
				return nil
			}
			if len(jobs) == 0 {
				_, _ = fmt.Fprintln(os.Stdout, "No jobs found")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, r := range history.Rows(jobs) {
				rows = append(rows, []string{
					r.Job.ID,
					r.Job.Name,
					string(r.Job.Status),
					jobProgressCell(r),
					strconv.Itoa(r.Job.TotalProfiles),
					fmt.Sprintf("%d (%d/min)", r.Job.NodeCount(), r.Throughput),
					formatTime(r.Job.CreatedAt),
				})
			}
			PrintTable(os.Stdout, []string{"id", "name", "status", "progress", "profiles", "nodes", "created"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show jobs with this status (running, completed, failed)")

	return cmd
}

func jobProgressCell(r history.Row) string {
	switch {
	case r.HasProgress:
		return fmt.Sprintf("%d%%", r.Progress)
	case r.Job.Status == domain.JobStatusFailed && r.Job.ErrorMessage != "":
		return "error: " + r.Job.ErrorMessage
	case r.Job.Status == domain.JobStatusCompleted:
		return "100%"
	default:
		return ""
	}
}
