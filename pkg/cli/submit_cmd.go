package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/service/submission"
)

func newSubmitCmd(a *app) *cobra.Command {
	var (
		name  string
		email string
		nodes = nodeCount(domain.DefaultNodeCount)
		opts  watchOptions
	)

	cmd := &cobra.Command{
		Use:   "submit <file.csv>",
		Short: "Upload a CSV of usernames and start an enrichment job",
		Example: `  enrich submit leads.csv --name "Spring leads" --email ops@example.com
  enrich submit leads.csv --name leads --email ops@example.com --nodes 5 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer func() { _ = f.Close() }()
			fi, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat csv: %w", err)
			}

			svc := submission.NewService(a.client, a.logger)
			res, err := svc.Submit(cmd.Context(), submission.Form{
				FileName: filepath.Base(path),
				FileSize: fi.Size(),
				File:     f,
				Name:     name,
				Email:    email,
				Nodes:    int(nodes),
			})
			if err != nil {
				return userError(err, submission.FallbackMessage)
			}

			if opts.watch {
				if !a.quiet && getOutputFormat(cmd) != "json" {
					_, _ = fmt.Fprintf(os.Stderr, "Job %s started (%d profiles)\n", res.JobID, res.TotalProfiles)
				}
				return showStatus(cmd.Context(), cmd, a, res.JobID, opts)
			}
			return printStartResult(cmd, a, res)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Job name")
	cmd.Flags().StringVar(&email, "email", "", "Notification email address")
	cmd.Flags().Var(&nodes, "nodes", "Number of processing nodes ("+domain.NodeCountChoices()+")")
	opts.register(cmd)

	return cmd
}

func printStartResult(cmd *cobra.Command, a *app, res *domain.StartResult) error {
	switch {
	case getOutputFormat(cmd) == "json":
		return PrintJSON(os.Stdout, res)
	case a.quiet:
		_, _ = fmt.Fprintln(os.Stdout, res.JobID)
		return nil
	}

	PrintDetail(os.Stdout, map[string]interface{}{
		"job_id":              res.JobID,
		"message":             res.Message,
		"status":              res.Status,
		"total_profiles":      res.TotalProfiles,
		"estimated_minutes":   strconv.FormatFloat(res.EstimatedCompletionMinutes, 'f', -1, 64),
		"requests_per_minute": strconv.FormatFloat(res.RequestsPerMinute, 'f', -1, 64),
	})
	if len(res.BatchDistribution) > 0 {
		_, _ = fmt.Fprintln(os.Stdout)
		rows := make([][]string, 0, len(res.BatchDistribution))
		for _, b := range res.BatchDistribution {
			rows = append(rows, []string{
				string(b.NodeID),
				strconv.Itoa(b.ProfileCount),
				strconv.FormatFloat(b.EstimatedMinutes, 'f', 1, 64),
			})
		}
		PrintTable(os.Stdout, []string{"node", "profiles", "est_minutes"}, rows)
	}
	return nil
}
