package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Deji-py/insta-enricher/internal/service/export"
	"github.com/Deji-py/insta-enricher/internal/service/history"
)

func newDownloadCmd(a *app) *cobra.Command {
	var (
		dest        string
		concurrency int
		share       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "download <job-id>...",
		Short: "Print result URLs, or copy results to a file or bucket with --dest",
		Long: `Without --dest, prints the CSV download URL of each job.

With --dest, downloads each job's CSV and writes it to a local path or an
object store (s3://bucket/prefix/, gs://bucket/prefix/, az://container/prefix/).
A destination ending in "/" (or an existing directory) receives <job-id>.csv.
With --share, each object store upload also prints a signed read link that
expires after the given duration (at most 168h).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("dest") {
				dest = a.profile.Dest
			}
			if dest == "" {
				return printDownloadURLs(cmd, a, args)
			}

			exp, err := newExporter(a, share)
			if err != nil {
				return err
			}
			exp.SetConcurrency(concurrency)
			results, err := exp.ExportJobs(cmd.Context(), args, dest)
			if err != nil {
				return userError(err, history.DownloadFallbackMessage)
			}
			return printExportResults(cmd, a, results)
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Export destination (path, s3://, gs://, az://)")
	cmd.Flags().IntVar(&concurrency, "concurrency", export.DefaultConcurrency, "Parallel exports")
	cmd.Flags().DurationVar(&share, "share", 0, "Also print a signed read link valid for this long (object stores only)")

	return cmd
}

func newExporter(a *app, share time.Duration) (*export.Exporter, error) {
	exp := export.NewExporter(a.client, a.profile.Credentials(), a.logger)
	if err := exp.SetShareTTL(share); err != nil {
		return nil, err
	}
	return exp, nil
}

func printDownloadURLs(cmd *cobra.Command, a *app, jobIDs []string) error {
	svc := history.NewService(a.client, a.logger)
	type entry struct {
		JobID string `json:"job_id"`
		URL   string `json:"url"`
	}
	entries := make([]entry, 0, len(jobIDs))
	for _, id := range jobIDs {
		u, err := svc.DownloadURL(cmd.Context(), id)
		if err != nil {
			return &messageError{msg: fmt.Sprintf("%s: %s", id, history.DownloadMessage(err)), err: err}
		}
		entries = append(entries, entry{JobID: id, URL: u})
	}

	switch {
	case getOutputFormat(cmd) == "json":
		return PrintJSON(os.Stdout, entries)
	case a.quiet:
		for _, e := range entries {
			_, _ = fmt.Fprintln(os.Stdout, e.URL)
		}
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.JobID, e.URL})
	}
	PrintTable(os.Stdout, []string{"job_id", "url"}, rows)
	return nil
}

func printExportResults(cmd *cobra.Command, a *app, results []export.Result) error {
	switch {
	case getOutputFormat(cmd) == "json":
		return PrintJSON(os.Stdout, results)
	case a.quiet:
		for _, r := range results {
			_, _ = fmt.Fprintln(os.Stdout, r.Destination)
		}
		return nil
	}
	columns := []string{"job_id", "destination", "bytes"}
	shared := len(results) > 0 && results[0].ShareURL != ""
	if shared {
		columns = append(columns, "share_url")
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		row := []string{r.JobID, r.Destination, strconv.FormatInt(r.Bytes, 10)}
		if shared {
			row = append(row, r.ShareURL)
		}
		rows = append(rows, row)
	}
	PrintTable(os.Stdout, columns, rows)
	return nil
}

func newDownloadAllCmd(a *app) *cobra.Command {
	var (
		dest  string
		share time.Duration
	)

	cmd := &cobra.Command{
		Use:   "download-all",
		Short: "Print the combined CSV URL for every job, or copy it with --dest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("dest") {
				dest = a.profile.Dest
			}
			if dest == "" {
				u, err := a.client.DownloadAllURL(cmd.Context())
				if err != nil {
					return userError(err, history.DownloadFallbackMessage)
				}
				if getOutputFormat(cmd) == "json" {
					return PrintJSON(os.Stdout, map[string]string{"url": u})
				}
				_, _ = fmt.Fprintln(os.Stdout, u)
				return nil
			}

			exp, err := newExporter(a, share)
			if err != nil {
				return err
			}
			res, err := exp.ExportAll(cmd.Context(), dest)
			if err != nil {
				return userError(err, history.DownloadFallbackMessage)
			}
			return printExportResults(cmd, a, []export.Result{*res})
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Export destination (path, s3://, gs://, az://)")
	cmd.Flags().DurationVar(&share, "share", 0, "Also print a signed read link valid for this long (object stores only)")

	return cmd
}
