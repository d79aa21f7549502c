package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Deji-py/insta-enricher/internal/service/status"
)

type watchOptions struct {
	watch    bool
	interval time.Duration
}

func (o *watchOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.watch, "watch", "w", false, "Keep polling until the job finishes")
	cmd.Flags().DurationVar(&o.interval, "interval", status.DefaultInterval, "Polling interval for --watch")
}

func newStatusCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of an enrichment job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd.Context(), cmd, a, args[0], opts)
		},
	}
	opts.register(cmd)
	return cmd
}

func showStatus(ctx context.Context, cmd *cobra.Command, a *app, jobID string, opts watchOptions) error {
	format := getOutputFormat(cmd)

	var (
		snap status.Snapshot
		err  error
	)
	if opts.watch {
		var progress func(status.Snapshot)
		var lr *lineRenderer
		if format != "json" && !a.quiet {
			lr = newLineRenderer(os.Stderr)
			progress = lr.render
		}
		snap, err = watchJob(ctx, a, jobID, opts.interval, progress)
		if lr != nil {
			lr.finish()
		}
	} else {
		snap, err = fetchOnce(ctx, a, jobID)
	}
	if err != nil || snap.State == status.StateError {
		return snapshotError(snap, err)
	}

	switch {
	case format == "json":
		return PrintJSON(os.Stdout, snap)
	case a.quiet:
		if snap.Job != nil {
			_, _ = fmt.Fprintln(os.Stdout, snap.Job.Status)
		}
	default:
		printSnapshot(os.Stdout, snap, time.Now())
	}
	return nil
}
