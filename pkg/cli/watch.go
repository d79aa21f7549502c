package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/service/status"
)

// lineRenderer prints one progress line per change. On a terminal the line
// is redrawn in place.
type lineRenderer struct {
	w    io.Writer
	tty  bool
	last string
}

func newLineRenderer(f *os.File) *lineRenderer {
	return &lineRenderer{w: f, tty: term.IsTerminal(int(f.Fd()))}
}

func (r *lineRenderer) render(s status.Snapshot) {
	line := progressLine(s.Job)
	if line == "" || line == r.last {
		return
	}
	r.last = line
	if r.tty {
		_, _ = fmt.Fprintf(r.w, "\r\033[K%s", line)
		return
	}
	_, _ = fmt.Fprintln(r.w, line)
}

func (r *lineRenderer) finish() {
	if r.tty && r.last != "" {
		_, _ = fmt.Fprintln(r.w)
	}
}

func progressLine(j *domain.Job) string {
	if j == nil {
		return ""
	}
	return fmt.Sprintf("%-9s %3d%%  %d/%d profiles  %d nodes  %d/min",
		j.Status, domain.OverallProgress(j), j.ProcessedProfiles, j.TotalProfiles,
		j.NodeCount(), j.ProfilesPerMinute())
}

// watchDone reports whether a watched job has nothing more to report. A
// completed job is done once its download lookup has finished either way.
func watchDone(s status.Snapshot) bool {
	switch s.State {
	case status.StateError:
		return true
	case status.StateReady:
		if s.Job == nil {
			return false
		}
		if s.Job.Status == domain.JobStatusCompleted {
			return s.DownloadURL != "" || s.Notice != ""
		}
		return !s.Polling
	default:
		return false
	}
}

// watchJob polls jobID until it stops running and returns the last snapshot.
func watchJob(ctx context.Context, a *app, jobID string, interval time.Duration, progress func(status.Snapshot)) (status.Snapshot, error) {
	var (
		mu    sync.Mutex
		final status.Snapshot
		once  sync.Once
	)
	done := make(chan struct{})

	p := status.NewPoller(a.client, jobID, status.Options{
		Interval: interval,
		Logger:   a.logger,
		OnSnapshot: func(s status.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			if progress != nil {
				progress(s)
			}
			if watchDone(s) {
				final = s
				once.Do(func() { close(done) })
			}
		},
	})
	defer p.Close()

	p.Start(ctx)
	select {
	case <-done:
	case <-ctx.Done():
		return p.Snapshot(), ctx.Err()
	}

	mu.Lock()
	defer mu.Unlock()
	return final, nil
}

// fetchOnce performs a single status lookup, including the download URL for
// completed jobs.
func fetchOnce(ctx context.Context, a *app, jobID string) (status.Snapshot, error) {
	p := status.NewPoller(a.client, jobID, status.Options{Logger: a.logger})
	defer p.Close()
	err := p.FetchStatus(ctx)
	return p.Snapshot(), err
}

func snapshotError(s status.Snapshot, cause error) error {
	if s.State != status.StateError {
		return cause
	}
	return &messageError{msg: s.Error, err: cause}
}

// printSnapshot renders a job snapshot as a detail block plus per-node
// progress.
func printSnapshot(w io.Writer, s status.Snapshot, now time.Time) {
	j := s.Job
	if j == nil {
		_, _ = fmt.Fprintln(w, "No data available")
		return
	}
	fields := map[string]interface{}{
		"job_id":   s.JobID,
		"name":     j.Name,
		"email":    j.Email,
		"status":   string(j.Status),
		"progress": fmt.Sprintf("%d%%", s.Progress),
		"profiles": fmt.Sprintf("%d / %d", j.ProcessedProfiles, j.TotalProfiles),
		"nodes":    fmt.Sprintf("%d active", j.NodeCount()),
		"speed":    fmt.Sprintf("%d/min", j.ProfilesPerMinute()),
		"started":  formatTime(j.CreatedAt),
	}
	if j.Status == domain.JobStatusRunning {
		eta := "Calculating..."
		if j.EstimatedCompletion != nil {
			eta = formatTime(*j.EstimatedCompletion) + " (" + untilText(*j.EstimatedCompletion, now) + ")"
		}
		fields["eta"] = eta
	}
	if j.SuccessfulProfiles != nil {
		fields["successful"] = *j.SuccessfulProfiles
	}
	if j.FailedProfiles != nil {
		fields["failed"] = *j.FailedProfiles
	}
	if j.CompletedAt != nil {
		fields["completed"] = formatTime(*j.CompletedAt)
	}
	if j.Status == domain.JobStatusFailed && j.ErrorMessage != "" {
		fields["error"] = j.ErrorMessage
	}
	if s.DownloadURL != "" {
		fields["download_url"] = s.DownloadURL
	}
	if s.Notice != "" {
		fields["notice"] = s.Notice
	}
	PrintDetail(w, fields)

	if j.Status != domain.JobStatusRunning || len(j.NodeProgress) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	rows := make([][]string, 0, len(j.NodeProgress))
	for _, np := range j.NodeProgress {
		rows = append(rows, []string{
			string(np.NodeID),
			fmt.Sprintf("%d%%", np.Percent()),
			fmt.Sprintf("%d / %d", np.Completed, np.Total),
		})
	}
	PrintTable(w, []string{"node", "progress", "profiles"}, rows)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func untilText(t, now time.Time) string {
	d := t.Sub(now).Round(time.Minute)
	if d < time.Minute && d > -time.Minute {
		return "less than a minute"
	}
	if d < 0 {
		return strings.TrimSuffix((-d).String(), "0s") + " ago"
	}
	return "in " + strings.TrimSuffix(d.String(), "0s")
}
