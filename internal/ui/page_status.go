package ui

import (
	"fmt"
	"time"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/service/status"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type statusView struct {
	Snapshot status.Snapshot
	Started  bool
	Now      time.Time
	Interval time.Duration
	CSRF     Node
}

// refreshAfter is the meta refresh period: the poll interval while the job
// runs, one second while the first fetch is outstanding, none otherwise.
func (v statusView) refreshAfter() time.Duration {
	switch {
	case v.Snapshot.Polling:
		return v.Interval
	case v.Snapshot.Job == nil && v.Snapshot.State == status.StateLoading:
		return time.Second
	default:
		return 0
	}
}

func statusPage(v statusView) Node {
	s := v.Snapshot
	var banner Node
	if v.Started {
		banner = alertBanner("success", "Job Created Successfully", "Your job ID is "+s.JobID+". This page tracks its progress.")
	}
	return appPage(
		"Job Status",
		"status",
		pageOptions{RefreshAfter: v.refreshAfter(), LastJobID: s.JobID},
		banner,
		alertBanner("error", "Error", s.Error),
		alertBanner("warn", "", s.Notice),
		Div(
			Class(cardClass()),
			Div(
				Class("d-flex flex-justify-between flex-items-center mb-3"),
				Div(
					H2(Class("mb-0"), Text("Job Status")),
					P(Class(mutedClass()+" mb-0"), Text("Job "+s.JobID)),
				),
				postButton(jobPath(s.JobID)+"/refresh", "Refresh", v.CSRF, secondaryButtonClass()),
			),
			statusBody(v),
		),
	)
}

func statusBody(v statusView) Node {
	s := v.Snapshot
	j := s.Job
	if j == nil {
		if s.State == status.StateLoading {
			return P(Class(mutedClass()), Text("Loading job status..."))
		}
		return emptyStateCard("No data available", "", "")
	}

	eta := "Calculating..."
	if j.EstimatedCompletion != nil {
		eta = relativeTime(*j.EstimatedCompletion, v.Now)
	}
	started := "N/A"
	if !j.CreatedAt.IsZero() {
		started = relativeTime(j.CreatedAt, v.Now)
	}

	return Div(
		Class("job-status"),
		Div(
			Class("d-flex flex-justify-between flex-items-center mb-2"),
			Div(
				Class("d-flex flex-items-center gap-2"),
				jobStatusLabel(j.Status),
				If(j.Name != "", Strong(Text(j.Name))),
			),
			Span(Class(mutedClass()), Text(fmt.Sprintf("%d / %d profiles processed", j.ProcessedProfiles, j.TotalProfiles))),
		),
		Div(
			Class("mb-3"),
			Div(
				Class("d-flex flex-justify-between"),
				Span(Text("Overall Progress")),
				Strong(Text(fmt.Sprintf("%d%%", s.Progress))),
			),
			progressBar(s.Progress),
		),
		Div(
			Class("stat-grid mb-3"),
			stat("Started", started),
			stat("Nodes", fmt.Sprintf("%d active", j.NodeCount())),
			stat("Speed", fmt.Sprintf("%d/min", j.ProfilesPerMinute())),
			stat("ETA", eta),
		),
		nodeProgressList(j.NodeProgress),
		resultCounts(j),
		If(j.Status == domain.JobStatusFailed && j.ErrorMessage != "",
			alertBanner("error", "Error:", j.ErrorMessage)),
		If(s.DownloadURL != "",
			Div(Class("form-actions"), A(Href(jobPath(s.JobID)+"/download"), Class(primaryButtonClass()), Text("Download Results")))),
		P(Class(mutedClass()), Text("Last updated "+formatTime(updatedAt(j)))),
	)
}

func stat(label, value string) Node {
	return Div(
		Class("stat"),
		P(Class(mutedClass()+" mb-0"), Text(label)),
		P(Class("stat-value mb-0"), Text(value)),
	)
}

func nodeProgressList(nodes []domain.NodeProgress) Node {
	if len(nodes) == 0 {
		return nil
	}
	rows := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		pct := n.Percent()
		rows = append(rows, Div(
			Class("mb-2"),
			Div(
				Class("d-flex flex-justify-between"),
				Span(Text("Node "+string(n.NodeID))),
				Span(Text(fmt.Sprintf("%d%%", pct))),
			),
			progressBar(pct),
			P(Class(mutedClass()+" mb-0"), Text(fmt.Sprintf("%d / %d profiles", n.Completed, n.Total))),
		))
	}
	return Div(Class("mb-3"), H3(Text("Node Progress")), Group(rows))
}

// resultCounts shows success/failure totals only when the backend sent them.
func resultCounts(j *domain.Job) Node {
	if j.SuccessfulProfiles == nil {
		return nil
	}
	failed := 0
	if j.FailedProfiles != nil {
		failed = *j.FailedProfiles
	}
	return Div(
		Class("stat-grid mb-3"),
		stat("Successful", fmt.Sprintf("%d", *j.SuccessfulProfiles)),
		stat("Failed", fmt.Sprintf("%d", failed)),
	)
}

func updatedAt(j *domain.Job) time.Time {
	if j.UpdatedAt != nil {
		return *j.UpdatedAt
	}
	return j.CreatedAt
}

func jobLookupPage(lastJobID string) Node {
	return appPage(
		"Job Status",
		"status",
		pageOptions{LastJobID: lastJobID},
		Div(
			Class(cardClass()),
			P(Class(mutedClass()), Text("Enter a job ID to track its progress.")),
			Form(
				Class("d-flex gap-2"),
				Method("get"),
				Action("/ui/jobs"),
				Input(Type("text"), Name("id"), Class("form-control"), Placeholder("Job ID"), Value(lastJobID), Required()),
				Button(Type("submit"), Class(primaryButtonClass()), Text("Track")),
			),
		),
	)
}
