package ui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/service/history"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type historyView struct {
	Snapshot history.Snapshot
	// DownloadError is the result of a failed per-job or bulk download.
	DownloadError string
	Now           time.Time
	LastJobID     string
	CSRF          Node
}

func historyPage(v historyView) Node {
	s := v.Snapshot
	return appPage(
		"History",
		"history",
		pageOptions{LastJobID: v.LastJobID},
		alertBanner("error", "Download Failed", v.DownloadError),
		quickFilterCard(
			"Filter by name, email, status or job ID",
			postButton("/ui/history/refresh", "Refresh", v.CSRF, secondaryButtonClass()),
		),
		historyBody(s, v.Now),
	)
}

func historyBody(s history.Snapshot, now time.Time) Node {
	switch {
	case s.State == history.StateError:
		return alertBanner("error", "Error", s.Error)
	case s.State == history.StateLoading && len(s.Jobs) == 0:
		return P(Class(mutedClass()), Text("Loading recent jobs..."))
	case len(s.Jobs) == 0:
		return emptyStateCard("No jobs found", "Upload a CSV", "/ui/upload")
	}

	rows := history.Rows(s.Jobs)
	items := make([]Node, 0, len(rows))
	for _, r := range rows {
		items = append(items, historyRow(r, now))
	}
	return Div(
		Class(cardClass()),
		Table(
			THead(Tr(
				Th(Text("Job")),
				Th(Text("Status")),
				Th(Text("Profiles")),
				Th(Text("Nodes")),
				Th(Text("Created")),
				Th(Text("")),
			)),
			TBody(Group(items)),
		),
	)
}

func historyRow(r history.Row, now time.Time) Node {
	j := r.Job
	haystack := strings.Join([]string{j.ID, j.Name, j.Email, string(j.Status)}, " ")

	profiles := fmt.Sprintf("%d", j.TotalProfiles)
	if r.HasProgress {
		profiles = fmt.Sprintf("%d / %d", j.ProcessedProfiles, j.TotalProfiles)
	}

	return Tr(
		data.Show(containsExpr(haystack)),
		Td(
			A(Href(jobPath(j.ID)), Strong(Text(displayName(j)))),
			P(Class(mutedClass()+" mb-0"), Text(j.Email)),
		),
		Td(
			jobStatusLabel(j.Status),
			If(r.HasProgress, Div(
				Class("mb-0"),
				Span(Class(mutedClass()), Text(fmt.Sprintf("Progress %d%%", r.Progress))),
				progressBar(clampPercent(r.Progress)),
			)),
			If(j.Status == domain.JobStatusFailed && j.ErrorMessage != "",
				P(Class("color-fg-danger text-small mb-0"), Text("Error: "+j.ErrorMessage))),
		),
		Td(Text(profiles)),
		Td(Text(fmt.Sprintf("%d (%d/min)", j.NodeCount(), r.Throughput))),
		Td(Text(relativeTime(j.CreatedAt, now))),
		Td(If(j.Status == domain.JobStatusCompleted,
			A(Href("/ui/history/"+url.PathEscape(j.ID)+"/download"), Class("btn btn-sm"), Text("Download")))),
	)
}

func displayName(j domain.Job) string {
	if j.Name != "" {
		return j.Name
	}
	return j.ID
}

// clampPercent bounds the bar width; the label keeps the raw value.
func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
