package ui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Deji-py/insta-enricher/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Upload", Href: "/ui/upload", Key: "upload", Icon: "cloud-upload"},
	{Label: "Status", Href: "/ui/jobs", Key: "status", Icon: "loader"},
	{Label: "History", Href: "/ui/history", Key: "history", Icon: "file-spreadsheet"},
}

// pageOptions carries per-page head extras.
type pageOptions struct {
	// RefreshAfter emits a meta refresh when positive.
	RefreshAfter time.Duration
	// LastJobID points the Status nav entry at the most recently viewed job.
	LastJobID string
}

func appPage(title, active string, opts pageOptions, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		href := item.Href
		if item.Key == "status" && opts.LastJobID != "" {
			href = jobPath(opts.LastJobID)
		}
		className := "app-nav-link Link--secondary d-flex flex-items-center"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		Head(
			pageHead(title),
			If(opts.RefreshAfter > 0, Meta(Attr("http-equiv", "refresh"), Content(refreshSeconds(opts.RefreshAfter)))),
			Script(
				Type("module"),
				Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"),
			),
		),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("Instagram Enrichment")),
						P(Class("color-fg-muted text-small mb-0"), Text("Multi-node scraping dashboard")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						H1(Class("page-title"), Text(title)),
						Div(
							Class("d-flex flex-items-center gap-2"),
							A(Href("/ui/download-all"), Class(secondaryButtonClass()), Text("Download All CSV")),
							themeToggle(),
						),
					),
					Div(append([]Node{Class("content")}, body...)...),
				),
			),
			Script(Raw(themeBehaviorScript)),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func pageHead(title string) Node {
	return Group([]Node{
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title + " | Enrichment")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href(stylesheetHref())),
		Script(Raw(themeInitScript)),
		Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
	})
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		Head(pageHead(title)),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui/upload"), Text("Back to upload"))),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
		),
	)
}

func refreshSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func jobPath(jobID string) string {
	return "/ui/jobs/" + url.PathEscape(jobID)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

// relativeTime renders t against now as "5 minutes ago" or "in 3 minutes".
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	suffix := " ago"
	if d < 0 {
		d = -d
		suffix = ""
	}
	var s string
	switch {
	case d < time.Minute:
		s = "less than a minute"
	case d < time.Hour:
		s = plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		s = plural(int(d/time.Hour), "hour")
	default:
		s = plural(int(d/(24*time.Hour)), "day")
	}
	if suffix == "" {
		return "in " + s
	}
	return s + suffix
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func secondaryButtonClass() string {
	return "btn"
}

func quickFilterCard(placeholder string, extraControls ...Node) Node {
	controls := []Node{
		Div(
			Class("d-flex flex-items-center gap-2 flex-1"),
			Label(Class("sr-only"), Text("Quick filter")),
			Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
		),
	}
	controls = append(controls, extraControls...)
	return Div(
		Class(cardClass("toolbar")),
		data.Signals(map[string]any{"q": ""}),
		Div(Class("d-flex flex-wrap flex-items-center gap-2"), Group(controls)),
	)
}

func emptyStateCard(message, ctaLabel, ctaHref string) Node {
	cta := Node(nil)
	if ctaLabel != "" && ctaHref != "" {
		cta = A(Href(ctaHref), Class(primaryButtonClass()), Text(ctaLabel))
	}
	return Div(
		Class(cardClass("blankslate")),
		P(Class("color-fg-muted mb-2"), Text(message)),
		cta,
	)
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func jobStatusLabel(s domain.JobStatus) Node {
	switch s {
	case domain.JobStatusCompleted:
		return statusLabel(string(s), "success")
	case domain.JobStatusFailed:
		return statusLabel(string(s), "danger")
	case domain.JobStatusRunning:
		return statusLabel(string(s), "accent")
	default:
		return statusLabel(string(s), "secondary")
	}
}

// alertBanner renders a flash box. tone is "error", "warn" or "success".
func alertBanner(tone, title, message string) Node {
	if message == "" {
		return nil
	}
	return Div(
		Class("flash flash-"+tone+" mb-3"),
		Attr("role", "alert"),
		If(title != "", Strong(Text(title+" "))),
		Span(Text(message)),
	)
}

func progressBar(pct int) Node {
	return Div(
		Class("Progress"),
		Attr("aria-valuenow", strconv.Itoa(pct)),
		Attr("aria-valuemin", "0"),
		Attr("aria-valuemax", "100"),
		Attr("role", "progressbar"),
		Span(Class("Progress-item"), Style(fmt.Sprintf("width: %d%%", pct))),
	)
}

func postButton(action, label string, csrf Node, className string) Node {
	return Form(
		Method("post"),
		Action(action),
		Class("d-inline"),
		csrf,
		Button(Type("submit"), Class(className), Text(label)),
	)
}

func themeToggle() Node {
	return Button(
		Type("button"),
		ID("theme-toggle"),
		Class("btn btn-sm btn-icon"),
		Attr("aria-label", "Switch theme"),
		I(ID("theme-icon-sun"), Attr("data-lucide", "sun"), Attr("aria-hidden", "true")),
		I(ID("theme-icon-moon"), Class("is-hidden"), Attr("data-lucide", "moon"), Attr("aria-hidden", "true")),
	)
}
