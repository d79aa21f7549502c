package ui

import (
	"strconv"

	"github.com/Deji-py/insta-enricher/internal/domain"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// uploadView is the upload form state, kept across a failed submission.
type uploadView struct {
	Name      string
	Email     string
	Nodes     int
	Error     string
	LastJobID string
}

func uploadPage(v uploadView, csrf Node) Node {
	if v.Nodes == 0 {
		v.Nodes = domain.DefaultNodeCount
	}
	return appPage(
		"Upload",
		"upload",
		pageOptions{LastJobID: v.LastJobID},
		alertBanner("error", "Error Creating Job", v.Error),
		Div(
			Class(cardClass()),
			H2(Text("Start an enrichment job")),
			P(Class(mutedClass()), Text("Upload a CSV of Instagram usernames (max 10MB) and choose how many nodes to run it on.")),
			Form(
				Class("stack-form"),
				Method("post"),
				Action("/ui/upload"),
				Attr("enctype", "multipart/form-data"),
				csrf,
				Div(
					Label(For("csvFile"), Text("CSV file")),
					Input(Type("file"), ID("csvFile"), Name("csvFile"), Attr("accept", ".csv,text/csv"), Required()),
				),
				Div(
					Label(For("name"), Text("Job name")),
					Input(Type("text"), ID("name"), Name("name"), Class("form-control"), Value(v.Name), Placeholder("Summer campaign leads"), Required()),
				),
				Div(
					Label(For("email"), Text("Notification email")),
					Input(Type("email"), ID("email"), Name("email"), Class("form-control"), Value(v.Email), Placeholder("you@example.com"), Required()),
				),
				Div(
					Label(Text("Processing power")),
					tierGrid(v.Nodes),
				),
				Div(Class("form-actions"), Button(Type("submit"), Class(primaryButtonClass()), Text("Start Enrichment"))),
			),
		),
	)
}

func tierGrid(selected int) Node {
	tiers := domain.NodeTiers()
	cards := make([]Node, 0, len(tiers))
	for _, t := range tiers {
		id := "nodes-" + strconv.Itoa(t.Nodes)
		cards = append(cards, Label(
			Class("tier-card"),
			For(id),
			Input(Type("radio"), ID(id), Name("numberOfNodes"), Value(strconv.Itoa(t.Nodes)), If(t.Nodes == selected, Checked())),
			Div(
				Class("d-flex flex-justify-between flex-items-center"),
				Strong(Text(t.Title)),
				If(t.Popular, statusLabel("Popular", "accent")),
			),
			P(Class(mutedClass()+" mb-0"), Text(nodeLabel(t.Nodes)+" · "+t.Subtitle)),
			P(Class("tier-speed mb-0"), Text(t.Speed())),
			P(Class(mutedClass()+" mb-0"), Text(t.Description)),
		))
	}
	return Div(Class("tier-grid"), Group(cards))
}

func nodeLabel(n int) string {
	if n == 1 {
		return "1 node"
	}
	return strconv.Itoa(n) + " nodes"
}
