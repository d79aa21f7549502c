package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultNodeCount is the tier preselected for new jobs.
const DefaultNodeCount = 3

// NodeTier is one entry of the fixed processing-power menu. The node counts
// skip 7 and 9 on purpose.
type NodeTier struct {
	Nodes       int
	Title       string
	Subtitle    string
	Description string
	Popular     bool
}

// Speed renders the tier throughput, e.g. "150 profiles/min".
func (t NodeTier) Speed() string {
	return fmt.Sprintf("%d profiles/min", ThroughputPerMinute(t.Nodes))
}

var nodeTiers = []NodeTier{
	{Nodes: 1, Title: "Starter", Subtitle: "Perfect for small batches", Description: "Ideal for testing or small datasets"},
	{Nodes: 2, Title: "Basic", Subtitle: "Good for medium datasets", Description: "Balanced speed and efficiency"},
	{Nodes: 3, Title: "Standard", Subtitle: "Most popular choice", Description: "Recommended for most users", Popular: true},
	{Nodes: 4, Title: "Pro", Subtitle: "High performance", Description: "Fast processing for large datasets"},
	{Nodes: 5, Title: "Turbo", Subtitle: "Maximum speed", Description: "Ultimate performance"},
	{Nodes: 6, Title: "Enterprise", Subtitle: "Heavy workloads", Description: "For enterprise-scale processing"},
	{Nodes: 8, Title: "Ultra", Subtitle: "Extreme performance", Description: "Maximum parallel processing"},
	{Nodes: 10, Title: "Beast Mode", Subtitle: "Unleash the power", Description: "Ultimate processing power"},
}

// NodeTiers returns a copy of the tier menu in ascending node order.
func NodeTiers() []NodeTier {
	out := make([]NodeTier, len(nodeTiers))
	copy(out, nodeTiers)
	return out
}

// ValidNodeCount reports whether n is one of the offered tiers.
func ValidNodeCount(n int) bool {
	_, ok := TierFor(n)
	return ok
}

// TierFor looks up the tier for a node count.
func TierFor(n int) (NodeTier, bool) {
	for _, t := range nodeTiers {
		if t.Nodes == n {
			return t, true
		}
	}
	return NodeTier{}, false
}

// NodeCountChoices renders the allowed counts as "1, 2, 3, 4, 5, 6, 8, 10".
func NodeCountChoices() string {
	parts := make([]string, 0, len(nodeTiers))
	for _, t := range nodeTiers {
		parts = append(parts, strconv.Itoa(t.Nodes))
	}
	return strings.Join(parts, ", ")
}
