package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Deji-py/insta-enricher/internal/domain"
)

// nodeCount is a pflag.Value that only accepts offered tier sizes.
type nodeCount int

var _ pflag.Value = (*nodeCount)(nil)

func (n *nodeCount) String() string { return strconv.Itoa(int(*n)) }

func (n *nodeCount) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil || !domain.ValidNodeCount(v) {
		return fmt.Errorf("must be one of %s", domain.NodeCountChoices())
	}
	*n = nodeCount(v)
	return nil
}

func (n *nodeCount) Type() string { return "nodes" }

func newNodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List the processing tiers a job can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tiers := domain.NodeTiers()
			if getOutputFormat(cmd) == "json" {
				out := make([]map[string]interface{}, 0, len(tiers))
				for _, t := range tiers {
					out = append(out, map[string]interface{}{
						"nodes":               t.Nodes,
						"title":               t.Title,
						"subtitle":            t.Subtitle,
						"description":         t.Description,
						"profiles_per_minute": domain.ThroughputPerMinute(t.Nodes),
						"popular":             t.Popular,
						"default":             t.Nodes == domain.DefaultNodeCount,
					})
				}
				return PrintJSON(os.Stdout, out)
			}

			rows := make([][]string, 0, len(tiers))
			for _, t := range tiers {
				mark := ""
				if t.Popular {
					mark = "*"
				}
				rows = append(rows, []string{strconv.Itoa(t.Nodes), t.Title, t.Speed(), t.Description, mark})
			}
			PrintTable(os.Stdout, []string{"nodes", "tier", "speed", "description", "popular"}, rows)
			return nil
		},
	}
}
