package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modelir/pkg/ir/rewrite"
)

// passesCommand lists the registered rewrite passes.
func (c *CLI) passesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passes",
		Short: "List the available rewrite passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.passList())
			printDetail("Configured: %v", c.Config.Passes)
			return nil
		},
	}
}

// passList renders the pass registry, marking the passes the config enables.
func (c *CLI) passList() string {
	t := newTable("Pass", "Enabled", "Description")
	for _, p := range rewrite.Passes() {
		enabled := ""
		if slices.Contains(c.Config.Passes, p.Name) {
			enabled = iconSuccess
		}
		t.Row(p.Name, enabled, p.Description)
	}
	return t.Render()
}
