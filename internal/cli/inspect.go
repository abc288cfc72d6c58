package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	modelio "github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/ir"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var showNodes bool

	cmd := &cobra.Command{
		Use:   "inspect [model.json]",
		Short: "Print a summary of a model graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := modelio.ImportJSON(args[0])
			if err != nil {
				return err
			}
			printSummary(m)
			fmt.Println(opTable(m.Graph))
			if showNodes {
				fmt.Println(nodeTable(m.Graph))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showNodes, "nodes", false, "list every node")

	return cmd
}

func printSummary(m *ir.Model) {
	g := m.Graph
	fmt.Println(StyleTitle.Render(g.Name))
	printKeyValue("IR version", fmt.Sprint(m.IRVersion))
	if m.ProducerName != "" {
		printKeyValue("Producer", strings.TrimSpace(m.ProducerName+" "+m.ProducerVersion))
	}
	if len(m.Opsets) > 0 {
		opsets := make([]string, len(m.Opsets))
		for i, o := range m.Opsets {
			domain := o.Domain
			if domain == "" {
				domain = "ai.onnx"
			}
			opsets[i] = fmt.Sprintf("%s:%d", domain, o.Version)
		}
		printKeyValue("Opsets", strings.Join(opsets, ", "))
	}
	printKeyValue("Nodes", StyleNumber.Render(fmt.Sprint(g.NodeCount())))
	printKeyValue("Initializers", StyleNumber.Render(fmt.Sprint(len(g.Initializers()))))
	printKeyValue("Inputs", valueNames(g.Inputs(), g.NonInitializerInputs()))
	printKeyValue("Outputs", valueNames(g.Outputs(), nil))

	if ir.IsTopologicallySorted(g) {
		printKeyValue("Sorted", "yes")
	} else {
		printKeyValue("Sorted", StyleWarning.Render("no"))
	}
}

// valueNames joins the names of values, restricted to keep when it is non-nil.
func valueNames(values []ir.ValueInfo, keep map[string]struct{}) string {
	var names []string
	for _, v := range values {
		if keep != nil {
			if _, ok := keep[v.Name]; !ok {
				continue
			}
		}
		names = append(names, v.Name)
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
