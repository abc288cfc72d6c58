package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/modelir/pkg/ir"
)

// Rank directions accepted by [Options.RankDir].
const (
	RankTopBottom = "TB"
	RankLeftRight = "LR"
)

// Options configures node-link diagram generation.
type Options struct {
	// RankDir is the Graphviz layout direction. Empty means top to bottom.
	RankDir string

	// Initializers draws every consumed initializer as its own source node.
	Initializers bool

	// Detailed adds the node's attributes to its label.
	Detailed bool
}

// ValidRankDir reports whether dir is a supported rank direction.
func ValidRankDir(dir string) bool {
	return dir == "" || dir == RankTopBottom || dir == RankLeftRight
}

// ToDOT converts a graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Values consumed by a node but produced by nothing (and neither a graph
// input nor a drawn initializer) are left without an incoming edge.
func ToDOT(g *ir.Graph, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = RankTopBottom
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	// sources maps a value name to the DOT id that produces it.
	sources := make(map[string]string)

	inits := g.InitializerNames()
	for _, in := range g.Inputs() {
		if _, isInit := inits[in.Name]; isInit {
			continue
		}
		id := "input:" + in.Name
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=lightblue];\n", id, in.Name)
		sources[in.Name] = id
	}

	if opts.Initializers {
		idx := ir.NewIndex(g)
		for _, t := range g.Initializers() {
			if !idx.IsConsumed(t.Name) && !g.IsGraphOutput(t.Name) {
				continue
			}
			id := "init:" + t.Name
			label := fmt.Sprintf("%s\n%s %v", t.Name, t.DataType, t.Dims)
			fmt.Fprintf(&buf, "  %q [label=%q, shape=note, fillcolor=lightyellow];\n", id, label)
			sources[t.Name] = id
		}
	}

	nodes := g.Nodes()
	for _, n := range nodes {
		id := nodeID(n)
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, fmtLabel(n, opts.Detailed))
		for _, out := range n.Outputs {
			if out != "" {
				sources[out] = id
			}
		}
	}

	for _, out := range g.Outputs() {
		id := "output:" + out.Name
		fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse, fillcolor=lightgreen];\n", id, out.Name)
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, in := range n.Inputs {
			if from, ok := sources[in]; ok && in != "" {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", from, nodeID(n), in)
			}
		}
	}
	for _, out := range g.Outputs() {
		if from, ok := sources[out.Name]; ok {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, "output:"+out.Name)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n *ir.Node) string {
	return fmt.Sprintf("node:%d", n.ID())
}

func fmtLabel(n *ir.Node, detailed bool) string {
	label := n.OpType
	if n.Name != "" {
		label += "\n" + n.Name
	}
	if !detailed || len(n.Attributes) == 0 {
		return label
	}

	parts := make([]string, 0, len(n.Attributes))
	for _, a := range n.Attributes {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Name, a.ValueString()))
	}
	return label + "\n" + strings.Join(parts, "\n")
}
