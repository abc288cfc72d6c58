// Package nodelink renders model graphs as node-link diagrams.
//
// # Overview
//
// Operator nodes appear as rounded boxes labeled with their op type and
// name. Graph inputs and outputs appear as ellipses, and every value edge
// from a producer to a consumer is drawn as an arrow labeled with the value
// name. Initializers are hidden unless [Options.Initializers] is set, since
// large models carry hundreds of them.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(m.Graph, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG] or [RenderPNG]
//   - Saved and processed with external Graphviz tools
//
// Node identifiers in the DOT source are derived from node handles, so two
// nodes with the same name are still drawn separately.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
// No Graphviz installation is required.
package nodelink
