package rewrite

import "github.com/matzehuels/modelir/pkg/ir"

// RemoveUnusedConstants removes Constant nodes and initializers whose value
// is not read by any node and is not a declared graph output. Removing an
// initializer also drops the graph input declared under its name.
//
// Both sweeps consult one [ir.Index] built before any removal, so the pass
// does not iterate to a fixed point. Values that become dead only because
// of this call are left for the next one.
func RemoveUnusedConstants(g *ir.Graph) Result {
	idx := ir.NewIndex(g)
	dead := func(name string) bool {
		return !idx.IsConsumed(name) && !g.IsGraphOutput(name)
	}

	var nodes []*ir.Node
	for _, n := range g.Nodes() {
		if n.OpType != OpConstant || len(n.Outputs) == 0 {
			continue
		}
		if dead(n.Outputs[0]) {
			nodes = append(nodes, n)
		}
	}

	var inits []*ir.Tensor
	for _, t := range g.Initializers() {
		if dead(t.Name) {
			inits = append(inits, t)
		}
	}

	return Result{
		ConstantsRemoved:    g.RemoveNodes(nodes),
		InitializersRemoved: g.RemoveInitializers(inits),
	}
}
