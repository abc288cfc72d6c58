package rewrite

import "github.com/matzehuels/modelir/pkg/ir"

// Operator types produced or consumed by the passes in this package.
const (
	OpGemm      = "Gemm"
	OpMatMul    = "MatMul"
	OpAdd       = "Add"
	OpTranspose = "Transpose"
	OpConstant  = "Constant"
)

// Suffixes appended to node and value names created by [LowerGemm].
const (
	suffixMatMul     = "_MatMul"
	suffixAdd        = "_Add"
	suffixTranspose  = "_Transpose"
	suffixTransposed = "_Transposed"
)

// LowerGemm replaces every Gemm node of the form A*B (+C) with a MatMul
// node and, when C is present, an Add node.
//
// A Gemm qualifies when alpha and beta are 1 (their defaults) and transA is
// 0. With a bias the MatMul writes <Y>_MatMul and the Add writes the Gemm's
// own outputs, so consumers of Y are unaffected. The new nodes are named
// <name>_MatMul and <name>_Add, or left unnamed if the Gemm had no name.
//
// When transB is set the B operand must be transposed first:
//   - If B is an initializer read only by this node (and only as B) and not
//     a graph output, its data is replaced with the transpose under the same
//     name. Its graph input declaration, if any, is dropped.
//   - Otherwise a Transpose node <name>_Transpose producing <B>_Transposed
//     is inserted ahead of the MatMul.
//
// Gemm nodes that do not qualify, or whose initializer cannot be transposed,
// are kept unmodified. The node sequence is replaced in one step at the end.
//
// # Performance
//
// Time is O(V + I) for the index snapshot plus the size of any transposed
// initializer data.
func LowerGemm(g *ir.Graph) Result {
	var res Result
	idx := ir.NewIndex(g)
	nodes := g.Nodes()
	next := make([]*ir.Node, 0, len(nodes))

	for _, n := range nodes {
		if !isLowerableGemm(n) {
			next = append(next, n)
			continue
		}
		lowered, ok := lowerGemm(g, idx, n, &res)
		if !ok {
			next = append(next, n)
			continue
		}
		next = append(next, lowered...)
		res.GemmsLowered++
	}

	g.SetNodes(next)
	return res
}

func isLowerableGemm(n *ir.Node) bool {
	if n.OpType != OpGemm || (n.Domain != "" && n.Domain != "ai.onnx") {
		return false
	}
	if len(n.Inputs) < 2 || n.Inputs[0] == "" || n.Inputs[1] == "" {
		return false
	}
	if len(n.Outputs) == 0 || n.Outputs[0] == "" {
		return false
	}
	return n.AttrFloat("alpha", 1) == 1 &&
		n.AttrFloat("beta", 1) == 1 &&
		n.AttrInt("transA", 0) == 0
}

func lowerGemm(g *ir.Graph, idx *ir.Index, n *ir.Node, res *Result) ([]*ir.Node, bool) {
	a, b := n.Inputs[0], n.Inputs[1]
	var out []*ir.Node

	if n.AttrInt("transB", 0) != 0 {
		w, isInit := g.Initializer(b)
		if isInit && ownsWeight(g, idx, n, b) {
			t, err := w.Transposed()
			if err != nil {
				return nil, false
			}
			g.RemoveInitializer(w)
			g.AddInitializer(t)
			res.WeightsTransposed++
		} else {
			tr := ir.NewNode(OpTranspose, suffixed(n.Name, suffixTranspose),
				[]string{b}, []string{b + suffixTransposed})
			tr.Domain = n.Domain
			out = append(out, tr)
			b = tr.Outputs[0]
			res.TransposesInserted++
		}
	}

	hasBias := len(n.Inputs) > 2 && n.Inputs[2] != ""

	mmOutputs := n.Outputs
	if hasBias {
		mmOutputs = []string{n.Outputs[0] + suffixMatMul}
	}
	mm := ir.NewNode(OpMatMul, suffixed(n.Name, suffixMatMul), []string{a, b}, mmOutputs)
	mm.Domain = n.Domain
	out = append(out, mm)

	if hasBias {
		add := ir.NewNode(OpAdd, suffixed(n.Name, suffixAdd),
			[]string{mm.Outputs[0], n.Inputs[2]}, n.Outputs)
		add.Domain = n.Domain
		out = append(out, add)
	}
	return out, true
}

// ownsWeight reports whether n is the only reader of the initializer name
// and reads it in a single slot, so its data can be rewritten in place.
func ownsWeight(g *ir.Graph, idx *ir.Index, n *ir.Node, name string) bool {
	if len(idx.Consumers(name)) != 1 || g.IsGraphOutput(name) {
		return false
	}
	slots := 0
	for _, in := range n.Inputs {
		if in == name {
			slots++
		}
	}
	return slots == 1
}

// suffixed keeps unnamed nodes unnamed.
func suffixed(name, suffix string) string {
	if name == "" {
		return ""
	}
	return name + suffix
}
