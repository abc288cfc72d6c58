// Package rewrite provides structural passes that simplify a model graph
// before it is saved or executed.
//
// # Overview
//
// Exported models often carry fused operators and leftover constants that
// downstream runtimes handle poorly. The passes here rewrite the graph in
// place using only the mutation and query methods of [ir.Graph]:
//
//   - Gemm nodes in their plain form are lowered to MatMul plus an optional Add
//   - Constant nodes and initializers that nothing reads are dropped
//
// The [Optimize] function applies both passes in order.
//
// # Gemm Lowering
//
// [LowerGemm] rewrites Y = alpha*A'*B' + beta*C when alpha and beta are 1
// and A is not transposed:
//
//	Before: Gemm(x, w, b) -> y
//	After:  MatMul(x, w) -> y_MatMul, Add(y_MatMul, b) -> y
//
// When transB is set and w is an initializer read by no other node, the
// initializer data is transposed in place and keeps its name. Otherwise a
// Transpose node producing w_Transposed is spliced in ahead of the MatMul.
// Gemm nodes with any other attribute combination are left untouched.
//
// The rewritten node list replaces the old one in a single bulk swap at the
// end of the pass.
//
// # Dead Constant Elimination
//
// [RemoveUnusedConstants] removes Constant nodes whose output is neither
// read by any node nor declared as a graph output, and initializers in the
// same situation along with their input declarations.
//
// Both sweeps work from one [ir.Index] snapshot taken before anything is
// removed. A constant that only becomes dead because of a removal in the
// same call survives until the next call:
//
//	rewrite.RemoveUnusedConstants(g) // removes what is dead now
//	rewrite.RemoveUnusedConstants(g) // removes what the first call exposed
//
// # Pass Registry
//
// Passes are addressable by name through [Lookup] so that pipelines and
// configuration files can list them as strings:
//
//	p, ok := rewrite.Lookup("lower-gemm")
//	res := p.Run(g)
//
// # Ordering
//
// None of the passes sort the graph. Lowering keeps the replacement nodes
// at the position of the node they replace, so a sorted graph stays sorted.
// Call [ir.Graph.TopologicalSort] (or set [Options.Sort]) before saving.
//
// [ir.Graph]: github.com/matzehuels/modelir/pkg/ir.Graph
// [ir.Index]: github.com/matzehuels/modelir/pkg/ir.Index
// [ir.Graph.TopologicalSort]: github.com/matzehuels/modelir/pkg/ir.Graph.TopologicalSort
package rewrite
