package rewrite

import (
	"slices"

	"github.com/matzehuels/modelir/pkg/ir"
)

// Pass is a named graph rewrite.
type Pass struct {
	Name        string
	Description string
	Run         func(g *ir.Graph) Result
}

// Pass names accepted by [Lookup].
const (
	PassLowerGemm       = "lower-gemm"
	PassRemoveConstants = "remove-unused-constants"
)

var registry = []Pass{
	{
		Name:        PassLowerGemm,
		Description: "Lower plain Gemm nodes to MatMul and Add",
		Run:         LowerGemm,
	},
	{
		Name:        PassRemoveConstants,
		Description: "Remove Constant nodes and initializers nothing reads",
		Run:         RemoveUnusedConstants,
	},
}

// Passes returns every registered pass in default order.
func Passes() []Pass { return slices.Clone(registry) }

// DefaultPassNames returns the names of the passes [Optimize] applies.
func DefaultPassNames() []string {
	names := make([]string, len(registry))
	for i, p := range registry {
		names[i] = p.Name
	}
	return names
}

// Lookup returns the pass registered under name.
func Lookup(name string) (Pass, bool) {
	i := slices.IndexFunc(registry, func(p Pass) bool { return p.Name == name })
	if i < 0 {
		return Pass{}, false
	}
	return registry[i], true
}

// Optimize applies every pass in default order. It does not sort.
func Optimize(g *ir.Graph) Result {
	res, _ := OptimizeWithOptions(g, Options{})
	return res
}

// OptimizeWithOptions applies the passes selected by opts in default order
// and, if opts.Sort is set, sorts the graph afterwards. The only error it
// returns is the sort error, which wraps [ir.ErrCycle].
func OptimizeWithOptions(g *ir.Graph, opts Options) (Result, error) {
	var res Result
	if !opts.SkipGemmLowering {
		res = res.Add(LowerGemm(g))
	}
	if !opts.SkipConstantElimination {
		res = res.Add(RemoveUnusedConstants(g))
	}
	if opts.Sort {
		if err := g.TopologicalSort(); err != nil {
			return res, err
		}
	}
	return res, nil
}
