package rewrite

// Result contains metrics about the rewrites applied to a graph.
//
// Each pass fills in the fields it is responsible for; [Optimize] and
// [OptimizeWithOptions] return the sum over all passes that ran.
type Result struct {
	// GemmsLowered is the number of Gemm nodes replaced by MatMul [+ Add].
	GemmsLowered int

	// WeightsTransposed is the number of initializers whose data was
	// transposed in place while lowering a Gemm with transB set.
	WeightsTransposed int

	// TransposesInserted is the number of Transpose nodes spliced in for
	// transB operands that could not be transposed in place.
	TransposesInserted int

	// ConstantsRemoved is the number of dead Constant nodes removed.
	ConstantsRemoved int

	// InitializersRemoved is the number of unused initializers removed.
	InitializersRemoved int
}

// Add returns the field-wise sum of r and o.
func (r Result) Add(o Result) Result {
	return Result{
		GemmsLowered:        r.GemmsLowered + o.GemmsLowered,
		WeightsTransposed:   r.WeightsTransposed + o.WeightsTransposed,
		TransposesInserted:  r.TransposesInserted + o.TransposesInserted,
		ConstantsRemoved:    r.ConstantsRemoved + o.ConstantsRemoved,
		InitializersRemoved: r.InitializersRemoved + o.InitializersRemoved,
	}
}

// Changed reports whether any rewrite was applied.
func (r Result) Changed() bool {
	return r != Result{}
}

// Total returns the number of rewrites over every counter, so Total is
// non-zero exactly when Changed is true.
func (r Result) Total() int {
	return r.GemmsLowered + r.WeightsTransposed + r.TransposesInserted +
		r.ConstantsRemoved + r.InitializersRemoved
}

// Options configures which passes are applied by [OptimizeWithOptions].
//
// The zero value applies all passes and does not sort (equivalent to
// calling [Optimize]).
type Options struct {
	// SkipGemmLowering disables [LowerGemm].
	SkipGemmLowering bool

	// SkipConstantElimination disables [RemoveUnusedConstants].
	SkipConstantElimination bool

	// Sort runs a topological sort after the passes. A sort failure is
	// returned as the error and the graph keeps its rewritten order.
	Sort bool
}
