package rewrite_test

import (
	"fmt"

	"github.com/matzehuels/modelir/pkg/ir"
	"github.com/matzehuels/modelir/pkg/ir/rewrite"
)

func ExampleLowerGemm() {
	g := ir.NewGraph("dense")
	g.AddInput(ir.ValueInfo{Name: "x"})
	g.AddInitializer(ir.NewFloatTensor("w", []int64{2, 2}, []float32{1, 2, 3, 4}))
	g.AddInitializer(ir.NewFloatTensor("b", []int64{2}, []float32{0, 1}))
	g.AddOutput(ir.ValueInfo{Name: "y"})
	g.AddNode(ir.NewNode("Gemm", "fc", []string{"x", "w", "b"}, []string{"y"},
		ir.IntAttr("transB", 1)))

	res := rewrite.LowerGemm(g)

	for _, n := range g.Nodes() {
		fmt.Println(n.OpType, n.Name, n.Inputs, "->", n.Outputs)
	}
	w, _ := g.Initializer("w")
	fmt.Println("w:", w.Floats())
	fmt.Println("lowered:", res.GemmsLowered)
	// Output:
	// MatMul fc_MatMul [x w] -> [y_MatMul]
	// Add fc_Add [y_MatMul b] -> [y]
	// w: [1 3 2 4]
	// lowered: 1
}

func ExampleRemoveUnusedConstants() {
	g := ir.NewGraph("scenario")
	g.AddInput(ir.ValueInfo{Name: "x"})
	g.AddOutput(ir.ValueInfo{Name: "y"})
	c1 := ir.NewNode("Constant", "c1", nil, []string{"w"})
	fused := ir.NewNode("Gemm", "fused", []string{"x", "w"}, []string{"y"})
	g.AddNodes(c1, fused)

	res := rewrite.RemoveUnusedConstants(g)
	fmt.Println("first pass removed:", res.ConstantsRemoved)

	g.RemoveNode(fused)
	res = rewrite.RemoveUnusedConstants(g)
	fmt.Println("second pass removed:", res.ConstantsRemoved)
	fmt.Println("c1 present:", g.Contains(c1))
	// Output:
	// first pass removed: 0
	// second pass removed: 1
	// c1 present: false
}

func ExampleOptimizeWithOptions() {
	g := ir.NewGraph("mixed")
	g.AddInput(ir.ValueInfo{Name: "x"})
	g.AddInitializer(ir.NewFloatTensor("w", []int64{1, 1}, []float32{2}))
	g.AddInitializer(ir.NewFloatTensor("unused", []int64{1}, []float32{0}))
	g.AddOutput(ir.ValueInfo{Name: "y"})
	g.AddNode(ir.NewNode("Gemm", "fc", []string{"x", "w"}, []string{"y"}))

	res, err := rewrite.OptimizeWithOptions(g, rewrite.Options{Sort: true})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Gemms lowered:", res.GemmsLowered)
	fmt.Println("Initializers removed:", res.InitializersRemoved)
	fmt.Println("Nodes:", g.NodeCount())
	// Output:
	// Gemms lowered: 1
	// Initializers removed: 1
	// Nodes: 1
}
