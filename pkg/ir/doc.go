// Package ir provides a mutable in-memory representation of a model graph
// (operators wired together by named values) for structural rewrite passes.
//
// # Overview
//
// A [Graph] owns an ordered sequence of [Node] values, a set of named
// constant [Tensor] initializers, and the declared graph inputs and outputs.
// Nodes are connected implicitly: a node consumes a value by listing its name
// in [Node.Inputs], and produces one by listing it in [Node.Outputs]. There
// are no explicit edge objects.
//
//	g := ir.NewGraph("linear")
//	g.AddInput(ir.ValueInfo{Name: "x", DataType: ir.Float, Shape: []int64{-1, 4}})
//	g.AddInitializer(ir.NewFloatTensor("w", []int64{4, 2}, w))
//	g.AddNode(ir.NewNode("MatMul", "mm", []string{"x", "w"}, []string{"y"}))
//	g.AddOutput(ir.ValueInfo{Name: "y", DataType: ir.Float})
//
// # Node Identity
//
// Node names are optional and not unique, so the graph identifies nodes by a
// [NodeID] handle assigned by [Graph.AddNode]. Removal and membership checks
// compare handles. A node belongs to at most one graph at a time.
//
// # Optional Inputs
//
// An empty string in [Node.Inputs] marks an omitted optional input. Empty
// names never count as dependencies: they are skipped by the [Index], the
// sorter, and every traversal helper.
//
// # Name Index
//
// [NewIndex] builds the value-name → consumers and value-name → producer
// tables from the current node sequence. The index is a snapshot: any
// add, remove, or rename invalidates it. Traversal helpers such as
// [Graph.Children] accept a prebuilt index and build a fresh one when given nil.
//
// # Ordering
//
// The node sequence is only a witness of one valid execution order. Passes
// append and remove nodes freely and call [Graph.TopologicalSort] to restore
// a valid order before the graph is executed or persisted. Sorting fails with
// [ErrCycle] when no valid order exists.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. Every mutation happens in
// place; there is no rollback if a pass stops halfway through.
//
// # Related Packages
//
// The [rewrite] subpackage provides the structural passes (Gemm lowering,
// dead-constant elimination) built on this API.
//
// [rewrite]: github.com/matzehuels/modelir/pkg/ir/rewrite
package ir
