// Package pkg provides the core libraries for modelir.
//
// # Overview
//
// modelir rewrites neural network model graphs: it lowers Gemm operators to
// MatMul and Add, drops constants nothing reads, and keeps the node list in
// topological order. The pkg directory is organized into these areas:
//
//  1. [ir] - Graph model, name index, and topological sort
//  2. [ir/rewrite] - Rewrite passes and the pass registry
//  3. [io] - JSON model codec with external tensor data
//  4. [pipeline] - Orchestration (decode → rewrite → sort → encode)
//  5. [cache], [config], [errors], [observability] - Infrastructure
//  6. [render/nodelink] - Graphviz diagrams of model graphs
//
// # Architecture
//
// The typical data flow through modelir:
//
//	JSON model document
//	         ↓
//	    [io] package (decode, resolve external data)
//	         ↓
//	    [ir/rewrite] package (lower-gemm, remove-unused-constants)
//	         ↓
//	    [ir] package (topological sort)
//	         ↓
//	    JSON model document (+ optional .data sidecar)
//
// # Quick Start
//
// Optimize a model file in place:
//
//	import (
//	    "github.com/matzehuels/modelir/pkg/io"
//	    "github.com/matzehuels/modelir/pkg/ir/rewrite"
//	)
//
//	m, err := io.ImportJSON("model.json")
//	if err != nil {
//	    return err
//	}
//	res := rewrite.Optimize(m.Graph)
//	fmt.Println(res.GemmsLowered, "Gemm nodes lowered")
//	if err := io.Save(m, "model.opt.json", io.SaveOptions{}); err != nil {
//	    return err
//	}
//
// The [pipeline] package wraps the same steps with caching and hooks, and is
// what the CLI and HTTP API use.
package pkg
