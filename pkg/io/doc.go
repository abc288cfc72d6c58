// Package io provides JSON import and export for model graphs.
//
// # Overview
//
// This package serializes an [ir.Model] to and from a JSON document that
// mirrors the structure of an ONNX ModelProto. The format is designed for:
//
//   - Round-trip preservation: import, rewrite, export, and re-import
//   - Inspection and diffing with ordinary text tools
//   - Keeping large weights out of the document in a sidecar data file
//
// # JSON Format
//
//	{
//	  "ir_version": 8,
//	  "opset_import": [{"version": 17}],
//	  "graph": {
//	    "name": "mlp",
//	    "nodes": [
//	      {"name": "fc", "op_type": "Gemm", "inputs": ["x", "w", "b"], "outputs": ["y"],
//	       "attributes": [{"name": "transB", "type": "int", "i": 1}]}
//	    ],
//	    "initializers": [
//	      {"name": "w", "data_type": "float", "dims": [4, 2], "raw_data": "AACAPw..."},
//	      {"name": "b", "data_type": "float", "dims": [2],
//	       "external": {"location": "mlp.json.data", "offset": 0, "length": 8}}
//	    ],
//	    "inputs": [{"name": "x", "data_type": "float", "shape": [-1, 4]}],
//	    "outputs": [{"name": "y", "data_type": "float"}]
//	  }
//	}
//
// Tensor data is little-endian and base64 encoded in raw_data, or stored in
// an external file referenced by location, offset and length.
//
// # Import
//
// Use [ImportJSON] to read a model from a file path, or [ReadJSON] to read
// from any io.Reader. External data locations are resolved against the
// directory of the model file and must not escape it.
//
// # Export
//
// Use [ExportJSON] or [WriteJSON] to write a model with all tensor data
// inline. Use [Save] to write a model for downstream use: it sorts the graph
// first, since an unsorted graph is never persisted, and can move large
// initializers into a single sidecar file named <model file>.data.
//
// # Concurrency
//
// Functions in this package do not retain the models they are given. A
// model must not be modified while it is being written.
//
// [ir.Model]: github.com/matzehuels/modelir/pkg/ir.Model
package io
