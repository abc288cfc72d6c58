package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/modelir/pkg/ir"
)

// WriteJSON encodes a model as JSON and writes it to w with all tensor data
// inline. The node order is written as is; use [Save] to sort first.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(m *ir.Model, w io.Writer) error {
	return encode(fromModel(m), w)
}

// ExportJSON writes a model to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(m *ir.Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}

// Encode is [WriteJSON] into a byte slice.
func Encode(m *ir.Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(doc model, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
