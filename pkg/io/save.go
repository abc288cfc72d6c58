package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/modelir/pkg/errors"
	"github.com/matzehuels/modelir/pkg/ir"
)

// DefaultSizeThreshold is the smallest raw data size, in bytes, that [Save]
// moves to the external data file.
const DefaultSizeThreshold = 1024

// SaveOptions configures [Save].
type SaveOptions struct {
	// ExternalData moves initializer data into <base name of path>.data
	// next to the model file.
	ExternalData bool

	// SizeThreshold is the minimum data size moved when ExternalData is
	// set. Zero means DefaultSizeThreshold.
	SizeThreshold int
}

// Save sorts the model graph and writes it to path.
//
// The graph is always sorted in place first. If the sort fails nothing is
// written and the returned error has code CYCLE and wraps [ir.ErrCycle].
//
// With opts.ExternalData every initializer holding at least
// opts.SizeThreshold bytes is appended to a single sidecar file and
// referenced from the JSON by location, offset and length. The in-memory
// model keeps its data. A sidecar left at that location by an earlier save is
// removed when this save moves nothing out of the JSON.
func Save(m *ir.Model, path string, opts SaveOptions) error {
	if m.Graph == nil {
		return errors.New(errors.ErrCodeInvalidInput, "model has no graph")
	}
	if err := m.Graph.TopologicalSort(); err != nil {
		return errors.Wrap(errors.ErrCodeCycle, err, "cannot save %s", path)
	}

	doc := fromModel(m)
	var external bool
	if opts.ExternalData {
		threshold := opts.SizeThreshold
		if threshold <= 0 {
			threshold = DefaultSizeThreshold
		}
		var err error
		if external, err = writeExternal(&doc, path, threshold); err != nil {
			return err
		}
	}
	if !external {
		if err := os.Remove(ExternalDataPath(path)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale %s: %w", filepath.Base(ExternalDataPath(path)), err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExternalDataPath returns the sidecar file [Save] writes for a model at path.
func ExternalDataPath(path string) string {
	return path + ".data"
}

// writeExternal reports whether any tensor was moved to the sidecar.
func writeExternal(doc *model, path string, threshold int) (bool, error) {
	location := filepath.Base(ExternalDataPath(path))
	var (
		f      *os.File
		offset int64
	)
	for i := range doc.Graph.Initializers {
		t := &doc.Graph.Initializers[i]
		if len(t.RawData) == 0 || len(t.RawData) < threshold {
			continue
		}
		if f == nil {
			var err error
			if f, err = os.Create(ExternalDataPath(path)); err != nil {
				return false, fmt.Errorf("create %s: %w", location, err)
			}
		}
		n, err := f.Write(t.RawData)
		if err != nil {
			f.Close()
			return false, fmt.Errorf("write %s: %w", location, err)
		}
		t.External = &external{Location: location, Offset: offset, Length: int64(n)}
		t.RawData = nil
		offset += int64(n)
	}
	if f == nil {
		return false, nil
	}
	return true, f.Close()
}
