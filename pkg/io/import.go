package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/modelir/pkg/errors"
	"github.com/matzehuels/modelir/pkg/ir"
)

// ReadJSON decodes a JSON model from r.
//
// External tensor data is resolved against baseDir. When baseDir is empty,
// a model that references external data is rejected with code UNSUPPORTED;
// this is how untrusted input (for example an HTTP request body) is read.
//
// ReadJSON returns an error with code INVALID_FORMAT if:
//   - The JSON is malformed
//   - A node has no op_type
//   - An attribute, tensor or value has an unknown type
//   - Two initializers share a name
//   - A tensor's data length does not match its shape
//
// External data locations must pass [errors.ValidatePath], so a model can
// never read outside baseDir. ReadJSON does not close r and does not check
// that the graph is topologically sorted.
func ReadJSON(r io.Reader, baseDir string) (*ir.Model, error) {
	var data model
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode model")
	}

	var ext loader
	if baseDir != "" {
		fl := &fileLoader{dir: baseDir, files: make(map[string]*sidecar)}
		defer fl.close()
		ext = fl
	}
	return toModel(data, ext)
}

// ImportJSON reads a JSON model file at path. External data is resolved
// relative to the directory containing path.
func ImportJSON(path string) (*ir.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f, filepath.Dir(path))
}

// Decode is [ReadJSON] over an in-memory document without external data.
func Decode(data []byte) (*ir.Model, error) {
	return ReadJSON(bytes.NewReader(data), "")
}

type sidecar struct {
	f    *os.File
	size int64
}

type fileLoader struct {
	dir   string
	files map[string]*sidecar
}

func (l *fileLoader) load(ref *external) ([]byte, error) {
	if err := errors.ValidatePath(ref.Location); err != nil {
		return nil, err
	}
	sc, err := l.open(ref.Location)
	if err != nil {
		return nil, err
	}
	if ref.Offset < 0 || ref.Length < 0 || ref.Offset+ref.Length > sc.size {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"range [%d, %d) outside %s (%d bytes)", ref.Offset, ref.Offset+ref.Length, ref.Location, sc.size)
	}
	buf := make([]byte, ref.Length)
	if _, err := sc.f.ReadAt(buf, ref.Offset); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read %s", ref.Location)
	}
	return buf, nil
}

func (l *fileLoader) open(location string) (*sidecar, error) {
	if sc, ok := l.files[location]; ok {
		return sc, nil
	}
	f, err := os.Open(filepath.Join(l.dir, filepath.FromSlash(location)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "external data %s", location)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "external data %s", location)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "stat %s", location)
	}
	sc := &sidecar{f: f, size: info.Size()}
	l.files[location] = sc
	return sc, nil
}

func (l *fileLoader) close() {
	for _, sc := range l.files {
		sc.f.Close()
	}
}
