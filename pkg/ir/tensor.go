package ir

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
)

// DataType is the element type of a tensor or declared value.
// The numbering follows the ONNX TensorProto.DataType enumeration so that
// codecs can map it one to one.
type DataType int32

const (
	Undefined DataType = 0
	Float     DataType = 1
	Uint8     DataType = 2
	Int8      DataType = 3
	Uint16    DataType = 4
	Int16     DataType = 5
	Int32     DataType = 6
	Int64     DataType = 7
	String    DataType = 8
	Bool      DataType = 9
	Float16   DataType = 10
	Double    DataType = 11
	Uint32    DataType = 12
	Uint64    DataType = 13
	BFloat16  DataType = 16
)

var dataTypeNames = map[DataType]string{
	Undefined: "undefined",
	Float:     "float",
	Uint8:     "uint8",
	Int8:      "int8",
	Uint16:    "uint16",
	Int16:     "int16",
	Int32:     "int32",
	Int64:     "int64",
	String:    "string",
	Bool:      "bool",
	Float16:   "float16",
	Double:    "double",
	Uint32:    "uint32",
	Uint64:    "uint64",
	BFloat16:  "bfloat16",
}

// String returns the lower-case type name, e.g. "float".
func (t DataType) String() string {
	if s, ok := dataTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", int32(t))
}

// ParseDataType is the inverse of [DataType.String].
func ParseDataType(s string) (DataType, bool) {
	for t, name := range dataTypeNames {
		if name == s {
			return t, true
		}
	}
	return Undefined, false
}

// ElemSize returns the size in bytes of one element, or 0 for types
// without a fixed-size raw encoding (Undefined, String).
func (t DataType) ElemSize() int {
	switch t {
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16, Float16, BFloat16:
		return 2
	case Float, Int32, Uint32:
		return 4
	case Int64, Uint64, Double:
		return 8
	}
	return 0
}

// Tensor is a named constant. Raw holds the elements in little-endian
// row-major order, matching the raw_data encoding of serialized models.
type Tensor struct {
	Name     string
	DataType DataType
	Dims     []int64
	Raw      []byte
}

// NewFloatTensor builds a float32 tensor from values.
func NewFloatTensor(name string, dims []int64, values []float32) *Tensor {
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	return &Tensor{Name: name, DataType: Float, Dims: slices.Clone(dims), Raw: raw}
}

// NewInt64Tensor builds an int64 tensor from values.
func NewInt64Tensor(name string, dims []int64, values []int64) *Tensor {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[8*i:], uint64(v))
	}
	return &Tensor{Name: name, DataType: Int64, Dims: slices.Clone(dims), Raw: raw}
}

// NumElements returns the product of the dimensions (1 for a scalar).
func (t *Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// Floats decodes the raw data of a Float tensor.
// It returns nil for any other data type.
func (t *Tensor) Floats() []float32 {
	if t.DataType != Float {
		return nil
	}
	out := make([]float32, len(t.Raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.Raw[4*i:]))
	}
	return out
}

// Int64s decodes the raw data of an Int64 tensor.
// It returns nil for any other data type.
func (t *Tensor) Int64s() []int64 {
	if t.DataType != Int64 {
		return nil
	}
	out := make([]int64, len(t.Raw)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(t.Raw[8*i:]))
	}
	return out
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{
		Name:     t.Name,
		DataType: t.DataType,
		Dims:     slices.Clone(t.Dims),
		Raw:      slices.Clone(t.Raw),
	}
}

// Transposed returns a new tensor with the same name holding the transpose
// of a 2-D tensor. The receiver is not modified.
//
// Returns an error wrapping [ErrUnsupportedTranspose] if the tensor is not
// 2-D, has a negative dimension, its type has no fixed element size, or the
// raw data length does not match the shape.
func (t *Tensor) Transposed() (*Tensor, error) {
	if len(t.Dims) != 2 {
		return nil, fmt.Errorf("%w: %s has rank %d", ErrUnsupportedTranspose, t.Name, len(t.Dims))
	}
	size := t.DataType.ElemSize()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s has type %s", ErrUnsupportedTranspose, t.Name, t.DataType)
	}
	rows, cols := int(t.Dims[0]), int(t.Dims[1])
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %s has negative shape %v", ErrUnsupportedTranspose, t.Name, t.Dims)
	}
	if len(t.Raw) != rows*cols*size {
		return nil, fmt.Errorf("%w: %s has %d bytes for shape %v", ErrUnsupportedTranspose, t.Name, len(t.Raw), t.Dims)
	}

	raw := make([]byte, len(t.Raw))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			src := (r*cols + c) * size
			dst := (c*rows + r) * size
			copy(raw[dst:dst+size], t.Raw[src:src+size])
		}
	}
	return &Tensor{
		Name:     t.Name,
		DataType: t.DataType,
		Dims:     []int64{t.Dims[1], t.Dims[0]},
		Raw:      raw,
	}, nil
}

// ValueInfo declares a graph input or output. Dynamic dimensions are -1.
type ValueInfo struct {
	Name     string
	DataType DataType
	Shape    []int64
}
