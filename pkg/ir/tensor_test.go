package ir

import (
	"errors"
	"slices"
	"testing"
)

func TestTensor_Transposed(t *testing.T) {
	// [[1 2 3]
	//  [4 5 6]]
	w := NewFloatTensor("w", []int64{2, 3}, []float32{1, 2, 3, 4, 5, 6})

	got, err := w.Transposed()
	if err != nil {
		t.Fatalf("Transposed() error = %v", err)
	}
	if !slices.Equal(got.Dims, []int64{3, 2}) {
		t.Errorf("Dims = %v, want [3 2]", got.Dims)
	}
	if want := []float32{1, 4, 2, 5, 3, 6}; !slices.Equal(got.Floats(), want) {
		t.Errorf("Floats() = %v, want %v", got.Floats(), want)
	}
	if got.Name != "w" {
		t.Errorf("Name = %q, want w", got.Name)
	}
	if !slices.Equal(w.Floats(), []float32{1, 2, 3, 4, 5, 6}) {
		t.Error("receiver was modified")
	}
}

func TestTensor_TransposedInt64(t *testing.T) {
	w := NewInt64Tensor("w", []int64{1, 3}, []int64{7, 8, 9})
	got, err := w.Transposed()
	if err != nil {
		t.Fatalf("Transposed() error = %v", err)
	}
	if !slices.Equal(got.Dims, []int64{3, 1}) || !slices.Equal(got.Int64s(), []int64{7, 8, 9}) {
		t.Errorf("Transposed() = %v %v, want [3 1] [7 8 9]", got.Dims, got.Int64s())
	}
}

func TestTensor_TransposedErrors(t *testing.T) {
	tests := []struct {
		name   string
		tensor *Tensor
	}{
		{"rank 1", NewFloatTensor("v", []int64{3}, []float32{1, 2, 3})},
		{"rank 3", NewFloatTensor("v", []int64{1, 1, 1}, []float32{1})},
		{"string type", &Tensor{Name: "s", DataType: String, Dims: []int64{1, 1}}},
		{"short data", &Tensor{Name: "f", DataType: Float, Dims: []int64{2, 2}, Raw: make([]byte, 4)}},
		{"negative dims", &Tensor{Name: "w", DataType: Float, Dims: []int64{-1, -2}, Raw: make([]byte, 8)}},
		{"one negative dim", &Tensor{Name: "w", DataType: Float, Dims: []int64{-2, 0}, Raw: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.tensor.Transposed(); !errors.Is(err, ErrUnsupportedTranspose) {
				t.Errorf("Transposed() error = %v, want ErrUnsupportedTranspose", err)
			}
		})
	}
}

func TestDataType_ParseRoundTrip(t *testing.T) {
	for _, dt := range []DataType{Float, Int64, Bool, BFloat16} {
		got, ok := ParseDataType(dt.String())
		if !ok || got != dt {
			t.Errorf("ParseDataType(%q) = %v, %v, want %v", dt.String(), got, ok, dt)
		}
	}
	if _, ok := ParseDataType("complex64"); ok {
		t.Error("ParseDataType(complex64) should fail")
	}
}

func TestTensor_NumElements(t *testing.T) {
	tests := []struct {
		dims []int64
		want int64
	}{
		{nil, 1},
		{[]int64{4}, 4},
		{[]int64{2, 3, 4}, 24},
		{[]int64{0, 5}, 0},
	}
	for _, tt := range tests {
		if got := (&Tensor{Dims: tt.dims}).NumElements(); got != tt.want {
			t.Errorf("NumElements(%v) = %d, want %d", tt.dims, got, tt.want)
		}
	}
}

func TestNode_AttrAccessors(t *testing.T) {
	n := NewNode("Gemm", "g", nil, nil,
		FloatAttr("alpha", 0.5),
		IntAttr("transB", 1),
		IntsAttr("perm", 1, 0),
	)

	if got := n.AttrFloat("alpha", 1); got != 0.5 {
		t.Errorf("AttrFloat(alpha) = %v, want 0.5", got)
	}
	if got := n.AttrFloat("beta", 1); got != 1 {
		t.Errorf("AttrFloat(beta) default = %v, want 1", got)
	}
	if got := n.AttrInt("transB", 0); got != 1 {
		t.Errorf("AttrInt(transB) = %v, want 1", got)
	}
	if got := n.AttrInts("perm", nil); !slices.Equal(got, []int64{1, 0}) {
		t.Errorf("AttrInts(perm) = %v, want [1 0]", got)
	}

	n.SetAttr(IntAttr("transB", 0))
	if got := n.AttrInt("transB", 1); got != 0 {
		t.Errorf("AttrInt(transB) after SetAttr = %v, want 0", got)
	}
	if len(n.Attributes) != 3 {
		t.Errorf("SetAttr appended a duplicate: %d attributes", len(n.Attributes))
	}
}

func TestAttribute_ValueString(t *testing.T) {
	tests := []struct {
		attr Attribute
		want string
	}{
		{FloatAttr("alpha", 0.5), "0.5"},
		{IntAttr("transB", 1), "1"},
		{StringAttr("mode", "constant"), `"constant"`},
		{IntsAttr("perm", 1, 0), "[1 0]"},
		{TensorAttr("value", NewInt64Tensor("v", []int64{2}, []int64{3, 4})), "tensor int64 [2]"},
		{Attribute{Name: "empty"}, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.attr.Name, func(t *testing.T) {
			if got := tt.attr.ValueString(); got != tt.want {
				t.Errorf("ValueString() = %q, want %q", got, tt.want)
			}
		})
	}
}
