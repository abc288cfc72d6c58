package ir

import (
	"fmt"
	"slices"
)

// AttrType tags which field of an [Attribute] carries its value.
type AttrType int

const (
	AttrUndefined AttrType = iota
	AttrFloat
	AttrInt
	AttrString
	AttrTensor
	AttrFloats
	AttrInts
	AttrStrings
)

var attrTypeNames = map[AttrType]string{
	AttrUndefined: "undefined",
	AttrFloat:     "float",
	AttrInt:       "int",
	AttrString:    "string",
	AttrTensor:    "tensor",
	AttrFloats:    "floats",
	AttrInts:      "ints",
	AttrStrings:   "strings",
}

// String returns the attribute type name, e.g. "ints".
func (t AttrType) String() string {
	if s, ok := attrTypeNames[t]; ok {
		return s
	}
	return "undefined"
}

// ParseAttrType is the inverse of [AttrType.String].
func ParseAttrType(s string) (AttrType, bool) {
	for t, name := range attrTypeNames {
		if name == s {
			return t, true
		}
	}
	return AttrUndefined, false
}

// Attribute is a named, typed operator parameter. Only the field selected by
// Type is meaningful.
type Attribute struct {
	Name    string
	Type    AttrType
	F       float32
	I       int64
	S       string
	T       *Tensor
	Floats  []float32
	Ints    []int64
	Strings []string
}

// FloatAttr builds a float attribute.
func FloatAttr(name string, v float32) Attribute {
	return Attribute{Name: name, Type: AttrFloat, F: v}
}

// IntAttr builds an int attribute.
func IntAttr(name string, v int64) Attribute {
	return Attribute{Name: name, Type: AttrInt, I: v}
}

// StringAttr builds a string attribute.
func StringAttr(name, v string) Attribute {
	return Attribute{Name: name, Type: AttrString, S: v}
}

// IntsAttr builds an ints attribute.
func IntsAttr(name string, v ...int64) Attribute {
	return Attribute{Name: name, Type: AttrInts, Ints: v}
}

// TensorAttr builds a tensor attribute.
func TensorAttr(name string, t *Tensor) Attribute {
	return Attribute{Name: name, Type: AttrTensor, T: t}
}

func (a Attribute) clone() Attribute {
	a.Floats = slices.Clone(a.Floats)
	a.Ints = slices.Clone(a.Ints)
	a.Strings = slices.Clone(a.Strings)
	if a.T != nil {
		a.T = a.T.Clone()
	}
	return a
}

// ValueString formats the attribute value for display. Tensor values are
// summarized by data type and shape.
func (a Attribute) ValueString() string {
	switch a.Type {
	case AttrFloat:
		return fmt.Sprint(a.F)
	case AttrInt:
		return fmt.Sprint(a.I)
	case AttrString:
		return fmt.Sprintf("%q", a.S)
	case AttrTensor:
		if a.T == nil {
			return "<nil tensor>"
		}
		return fmt.Sprintf("tensor %s %v", a.T.DataType, a.T.Dims)
	case AttrFloats:
		return fmt.Sprint(a.Floats)
	case AttrInts:
		return fmt.Sprint(a.Ints)
	case AttrStrings:
		return fmt.Sprintf("%q", a.Strings)
	}
	return "?"
}

// Attr returns the attribute with the given name.
func (n *Node) Attr(name string) (Attribute, bool) {
	for _, a := range n.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// SetAttr replaces the attribute with the same name or appends a new one.
func (n *Node) SetAttr(a Attribute) {
	for i := range n.Attributes {
		if n.Attributes[i].Name == a.Name {
			n.Attributes[i] = a
			return
		}
	}
	n.Attributes = append(n.Attributes, a)
}

// AttrFloat returns the named float attribute, or def if it is missing or
// has another type. Int attributes are widened.
func (n *Node) AttrFloat(name string, def float32) float32 {
	a, ok := n.Attr(name)
	if !ok {
		return def
	}
	switch a.Type {
	case AttrFloat:
		return a.F
	case AttrInt:
		return float32(a.I)
	}
	return def
}

// AttrInt returns the named int attribute, or def if it is missing or has
// another type.
func (n *Node) AttrInt(name string, def int64) int64 {
	if a, ok := n.Attr(name); ok && a.Type == AttrInt {
		return a.I
	}
	return def
}

// AttrString returns the named string attribute, or def.
func (n *Node) AttrString(name, def string) string {
	if a, ok := n.Attr(name); ok && a.Type == AttrString {
		return a.S
	}
	return def
}

// AttrInts returns the named ints attribute, or def.
func (n *Node) AttrInts(name string, def []int64) []int64 {
	if a, ok := n.Attr(name); ok && a.Type == AttrInts {
		return a.Ints
	}
	return def
}

// AttrFloats returns the named floats attribute, or def.
func (n *Node) AttrFloats(name string, def []float32) []float32 {
	if a, ok := n.Attr(name); ok && a.Type == AttrFloats {
		return a.Floats
	}
	return def
}

// AttrTensor returns the named tensor attribute, or nil.
func (n *Node) AttrTensor(name string) *Tensor {
	if a, ok := n.Attr(name); ok && a.Type == AttrTensor {
		return a.T
	}
	return nil
}
