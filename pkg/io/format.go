package io

import (
	"github.com/matzehuels/modelir/pkg/errors"
	"github.com/matzehuels/modelir/pkg/ir"
)

type model struct {
	IRVersion       int64   `json:"ir_version"`
	ProducerName    string  `json:"producer_name,omitempty"`
	ProducerVersion string  `json:"producer_version,omitempty"`
	Opsets          []opset `json:"opset_import,omitempty"`
	Graph           graph   `json:"graph"`
}

type opset struct {
	Domain  string `json:"domain,omitempty"`
	Version int64  `json:"version"`
}

type graph struct {
	Name         string      `json:"name,omitempty"`
	Nodes        []node      `json:"nodes"`
	Initializers []tensor    `json:"initializers,omitempty"`
	Inputs       []valueInfo `json:"inputs,omitempty"`
	Outputs      []valueInfo `json:"outputs,omitempty"`
}

type node struct {
	Name       string      `json:"name,omitempty"`
	OpType     string      `json:"op_type"`
	Domain     string      `json:"domain,omitempty"`
	Inputs     []string    `json:"inputs,omitempty"`
	Outputs    []string    `json:"outputs,omitempty"`
	Attributes []attribute `json:"attributes,omitempty"`
}

type attribute struct {
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	F       float32   `json:"f,omitempty"`
	I       int64     `json:"i,omitempty"`
	S       string    `json:"s,omitempty"`
	T       *tensor   `json:"t,omitempty"`
	Floats  []float32 `json:"floats,omitempty"`
	Ints    []int64   `json:"ints,omitempty"`
	Strings []string  `json:"strings,omitempty"`
}

type tensor struct {
	Name     string    `json:"name"`
	DataType string    `json:"data_type"`
	Dims     []int64   `json:"dims"`
	RawData  []byte    `json:"raw_data,omitempty"`
	External *external `json:"external,omitempty"`
}

type external struct {
	Location string `json:"location"`
	Offset   int64  `json:"offset"`
	Length   int64  `json:"length"`
}

type valueInfo struct {
	Name     string  `json:"name"`
	DataType string  `json:"data_type,omitempty"`
	Shape    []int64 `json:"shape,omitempty"`
}

func fromModel(m *ir.Model) model {
	out := model{
		IRVersion:       m.IRVersion,
		ProducerName:    m.ProducerName,
		ProducerVersion: m.ProducerVersion,
	}
	for _, o := range m.Opsets {
		out.Opsets = append(out.Opsets, opset{Domain: o.Domain, Version: o.Version})
	}
	if m.Graph != nil {
		out.Graph = fromGraph(m.Graph)
	}
	return out
}

func fromGraph(g *ir.Graph) graph {
	out := graph{Name: g.Name, Nodes: make([]node, 0, g.NodeCount())}
	for _, n := range g.Nodes() {
		nd := node{
			Name:    n.Name,
			OpType:  n.OpType,
			Domain:  n.Domain,
			Inputs:  n.Inputs,
			Outputs: n.Outputs,
		}
		for _, a := range n.Attributes {
			nd.Attributes = append(nd.Attributes, fromAttribute(a))
		}
		out.Nodes = append(out.Nodes, nd)
	}
	for _, t := range g.Initializers() {
		out.Initializers = append(out.Initializers, fromTensor(t))
	}
	for _, v := range g.Inputs() {
		out.Inputs = append(out.Inputs, fromValueInfo(v))
	}
	for _, v := range g.Outputs() {
		out.Outputs = append(out.Outputs, fromValueInfo(v))
	}
	return out
}

func fromAttribute(a ir.Attribute) attribute {
	out := attribute{
		Name:    a.Name,
		Type:    a.Type.String(),
		F:       a.F,
		I:       a.I,
		S:       a.S,
		Floats:  a.Floats,
		Ints:    a.Ints,
		Strings: a.Strings,
	}
	if a.T != nil {
		t := fromTensor(a.T)
		out.T = &t
	}
	return out
}

func fromTensor(t *ir.Tensor) tensor {
	return tensor{
		Name:     t.Name,
		DataType: t.DataType.String(),
		Dims:     t.Dims,
		RawData:  t.Raw,
	}
}

func fromValueInfo(v ir.ValueInfo) valueInfo {
	out := valueInfo{Name: v.Name, Shape: v.Shape}
	if v.DataType != ir.Undefined {
		out.DataType = v.DataType.String()
	}
	return out
}

// loader resolves external tensor data while a model is decoded.
type loader interface {
	load(ref *external) ([]byte, error)
}

func toModel(in model, ext loader) (*ir.Model, error) {
	g, err := toGraph(in.Graph, ext)
	if err != nil {
		return nil, err
	}
	m := &ir.Model{
		IRVersion:       in.IRVersion,
		ProducerName:    in.ProducerName,
		ProducerVersion: in.ProducerVersion,
		Graph:           g,
	}
	if m.IRVersion == 0 {
		m.IRVersion = ir.DefaultIRVersion
	}
	for _, o := range in.Opsets {
		m.Opsets = append(m.Opsets, ir.OpsetImport{Domain: o.Domain, Version: o.Version})
	}
	return m, nil
}

func toGraph(in graph, ext loader) (*ir.Graph, error) {
	g := ir.NewGraph(in.Name)
	for i, n := range in.Nodes {
		if n.OpType == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %d (%q): missing op_type", i, n.Name)
		}
		nd := ir.NewNode(n.OpType, n.Name, n.Inputs, n.Outputs)
		nd.Domain = n.Domain
		for _, a := range n.Attributes {
			attr, err := toAttribute(a)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %d (%q)", i, n.Name)
			}
			nd.Attributes = append(nd.Attributes, attr)
		}
		g.AddNode(nd)
	}
	for _, t := range in.Initializers {
		tt, err := toTensor(t, ext)
		if err != nil {
			return nil, err
		}
		if !g.AddInitializer(tt) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate initializer %q", t.Name)
		}
	}
	for _, v := range in.Inputs {
		vi, err := toValueInfo(v)
		if err != nil {
			return nil, err
		}
		g.AddInput(vi)
	}
	for _, v := range in.Outputs {
		vi, err := toValueInfo(v)
		if err != nil {
			return nil, err
		}
		g.AddOutput(vi)
	}
	return g, nil
}

func toAttribute(in attribute) (ir.Attribute, error) {
	typ, ok := ir.ParseAttrType(in.Type)
	if !ok || typ == ir.AttrUndefined {
		return ir.Attribute{}, errors.New(errors.ErrCodeInvalidFormat, "attribute %q: unknown type %q", in.Name, in.Type)
	}
	out := ir.Attribute{
		Name:    in.Name,
		Type:    typ,
		F:       in.F,
		I:       in.I,
		S:       in.S,
		Floats:  in.Floats,
		Ints:    in.Ints,
		Strings: in.Strings,
	}
	if typ == ir.AttrTensor {
		if in.T == nil {
			return ir.Attribute{}, errors.New(errors.ErrCodeInvalidFormat, "attribute %q: missing tensor value", in.Name)
		}
		t, err := toTensor(*in.T, nil)
		if err != nil {
			return ir.Attribute{}, err
		}
		out.T = t
	}
	return out, nil
}

func toTensor(in tensor, ext loader) (*ir.Tensor, error) {
	dt, ok := ir.ParseDataType(in.DataType)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "tensor %q: unknown data type %q", in.Name, in.DataType)
	}
	for _, d := range in.Dims {
		if d < 0 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "tensor %q: negative dimension in shape %v", in.Name, in.Dims)
		}
	}
	t := &ir.Tensor{Name: in.Name, DataType: dt, Dims: in.Dims, Raw: in.RawData}
	if in.External != nil {
		if ext == nil {
			return nil, errors.New(errors.ErrCodeUnsupported, "tensor %q: external data is not available here", in.Name)
		}
		raw, err := ext.load(in.External)
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInvalidFormat
			}
			return nil, errors.Wrap(code, err, "tensor %q", in.Name)
		}
		t.Raw = raw
	}
	if size := dt.ElemSize(); size > 0 && int64(len(t.Raw)) != t.NumElements()*int64(size) {
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"tensor %q: %d bytes of data for shape %v", in.Name, len(t.Raw), in.Dims)
	}
	return t, nil
}

func toValueInfo(in valueInfo) (ir.ValueInfo, error) {
	out := ir.ValueInfo{Name: in.Name, Shape: in.Shape}
	if in.Name == "" {
		return out, errors.New(errors.ErrCodeInvalidFormat, "graph input or output without a name")
	}
	if in.DataType != "" {
		dt, ok := ir.ParseDataType(in.DataType)
		if !ok {
			return out, errors.New(errors.ErrCodeInvalidFormat, "value %q: unknown data type %q", in.Name, in.DataType)
		}
		out.DataType = dt
	}
	return out, nil
}
