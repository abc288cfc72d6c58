package ir

import "slices"

// DefaultIRVersion is the IR version stamped on models created by NewModel.
const DefaultIRVersion = 8

// OpsetImport declares the operator set version used for a domain.
type OpsetImport struct {
	Domain  string
	Version int64
}

// Model wraps a graph with the model-level metadata a codec needs to
// round-trip it.
type Model struct {
	IRVersion       int64
	ProducerName    string
	ProducerVersion string
	Opsets          []OpsetImport
	Graph           *Graph
}

// NewModel wraps g with the default IR version and the given opsets.
func NewModel(g *Graph, opsets ...OpsetImport) *Model {
	return &Model{
		IRVersion: DefaultIRVersion,
		Opsets:    opsets,
		Graph:     g,
	}
}

// OpsetVersion returns the opset version imported for domain.
func (m *Model) OpsetVersion(domain string) (int64, bool) {
	i := slices.IndexFunc(m.Opsets, func(o OpsetImport) bool { return o.Domain == domain })
	if i < 0 {
		return 0, false
	}
	return m.Opsets[i].Version, true
}

// Clone returns a deep copy of the model and its graph.
func (m *Model) Clone() *Model {
	c := *m
	c.Opsets = slices.Clone(m.Opsets)
	if m.Graph != nil {
		c.Graph = m.Graph.Clone()
	}
	return &c
}
