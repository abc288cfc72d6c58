package ir

import "slices"

// NodeID is the handle a [Graph] assigns to a node when it is added.
// The zero value means the node is not attached to any graph.
type NodeID int

// Node is a single operator application.
//
// Inputs and Outputs hold value names. An empty input name marks an omitted
// optional input and is ignored by all dependency reasoning.
type Node struct {
	Name       string // Optional, not unique
	OpType     string // Operator type, e.g. "Gemm"
	Domain     string // Operator domain; empty for the default domain
	Inputs     []string
	Outputs    []string
	Attributes []Attribute

	id    NodeID
	owner *Graph
}

// NewNode builds a detached node. The input and output slices are copied.
func NewNode(opType, name string, inputs, outputs []string, attrs ...Attribute) *Node {
	return &Node{
		Name:       name,
		OpType:     opType,
		Inputs:     slices.Clone(inputs),
		Outputs:    slices.Clone(outputs),
		Attributes: attrs,
	}
}

// ID returns the node's handle in its graph, or 0 if it is detached.
func (n *Node) ID() NodeID { return n.id }

// Clone returns a detached deep copy of the node.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:    n.Name,
		OpType:  n.OpType,
		Domain:  n.Domain,
		Inputs:  slices.Clone(n.Inputs),
		Outputs: slices.Clone(n.Outputs),
	}
	if n.Attributes != nil {
		c.Attributes = make([]Attribute, len(n.Attributes))
		for i, a := range n.Attributes {
			c.Attributes[i] = a.clone()
		}
	}
	return c
}

// DependencyCount returns the number of non-empty input slots.
// A name listed in two slots counts twice.
func (n *Node) DependencyCount() int {
	count := 0
	for _, in := range n.Inputs {
		if in != "" {
			count++
		}
	}
	return count
}

// ReplaceNodeInput rewrites every occurrence of oldName in n.Inputs to newName.
// Returns an error wrapping [ErrInvalidValueName] if either name is empty.
// Graph-level declarations and initializer names are never touched.
func ReplaceNodeInput(n *Node, oldName, newName string) error {
	if err := checkRename(oldName, newName); err != nil {
		return err
	}
	replaceAll(n.Inputs, oldName, newName)
	return nil
}

// ReplaceNodeOutput rewrites every occurrence of oldName in n.Outputs to newName.
// Returns an error wrapping [ErrInvalidValueName] if either name is empty.
func ReplaceNodeOutput(n *Node, oldName, newName string) error {
	if err := checkRename(oldName, newName); err != nil {
		return err
	}
	replaceAll(n.Outputs, oldName, newName)
	return nil
}

func replaceAll(names []string, oldName, newName string) {
	for i, name := range names {
		if name == oldName {
			names[i] = newName
		}
	}
}
