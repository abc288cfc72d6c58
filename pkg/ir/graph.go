package ir

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrCycle is returned by [Graph.TopologicalSort] when the nodes cannot
	// be linearized: the graph has a cycle, or some node input is produced
	// by nothing. The graph is structurally invalid and the caller should stop.
	ErrCycle = errors.New("graph contains a cycle or an unsatisfied dependency")

	// ErrInvalidValueName is returned by the rename operations when the old
	// or new value name is empty.
	ErrInvalidValueName = errors.New("value name must not be empty")

	// ErrUnsupportedTranspose is returned by [Tensor.Transposed] for tensors
	// that are not 2-D or whose data type has no fixed element size.
	ErrUnsupportedTranspose = errors.New("unsupported tensor transpose")
)

// Graph is an ordered node sequence plus initializers and declared
// inputs and outputs.
//
// The zero value is not usable - use NewGraph.
// Graph is not safe for concurrent use.
type Graph struct {
	Name string

	nodes   []*Node
	members map[NodeID]*Node
	nextID  NodeID

	inits     map[string]*Tensor
	initOrder []*Tensor

	inputs  []ValueInfo
	outputs []ValueInfo
}

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:    name,
		members: make(map[NodeID]*Node),
		inits:   make(map[string]*Tensor),
	}
}

func (g *Graph) attach(n *Node) NodeID {
	g.nextID++
	n.id = g.nextID
	n.owner = g
	g.members[n.id] = n
	return n.id
}

func detach(n *Node) {
	n.id = 0
	n.owner = nil
}

// AddNode appends n to the node sequence and returns its handle.
// No dependency validation is performed; use [Graph.TopologicalSort] to
// restore a valid order. Adding a node that is already in g is a no-op
// that returns the existing handle.
func (g *Graph) AddNode(n *Node) NodeID {
	if g.Contains(n) {
		return n.id
	}
	id := g.attach(n)
	g.nodes = append(g.nodes, n)
	return id
}

// AddNodes appends every node in order. See [Graph.AddNode].
func (g *Graph) AddNodes(nodes ...*Node) {
	for _, n := range nodes {
		g.AddNode(n)
	}
}

// Contains reports whether n is currently a member of g.
func (g *Graph) Contains(n *Node) bool {
	return n != nil && n.owner == g && g.members[n.id] == n
}

// RemoveNode removes n if it is a member of g and reports whether it did.
// Removing a node that is not in the graph is an intentional no-op.
func (g *Graph) RemoveNode(n *Node) bool {
	return g.RemoveNodes([]*Node{n}) == 1
}

// RemoveNodes removes every member of nodes from g and returns how many
// were removed. Non-members are skipped. The removal set is collected
// before the node sequence is rebuilt, so nodes may be any snapshot of
// g.Nodes().
func (g *Graph) RemoveNodes(nodes []*Node) int {
	drop := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		if g.Contains(n) {
			drop[n.id] = true
		}
	}
	if len(drop) == 0 {
		return 0
	}
	g.nodes = slices.DeleteFunc(g.nodes, func(n *Node) bool {
		if !drop[n.id] {
			return false
		}
		delete(g.members, n.id)
		detach(n)
		return true
	})
	return len(drop)
}

// SetNodes replaces the whole node sequence in one step. Members of g that
// appear in nodes keep their handles; nodes not listed are detached.
// A node listed twice is kept at its first position.
func (g *Graph) SetNodes(nodes []*Node) {
	keep := make(map[*Node]bool, len(nodes))
	next := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil || keep[n] {
			continue
		}
		keep[n] = true
		next = append(next, n)
	}
	for _, n := range g.nodes {
		if !keep[n] {
			delete(g.members, n.id)
			detach(n)
		}
	}
	for _, n := range next {
		if !g.Contains(n) {
			g.attach(n)
		}
	}
	g.nodes = next
}

// Nodes returns the node sequence. The slice is a copy but the nodes are
// live: editing a node's fields edits the graph.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Node returns the member with the given handle.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.members[id]
	return n, ok
}

// FindNodeByName returns the first node named name, searching the graph's
// nodes first and then extra (typically replacement nodes a pass has built
// but not inserted yet). Unnamed nodes never match.
func (g *Graph) FindNodeByName(name string, extra []*Node) (*Node, bool) {
	if name == "" {
		return nil, false
	}
	for _, candidates := range [][]*Node{g.nodes, extra} {
		for _, n := range candidates {
			if n.Name == name {
				return n, true
			}
		}
	}
	return nil, false
}

// FindNodesByInitializer returns the nodes that consume t as an input, in
// node order. A node that reads t through several input slots is listed
// once per slot.
func (g *Graph) FindNodesByInitializer(t *Tensor) []*Node {
	var nodes []*Node
	for _, n := range g.nodes {
		for _, in := range n.Inputs {
			if in == t.Name {
				nodes = append(nodes, n)
			}
		}
	}
	return nodes
}

// ReplaceInputOfAllNodes applies [ReplaceNodeInput] to every node.
func (g *Graph) ReplaceInputOfAllNodes(oldName, newName string) error {
	if err := checkRename(oldName, newName); err != nil {
		return err
	}
	for _, n := range g.nodes {
		replaceAll(n.Inputs, oldName, newName)
	}
	return nil
}

// ReplaceOutputOfAllNodes applies [ReplaceNodeOutput] to every node.
func (g *Graph) ReplaceOutputOfAllNodes(oldName, newName string) error {
	if err := checkRename(oldName, newName); err != nil {
		return err
	}
	for _, n := range g.nodes {
		replaceAll(n.Outputs, oldName, newName)
	}
	return nil
}

func checkRename(oldName, newName string) error {
	if oldName == "" || newName == "" {
		return fmt.Errorf("%w: rename %q -> %q", ErrInvalidValueName, oldName, newName)
	}
	return nil
}

// AddInitializer stores t unless an initializer with the same name already
// exists, and reports whether it was stored. The first write wins.
func (g *Graph) AddInitializer(t *Tensor) bool {
	if _, exists := g.inits[t.Name]; exists {
		return false
	}
	g.inits[t.Name] = t
	g.initOrder = append(g.initOrder, t)
	return true
}

// Initializer returns the initializer with the given name.
func (g *Graph) Initializer(name string) (*Tensor, bool) {
	t, ok := g.inits[name]
	return t, ok
}

// Initializers returns the initializers in insertion order.
func (g *Graph) Initializers() []*Tensor { return slices.Clone(g.initOrder) }

// InitializerNames returns the set of initializer names.
func (g *Graph) InitializerNames() map[string]struct{} {
	names := make(map[string]struct{}, len(g.inits))
	for name := range g.inits {
		names[name] = struct{}{}
	}
	return names
}

// RemoveInitializer removes the initializer named t.Name and the first
// graph input declared under the same name, and reports whether an
// initializer was removed.
func (g *Graph) RemoveInitializer(t *Tensor) bool {
	if _, ok := g.inits[t.Name]; !ok {
		return false
	}
	delete(g.inits, t.Name)
	g.initOrder = slices.DeleteFunc(g.initOrder, func(x *Tensor) bool { return x.Name == t.Name })
	g.RemoveInput(t.Name)
	return true
}

// RemoveInitializers removes each tensor independently and returns how
// many were removed. The batch is not atomic.
func (g *Graph) RemoveInitializers(ts []*Tensor) int {
	removed := 0
	for _, t := range ts {
		if g.RemoveInitializer(t) {
			removed++
		}
	}
	return removed
}

// AddInput declares a graph input.
func (g *Graph) AddInput(v ValueInfo) { g.inputs = append(g.inputs, v) }

// AddOutput declares a graph output.
func (g *Graph) AddOutput(v ValueInfo) { g.outputs = append(g.outputs, v) }

// Inputs returns a copy of the declared inputs.
func (g *Graph) Inputs() []ValueInfo { return slices.Clone(g.inputs) }

// Outputs returns a copy of the declared outputs.
func (g *Graph) Outputs() []ValueInfo { return slices.Clone(g.outputs) }

// RemoveInput removes the first input declared as name.
func (g *Graph) RemoveInput(name string) bool {
	i := slices.IndexFunc(g.inputs, func(v ValueInfo) bool { return v.Name == name })
	if i < 0 {
		return false
	}
	g.inputs = slices.Delete(g.inputs, i, i+1)
	return true
}

// RemoveOutput removes the first output declared as name.
func (g *Graph) RemoveOutput(name string) bool {
	i := slices.IndexFunc(g.outputs, func(v ValueInfo) bool { return v.Name == name })
	if i < 0 {
		return false
	}
	g.outputs = slices.Delete(g.outputs, i, i+1)
	return true
}

// NonInitializerInputs returns the declared input names not backed by an
// initializer, i.e. the values a caller must feed at run time.
func (g *Graph) NonInitializerInputs() map[string]struct{} {
	names := make(map[string]struct{})
	for _, in := range g.inputs {
		if _, ok := g.inits[in.Name]; !ok {
			names[in.Name] = struct{}{}
		}
	}
	return names
}

// IsGraphOutput reports whether name is a declared output.
func (g *Graph) IsGraphOutput(name string) bool {
	return slices.ContainsFunc(g.outputs, func(v ValueInfo) bool { return v.Name == name })
}

// Clone returns a deep copy of g with freshly assigned node handles.
func (g *Graph) Clone() *Graph {
	c := NewGraph(g.Name)
	for _, n := range g.nodes {
		c.AddNode(n.Clone())
	}
	for _, t := range g.initOrder {
		c.AddInitializer(t.Clone())
	}
	for _, v := range g.inputs {
		v.Shape = slices.Clone(v.Shape)
		c.inputs = append(c.inputs, v)
	}
	for _, v := range g.outputs {
		v.Shape = slices.Clone(v.Shape)
		c.outputs = append(c.outputs, v)
	}
	return c
}
