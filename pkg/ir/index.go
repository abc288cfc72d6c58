package ir

// Index maps value names to the nodes that consume and produce them.
// It is a snapshot of the node sequence at the time [NewIndex] ran and is
// invalidated by any add, remove, or rename on the graph.
type Index struct {
	consumers map[string][]*Node
	producers map[string]*Node
}

// NewIndex builds both lookup tables in one pass over g's nodes.
//
// Consumers preserve node order, and a node is listed once per name even
// when it reads that name through several input slots. If two nodes claim
// the same output name the later one wins; that invariant is not checked here.
func NewIndex(g *Graph) *Index {
	idx := &Index{
		consumers: make(map[string][]*Node),
		producers: make(map[string]*Node),
	}
	for _, n := range g.nodes {
		for i, in := range n.Inputs {
			if in == "" || readsBefore(n.Inputs[:i], in) {
				continue
			}
			idx.consumers[in] = append(idx.consumers[in], n)
		}
		for _, out := range n.Outputs {
			if out != "" {
				idx.producers[out] = n
			}
		}
	}
	return idx
}

func readsBefore(names []string, name string) bool {
	for _, s := range names {
		if s == name {
			return true
		}
	}
	return false
}

// Consumers returns the nodes that read name. The returned slice should
// not be modified.
func (x *Index) Consumers(name string) []*Node { return x.consumers[name] }

// IsConsumed reports whether any node reads name.
func (x *Index) IsConsumed(name string) bool { return len(x.consumers[name]) > 0 }

// Producer returns the node that writes name.
func (x *Index) Producer(name string) (*Node, bool) {
	n, ok := x.producers[name]
	return n, ok
}

func (g *Graph) index(idx *Index) *Index {
	if idx == nil {
		return NewIndex(g)
	}
	return idx
}

// Children returns the nodes consuming any output of n. A node reading
// two outputs of n appears twice. If idx is nil a fresh index is built.
func (g *Graph) Children(n *Node, idx *Index) []*Node {
	idx = g.index(idx)
	var children []*Node
	for _, out := range n.Outputs {
		if out == "" {
			continue
		}
		children = append(children, idx.Consumers(out)...)
	}
	return children
}

// Parents returns the producers of n's inputs, one entry per input slot
// that has a producing node. Graph inputs and initializers have no
// producer. If idx is nil a fresh index is built.
func (g *Graph) Parents(n *Node, idx *Index) []*Node {
	idx = g.index(idx)
	var parents []*Node
	for _, in := range n.Inputs {
		if in == "" {
			continue
		}
		if p, ok := idx.Producer(in); ok {
			parents = append(parents, p)
		}
	}
	return parents
}

// Parent returns the producer of n's input at position i. It reports
// false when i is out of range, the slot is an omitted optional input, or
// the value comes from a graph input or initializer.
func (g *Graph) Parent(n *Node, i int, idx *Index) (*Node, bool) {
	if i < 0 || i >= len(n.Inputs) || n.Inputs[i] == "" {
		return nil, false
	}
	return g.index(idx).Producer(n.Inputs[i])
}
