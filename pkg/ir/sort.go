package ir

import (
	"fmt"
	"slices"
	"strings"
)

// maxReportedNodes caps how many unscheduled nodes a sort error lists.
const maxReportedNodes = 8

// TopologicalSort reorders the node sequence so every node follows the
// producers of its inputs.
//
// # Algorithm
//
// TopologicalSort is a single-pass Kahn scan:
//  1. Each node's dependency count is its number of non-empty input slots.
//  2. Nodes with no dependencies are scheduled first, in their current order.
//  3. Graph input and initializer names are sorted, deduplicated, and each
//     one releases the nodes waiting on it.
//  4. A cursor walks the growing schedule; each scheduled node's outputs
//     release the nodes waiting on them.
//
// # Ordering
//
// Among independent nodes the order is whichever became ready first under
// this scan. That is not a canonical order, but it is stable: the same
// input order always produces the same result.
//
// # Errors
//
// If some node is never released the graph has a cycle or an input that
// nothing produces. TopologicalSort returns an error wrapping [ErrCycle]
// and leaves the node sequence unchanged.
//
// # Performance
//
// Time and space are O(V + I) where I is the total number of input slots.
func (g *Graph) TopologicalSort() error {
	deps := make([]int, len(g.nodes))
	waiting := make(map[string][]int)
	sorted := make([]int, 0, len(g.nodes))

	for i, n := range g.nodes {
		deps[i] = n.DependencyCount()
		if deps[i] == 0 {
			sorted = append(sorted, i)
			continue
		}
		for _, in := range n.Inputs {
			if in != "" {
				waiting[in] = append(waiting[in], i)
			}
		}
	}

	release := func(name string) {
		for _, i := range waiting[name] {
			deps[i]--
			if deps[i] == 0 {
				sorted = append(sorted, i)
			}
		}
	}

	free := make([]string, 0, len(g.inputs)+len(g.initOrder))
	for _, in := range g.inputs {
		free = append(free, in.Name)
	}
	for _, t := range g.initOrder {
		free = append(free, t.Name)
	}
	slices.Sort(free)
	for _, name := range slices.Compact(free) {
		release(name)
	}

	for cursor := 0; cursor < len(sorted); cursor++ {
		for _, out := range g.nodes[sorted[cursor]].Outputs {
			if out != "" {
				release(out)
			}
		}
	}

	if len(sorted) != len(g.nodes) {
		return g.unscheduledError(deps, len(sorted))
	}

	next := make([]*Node, len(sorted))
	for i, idx := range sorted {
		next[i] = g.nodes[idx]
	}
	g.nodes = next
	return nil
}

func (g *Graph) unscheduledError(deps []int, scheduled int) error {
	var names []string
	for i, n := range g.nodes {
		if deps[i] <= 0 {
			continue
		}
		if len(names) == maxReportedNodes {
			names = append(names, "...")
			break
		}
		names = append(names, describeNode(n))
	}
	return fmt.Errorf("%w: scheduled %d of %d nodes, blocked: %s",
		ErrCycle, scheduled, len(g.nodes), strings.Join(names, ", "))
}

func describeNode(n *Node) string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s)", n.OpType, n.Name)
	}
	return fmt.Sprintf("%s#%d", n.OpType, n.id)
}

// IsTopologicallySorted reports whether every non-empty input of every
// node is a graph input, an initializer, or an output of an earlier node.
func IsTopologicallySorted(g *Graph) bool {
	available := make(map[string]bool, len(g.inputs)+len(g.inits))
	for _, in := range g.inputs {
		available[in.Name] = true
	}
	for name := range g.inits {
		available[name] = true
	}
	for _, n := range g.nodes {
		for _, in := range n.Inputs {
			if in != "" && !available[in] {
				return false
			}
		}
		for _, out := range n.Outputs {
			available[out] = true
		}
	}
	return true
}
