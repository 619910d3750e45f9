// Package tree assembles the flat root-cause rows of one problem into an
// ordered forest and walks it depth first.
//
// Nodes are kept in an arena sorted by (CreatedAt, ID) and linked by index,
// so every node belongs to exactly one list and a corrupted parent cycle can
// never be followed forever.
package tree

import (
	"sort"

	"github.com/aquilax/eightd/node"
)

// Item is the nested view of a node, used when serialising the tree.
type Item struct {
	node.Node
	Children []*Item `json:"children"`
}

// Forest is the result of a single build.
type Forest struct {
	nodes       node.NodeList
	children    [][]int
	roots       []int
	dangling    []node.NodeID
	unreachable []node.NodeID
}

// Build sorts a deep copy of nl and links every node to its parent. Nodes without
// a parent, or whose parent is not part of nl, become roots. The input is not
// modified.
func Build(nl node.NodeList) *Forest {
	f := &Forest{
		nodes:    nl.Clone(),
		children: make([][]int, len(nl)),
	}
	sort.SliceStable(f.nodes, func(i, j int) bool {
		return f.nodes[i].Less(f.nodes[j])
	})

	index := make(map[node.NodeID]int, len(f.nodes))
	for i, n := range f.nodes {
		// ids are unique per problem; a repeated id keeps its first row
		if _, found := index[n.ID]; !found {
			index[n.ID] = i
		}
	}

	for i, n := range f.nodes {
		if index[n.ID] != i {
			continue
		}
		if n.ParentID == nil {
			f.roots = append(f.roots, i)
			continue
		}
		parent, found := index[*n.ParentID]
		if !found {
			f.dangling = append(f.dangling, n.ID)
			f.roots = append(f.roots, i)
			continue
		}
		f.children[parent] = append(f.children[parent], i)
	}

	seen := make([]bool, len(f.nodes))
	f.walk(func(i, _ int) bool {
		seen[i] = true
		return true
	})
	for i, n := range f.nodes {
		if !seen[i] && index[n.ID] == i {
			f.unreachable = append(f.unreachable, n.ID)
		}
	}
	return f
}

// BuildTree returns the nested roots of nl.
func BuildTree(nl node.NodeList) []*Item {
	return Build(nl).Roots()
}

// Flatten returns the nodes of nl in pre-order: every node is followed by
// all of its descendants before the next sibling.
func Flatten(nl node.NodeList) node.NodeList {
	return Build(nl).Flatten()
}

// Roots materialises the nested view. Each call returns fresh items.
func (f *Forest) Roots() []*Item {
	roots := make([]*Item, 0, len(f.roots))
	for _, i := range f.roots {
		roots = append(roots, f.item(i))
	}
	return roots
}

func (f *Forest) item(i int) *Item {
	it := &Item{
		Node:     f.nodes[i].Clone(),
		Children: make([]*Item, 0, len(f.children[i])),
	}
	for _, c := range f.children[i] {
		it.Children = append(it.Children, f.item(c))
	}
	return it
}

// Flatten returns the reachable nodes in pre-order.
func (f *Forest) Flatten() node.NodeList {
	nl := make(node.NodeList, 0, len(f.nodes))
	f.Walk(func(n node.Node, _ int) bool {
		nl = append(nl, n)
		return true
	})
	return nl
}

// Walk visits the forest in pre-order, passing a copy of each node with its depth
// (roots are at depth 0). Returning false from fn skips the node's subtree.
func (f *Forest) Walk(fn func(n node.Node, depth int) bool) {
	f.walk(func(i, depth int) bool {
		return fn(f.nodes[i].Clone(), depth)
	})
}

func (f *Forest) walk(fn func(i, depth int) bool) {
	type frame struct{ i, depth int }
	stack := make([]frame, 0, len(f.roots))
	for r := len(f.roots) - 1; r >= 0; r-- {
		stack = append(stack, frame{f.roots[r], 0})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.i, top.depth) {
			continue
		}
		kids := f.children[top.i]
		for c := len(kids) - 1; c >= 0; c-- {
			stack = append(stack, frame{kids[c], top.depth + 1})
		}
	}
}

// Len is the number of nodes reachable from a root.
func (f *Forest) Len() int {
	total := 0
	f.walk(func(int, int) bool {
		total++
		return true
	})
	return total
}

// Dangling lists the ids of nodes whose parent was missing from the input
// and which were promoted to roots.
func (f *Forest) Dangling() []node.NodeID {
	return f.dangling
}

// Unreachable lists the ids of nodes caught in a parent cycle. They appear
// neither as roots nor as children.
func (f *Forest) Unreachable() []node.NodeID {
	return f.unreachable
}
