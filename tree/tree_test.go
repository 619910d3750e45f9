package tree

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/aquilax/eightd/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func n(id node.NodeID, parent *node.NodeID, minute int) node.Node {
	return node.Node{
		ID:          id,
		ParentID:    parent,
		ProblemID:   7,
		Description: "cause",
		CreatedAt:   at(minute),
	}
}

func ids(items []*Item) []node.NodeID {
	out := make([]node.NodeID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func flatIDs(nl node.NodeList) []node.NodeID {
	out := make([]node.NodeID, 0, len(nl))
	for _, n := range nl {
		out = append(out, n.ID)
	}
	return out
}

// shape renders parent/child relations and sibling order as a comparable value.
func shape(items []*Item) map[node.NodeID][]node.NodeID {
	out := map[node.NodeID][]node.NodeID{}
	var visit func(parent node.NodeID, items []*Item)
	visit = func(parent node.NodeID, items []*Item) {
		out[parent] = ids(items)
		for _, it := range items {
			visit(it.ID, it.Children)
		}
	}
	visit(0, items)
	return out
}

func sample() node.NodeList {
	return node.NodeList{
		n(1, nil, 1),
		n(2, node.Parent(1), 2),
		n(3, node.Parent(1), 3),
		n(4, node.Parent(99), 4),
		n(5, node.Parent(2), 5),
		n(6, nil, 0),
		n(7, node.Parent(6), 6),
	}
}

func TestBuildTreeExampleScenario(t *testing.T) {
	nl := node.NodeList{
		{ID: 1, Description: "A", CreatedAt: at(1)},
		{ID: 2, ParentID: node.Parent(1), Description: "B", CreatedAt: at(2)},
		{ID: 3, ParentID: node.Parent(1), Description: "C", CreatedAt: at(3)},
		{ID: 4, ParentID: node.Parent(99), Description: "D", CreatedAt: at(4)},
	}
	roots := BuildTree(nl)
	require.Len(t, roots, 2)
	assert.Equal(t, []node.NodeID{1, 4}, ids(roots))
	assert.Equal(t, []node.NodeID{2, 3}, ids(roots[0].Children))
	assert.Empty(t, roots[1].Children)
	assert.Equal(t, "B", roots[0].Children[0].Description)
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
	assert.Empty(t, BuildTree(node.NodeList{}))
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten(node.NodeList{}))

	b, err := json.Marshal(BuildTree(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestBuildTreeSiblingOrder(t *testing.T) {
	t.Run("created at decides", func(t *testing.T) {
		nl := node.NodeList{
			n(1, nil, 0),
			n(20, node.Parent(1), 2),
			n(10, node.Parent(1), 1),
			n(30, node.Parent(1), 3),
		}
		roots := BuildTree(nl)
		require.Len(t, roots, 1)
		assert.Equal(t, []node.NodeID{10, 20, 30}, ids(roots[0].Children))
	})

	t.Run("id breaks ties", func(t *testing.T) {
		nl := node.NodeList{
			n(1, nil, 0),
			n(5, node.Parent(1), 1),
			n(3, node.Parent(1), 1),
		}
		roots := BuildTree(nl)
		require.Len(t, roots, 1)
		assert.Equal(t, []node.NodeID{3, 5}, ids(roots[0].Children))
	})

	t.Run("roots follow the same order", func(t *testing.T) {
		nl := node.NodeList{n(9, nil, 5), n(2, nil, 5), n(4, nil, 1)}
		assert.Equal(t, []node.NodeID{4, 2, 9}, ids(BuildTree(nl)))
	})
}

func TestBuildTreeIgnoresInputOrder(t *testing.T) {
	base := sample()
	want := shape(BuildTree(base))
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		nl := make(node.NodeList, len(base))
		copy(nl, base)
		r.Shuffle(len(nl), func(i, j int) { nl[i], nl[j] = nl[j], nl[i] })
		assert.Equal(t, want, shape(BuildTree(nl)))
	}
}

func TestBuildTreeRootPromotion(t *testing.T) {
	f := Build(sample())
	assert.Equal(t, []node.NodeID{6, 1, 4}, ids(f.Roots()))
	assert.Equal(t, []node.NodeID{4}, f.Dangling())
	assert.Empty(t, f.Unreachable())
	assert.Equal(t, 7, f.Len())
}

func TestBuildTreeDoesNotTouchInput(t *testing.T) {
	nl := sample()
	before := make(node.NodeList, len(nl))
	copy(before, nl)
	roots := BuildTree(nl)
	assert.Equal(t, before, nl)

	roots[0].Description = "changed"
	assert.Equal(t, before, nl)

	again := BuildTree(nl)
	assert.Equal(t, "cause", again[0].Description)
}

func TestBuildTreeCopiesOptionalFields(t *testing.T) {
	name := "Ana"
	author := node.UserID(3)
	nl := node.NodeList{
		{ID: 1, Description: "motor", CreatedAt: at(0), AuthorID: &author, AuthorName: &name},
		{ID: 2, ParentID: node.Parent(1), Description: "fan", CreatedAt: at(1), AuthorID: &author, AuthorName: &name},
	}

	f := Build(nl)
	roots := f.Roots()
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	child := roots[0].Children[0]
	*roots[0].AuthorName = "changed"
	*roots[0].AuthorID = 99
	*child.ParentID = 42
	assert.Equal(t, "Ana", *nl[0].AuthorName)
	assert.Equal(t, node.UserID(3), *nl[0].AuthorID)
	assert.Equal(t, node.NodeID(1), *nl[1].ParentID)

	again := f.Roots()
	assert.Equal(t, "Ana", *again[0].AuthorName)
	assert.Equal(t, node.NodeID(1), *again[0].Children[0].ParentID)

	flat := f.Flatten()
	*flat[1].ParentID = 42
	*flat[1].AuthorName = "changed"
	assert.Equal(t, node.NodeID(1), *nl[1].ParentID)
	assert.Equal(t, "Ana", *nl[1].AuthorName)
	assert.Equal(t, node.NodeID(1), *f.Flatten()[1].ParentID)
}

func TestBuildTreeCarriesFields(t *testing.T) {
	name := "Ana"
	author := node.UserID(3)
	nl := node.NodeList{{
		ID:          1,
		ProblemID:   7,
		Description: "worn bearing",
		CreatedAt:   at(0),
		AuthorID:    &author,
		AuthorName:  &name,
		IsRootCause: true,
	}}
	roots := BuildTree(nl)
	require.Len(t, roots, 1)
	assert.Equal(t, nl[0], roots[0].Node)
}

func TestBuildTreeCycles(t *testing.T) {
	nl := node.NodeList{
		n(1, nil, 0),
		n(2, node.Parent(1), 1),
		n(3, node.Parent(4), 2),
		n(4, node.Parent(3), 3),
		n(5, node.Parent(5), 4),
		n(6, node.Parent(4), 5),
	}
	f := Build(nl)
	assert.Equal(t, []node.NodeID{1}, ids(f.Roots()))
	assert.Equal(t, 2, f.Len())
	assert.ElementsMatch(t, []node.NodeID{3, 4, 5, 6}, f.Unreachable())
	assert.Equal(t, []node.NodeID{1, 2}, flatIDs(f.Flatten()))
}

func TestBuildTreeConservation(t *testing.T) {
	nl := sample()
	f := Build(nl)
	seen := map[node.NodeID]int{}
	f.Walk(func(n node.Node, _ int) bool {
		seen[n.ID]++
		return true
	})
	assert.Len(t, seen, len(nl))
	for id, count := range seen {
		assert.Equal(t, 1, count, "node %d", id)
	}
}

func TestFlatten(t *testing.T) {
	nl := sample()
	flat := Flatten(nl)
	assert.Equal(t, []node.NodeID{6, 7, 1, 2, 5, 3, 4}, flatIDs(flat))
	assert.Len(t, flat, len(nl))

	var preorder []node.NodeID
	var visit func(items []*Item)
	visit = func(items []*Item) {
		for _, it := range items {
			preorder = append(preorder, it.ID)
			visit(it.Children)
		}
	}
	visit(BuildTree(nl))
	assert.Equal(t, preorder, flatIDs(flat))
}

func TestWalkDepthAndPruning(t *testing.T) {
	f := Build(sample())
	depths := map[node.NodeID]int{}
	f.Walk(func(n node.Node, depth int) bool {
		depths[n.ID] = depth
		return n.ID != 2
	})
	assert.Equal(t, map[node.NodeID]int{6: 0, 7: 1, 1: 0, 2: 1, 3: 1, 4: 0}, depths)
}

func TestItemJSON(t *testing.T) {
	nl := node.NodeList{
		{ID: 1, Description: "A", CreatedAt: t0},
		{ID: 2, ParentID: node.Parent(1), Description: "B", CreatedAt: t0, IsRootCause: true},
	}
	b, err := json.Marshal(BuildTree(nl))
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": 1, "parentId": null, "description": "A", "createdAt": "2024-03-01T09:00:00Z",
		"authorId": null, "authorName": null, "isRootCause": false,
		"children": [{
			"id": 2, "parentId": 1, "description": "B", "createdAt": "2024-03-01T09:00:00Z",
			"authorId": null, "authorName": null, "isRootCause": true, "children": []
		}]
	}]`, string(b))
}
