package dsl

import "sort"

// ProcessNode is a named node with reserved-key attributes, created on
// first mention of its name and immutable once execution begins
// (spec.md §3).
type ProcessNode struct {
	Name       string
	Attributes map[Key]string
}

// Edge is a directed edge with a globally monotonic insertion order,
// used to break ties when a job selects a successor by status index
// (spec.md §3, §4.7).
type Edge struct {
	Src, Dst int
	Order    int
}

// Graph is the parsed, in-memory execution graph: a node set, an edge
// set, and a name index for O(1) node lookup (spec.md §3).
type Graph struct {
	Name        string
	HasName     bool
	Nodes       []ProcessNode
	Edges       []Edge
	nameIndex   map[string]int
	edgeCounter int
}

// NewGraph returns an empty graph ready for incremental construction
// by the parser.
func NewGraph() *Graph {
	return &Graph{nameIndex: make(map[string]int)}
}

// GetOrCreateNode returns the index of the node named name, creating
// it (with empty attributes) if this is the first mention.
func (g *Graph) GetOrCreateNode(name string) int {
	if idx, ok := g.nameIndex[name]; ok {
		return idx
	}
	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, ProcessNode{Name: name, Attributes: make(map[Key]string)})
	g.nameIndex[name] = idx
	return idx
}

// NodeByName looks up a node index by name.
func (g *Graph) NodeByName(name string) (int, bool) {
	idx, ok := g.nameIndex[name]
	return idx, ok
}

// SetAttributes replaces a node's attribute map. Called by the parser
// when a node appears in bracket form.
func (g *Graph) SetAttributes(nodeIdx int, attrs map[Key]string) {
	g.Nodes[nodeIdx].Attributes = attrs
}

// AddEdge adds a directed edge src->dst if one does not already exist
// between that ordered pair, assigning it the next global order slot.
// Duplicate edges are suppressed; the first insertion wins the order
// counter slot (spec.md §4.6).
func (g *Graph) AddEdge(src, dst int) {
	for _, e := range g.Edges {
		if e.Src == src && e.Dst == dst {
			return
		}
	}
	g.Edges = append(g.Edges, Edge{Src: src, Dst: dst, Order: g.edgeCounter})
	g.edgeCounter++
}

// Roots returns the indices of nodes with in-degree zero, in node
// insertion order.
func (g *Graph) Roots() []int {
	incoming := make([]bool, len(g.Nodes))
	for _, e := range g.Edges {
		incoming[e.Dst] = true
	}
	var roots []int
	for i := range g.Nodes {
		if !incoming[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// OutgoingSorted returns the edges leaving nodeIdx, sorted ascending
// by Order (spec.md §4.7 tie-break rule).
func (g *Graph) OutgoingSorted(nodeIdx int) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Src == nodeIdx {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Merge combines g and other into a new graph: the node set is the
// union by name (later-graph attributes win on a name collision), the
// edge set is the union with a fresh, stable global order, and the
// name is retained only if both inputs are named identically
// (spec.md §3).
func Merge(g, other *Graph) *Graph {
	merged := NewGraph()

	if g.HasName && other.HasName && g.Name == other.Name {
		merged.Name, merged.HasName = g.Name, true
	}

	remap := func(src *Graph) map[int]int {
		m := make(map[int]int, len(src.Nodes))
		for i, n := range src.Nodes {
			idx := merged.GetOrCreateNode(n.Name)
			merged.SetAttributes(idx, n.Attributes)
			m[i] = idx
		}
		return m
	}

	gRemap := remap(g)
	otherRemap := remap(other)

	for _, e := range g.Edges {
		merged.AddEdge(gRemap[e.Src], gRemap[e.Dst])
	}
	for _, e := range other.Edges {
		merged.AddEdge(otherRemap[e.Src], otherRemap[e.Dst])
	}

	return merged
}
