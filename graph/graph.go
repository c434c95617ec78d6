// Package graph implements the adjacency-list call graph the matcher reads
// stars from. Edges are ordered multi-edges: two edges from the same source
// to the same target are distinct and keep their relative call order.
package graph

import "github.com/binref/graphmat"

// Graph is a directed multigraph keyed by graphmat.Address, storing each
// vertex's out-edges in stable insertion order.
type Graph struct {
	edges map[graphmat.Address][]graphmat.Address
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{edges: make(map[graphmat.Address][]graphmat.Address)}
}

// AddEdge appends an edge from src to dst, preserving call order and
// duplicates. It also registers src as a vertex if this is its first edge.
func (g *Graph) AddEdge(src, dst graphmat.Address) {
	g.edges[src] = append(g.edges[src], dst)
}

// HasVertex reports whether v has ever been the source of an AddEdge call,
// or was registered directly via Touch.
func (g *Graph) HasVertex(v graphmat.Address) bool {
	_, ok := g.edges[v]
	return ok
}

// Touch registers v as a vertex with no outgoing edges yet, if it is not
// already known. Callers that discover a vertex before they know whether it
// has any out-edges (a leaf function, or a recursion guard during call-graph
// construction) use this instead of waiting for the first AddEdge.
func (g *Graph) Touch(v graphmat.Address) {
	if _, ok := g.edges[v]; !ok {
		g.edges[v] = nil
	}
}

// Star returns the vertex v together with its ordered out-neighbour
// sequence. Looking up a vertex that was never added as a source yields an
// empty star, not an error: a leaf function simply has no outgoing calls.
func (g *Graph) Star(v graphmat.Address) Star {
	return Star{vertex: v, edges: g.edges[v]}
}

// Star is a vertex and its outgoing edges, in call order.
type Star struct {
	vertex graphmat.Address
	edges  []graphmat.Address
}

// Vertex returns the star's vertex.
func (s Star) Vertex() graphmat.Address {
	return s.vertex
}

// Edges returns the ordered out-neighbour sequence. The returned slice
// reports its exact length via len() and must not be mutated by callers.
func (s Star) Edges() []graphmat.Address {
	return s.edges
}
