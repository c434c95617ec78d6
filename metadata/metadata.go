// Package metadata defines the contract the belief propagator and
// heuristics rely on to read call graphs and function sizes. Concrete
// implementations — a real ELF-backed one in objfile, and hand-built ones in
// tests — satisfy these interfaces; the core matcher packages never depend
// on how the data was produced.
package metadata

import (
	"github.com/binref/graphmat"
	"github.com/binref/graphmat/graph"
)

// Function is the per-function metadata the core reads. The only attribute
// it cares about is the opcode count.
type Function interface {
	OpcodeCount() int
}

// Code is the per-side collaborator contract: a call graph, a function
// lookup, an entrypoint, and the text-section base address used to report
// absolute addresses at the boundary.
type Code interface {
	CallGraph() *graph.Graph
	Function(addr graphmat.Address) (Function, bool)
	Entry() graphmat.Address
	TextBase() graphmat.Address
}
