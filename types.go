// Package graphmat computes a correspondence between functions in two
// x86-64 object files by matching their call graphs.
//
// The package itself only exposes the shared address/pair vocabulary used
// across the matcher's subpackages (graph, heuristic, starmatch,
// beliefprop, metadata). Object-file loading lives in objfile,
// CSV/seed-file rendering lives in report, and the command-line front end
// lives in cmd/graphmat.
package graphmat

// Address identifies a function by its offset relative to the start of the
// text section it belongs to. Absolute addresses only appear at the
// objfile/report boundary.
type Address uint64

// Pair is an ordered correspondence between a left-hand and a right-hand
// address.
type Pair struct {
	Lhs Address
	Rhs Address
}
