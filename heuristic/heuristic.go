// Package heuristic implements the edge-distance labelling heuristics that
// turn two stars' target-address sequences into comparable integer label
// sequences, then hands them to levenshtein to produce a distance matrix.
//
// Two edges receive the same label under a heuristic iff that heuristic
// considers them "the same kind"; a smaller resulting distance means
// stronger structural similarity between the two stars.
package heuristic

import (
	"math"
	"sort"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/levenshtein"
	"github.com/binref/graphmat/metadata"
)

// Heuristic maps the two edge sequences of a star pair to a Levenshtein
// matrix over comparable labels.
type Heuristic interface {
	Label(lhsEdges, rhsEdges []graphmat.Address, lhsCode, rhsCode metadata.Code) *levenshtein.Matrix
}

// CallOrder labels each edge by the rank at which its target address was
// first observed in its side's sequence, independently per side. This turns
// the neighbour sequence into a canonical call-order fingerprint invariant
// to absolute target identity.
type CallOrder struct{}

// Label implements Heuristic.
func (CallOrder) Label(lhsEdges, rhsEdges []graphmat.Address, _, _ metadata.Code) *levenshtein.Matrix {
	return levenshtein.NewMatrix(firstOccurrenceRanks(lhsEdges), firstOccurrenceRanks(rhsEdges))
}

func firstOccurrenceRanks(addrs []graphmat.Address) []int {
	firstRank := make(map[graphmat.Address]int, len(addrs))
	labels := make([]int, len(addrs))
	counter := 0
	for i, a := range addrs {
		rank, ok := firstRank[a]
		if !ok {
			rank = counter
			counter++
			firstRank[a] = rank
		}
		labels[i] = rank
	}
	return labels
}

// RelativeCodeSize labels edges so that edges whose targets have similar
// opcode counts receive the same label across the two sides: each side's
// targets are weighted by opcode-count / max-opcode-count on that side and
// sorted by weight, then walked in parallel, greedily pairing each left
// weight with the closest remaining right weight.
type RelativeCodeSize struct{}

// Label implements Heuristic.
func (RelativeCodeSize) Label(lhsEdges, rhsEdges []graphmat.Address, lhsCode, rhsCode metadata.Code) *levenshtein.Matrix {
	labelsL, labelsR := relativeCodeSizeLabels(lhsEdges, rhsEdges, lhsCode, rhsCode)
	return levenshtein.NewMatrix(labelsL, labelsR)
}

type indexWeight struct {
	index  int
	weight float64
}

func weightsFor(addrs []graphmat.Address, code metadata.Code) []indexWeight {
	lens := make([]int, len(addrs))
	maxLen := 0
	for i, a := range addrs {
		n := 0
		if fn, ok := code.Function(a); ok {
			n = fn.OpcodeCount()
		}
		lens[i] = n
		if n > maxLen {
			maxLen = n
		}
	}

	out := make([]indexWeight, len(addrs))
	for i, n := range lens {
		w := 0.0
		if maxLen != 0 {
			w = float64(n) / float64(maxLen)
		}
		out[i] = indexWeight{index: i, weight: w}
	}

	// Sort by weight ascending; ties broken by the bit pattern of the
	// float via a stable sort, so equal weights keep their relative order.
	sort.SliceStable(out, func(i, j int) bool {
		return math.Float64bits(out[i].weight) < math.Float64bits(out[j].weight)
	})
	return out
}

const unassigned = -1

func relativeCodeSizeLabels(lhsAddrs, rhsAddrs []graphmat.Address, lhsCode, rhsCode metadata.Code) (labelsL, labelsR []int) {
	lhsWeights := weightsFor(lhsAddrs, lhsCode)
	rhsWeights := weightsFor(rhsAddrs, rhsCode)

	labelsL = make([]int, len(lhsAddrs))
	labelsR = make([]int, len(rhsAddrs))
	for i := range labelsL {
		labelsL[i] = unassigned
	}
	for i := range labelsR {
		labelsR[i] = unassigned
	}

	counter := 0
	rhsPos := 0
	for _, l := range lhsWeights {
		if rhsPos >= len(rhsWeights) {
			break
		}
		i2 := rhsWeights[rhsPos].index
		w2 := rhsWeights[rhsPos].weight
		rhsPos++

		diff := math.Abs(l.weight - w2)
		// The threshold diff is intentionally never updated while we
		// swallow tighter neighbours on the right: this matches the
		// upstream algorithm's behaviour exactly.
		for rhsPos < len(rhsWeights) && math.Abs(l.weight-rhsWeights[rhsPos].weight) < diff {
			i2 = rhsWeights[rhsPos].index
			rhsPos++
		}

		labelsL[l.index] = l.index
		labelsR[i2] = l.index
		if l.index > counter {
			counter = l.index
		}
		counter++
	}

	for i, lab := range labelsL {
		if lab == unassigned {
			labelsL[i] = counter
			counter++
		}
	}
	for i, lab := range labelsR {
		if lab == unassigned {
			labelsR[i] = counter
			counter++
		}
	}

	return labelsL, labelsR
}

// Combined runs both sub-heuristics and returns whichever matrix scores a
// smaller distance; ties favour the first heuristic. The losing matrix's
// scratch buffer is released immediately since it plays no further part in
// this star match.
type Combined struct {
	First, Second Heuristic
}

// Label implements Heuristic.
func (c Combined) Label(lhsEdges, rhsEdges []graphmat.Address, lhsCode, rhsCode metadata.Code) *levenshtein.Matrix {
	mat1 := c.First.Label(lhsEdges, rhsEdges, lhsCode, rhsCode)
	mat2 := c.Second.Label(lhsEdges, rhsEdges, lhsCode, rhsCode)

	if mat1.Distance() <= mat2.Distance() {
		mat2.Release()
		return mat1
	}
	mat1.Release()
	return mat2
}
