// Package starmatch computes, for a pair of stars, a distance and a list of
// candidate pairs derived from the optimal alignment of their edge
// sequences under a given heuristic.
package starmatch

import (
	"github.com/binref/graphmat"
	"github.com/binref/graphmat/graph"
	"github.com/binref/graphmat/heuristic"
	"github.com/binref/graphmat/levenshtein"
	"github.com/binref/graphmat/metadata"
)

// Match computes the distance between lhsStar and rhsStar under h, and the
// candidate pairs suggested by the optimal edit script between their edge
// sequences.
//
// The edit script is walked tail-to-head alongside the tail-to-head
// iteration of lhsStar's edges: a Noop or Substitute emits the pair at the
// current positions and advances both sides; a Delete advances only the
// left position (no emission); an Insert advances only the right position
// (no emission).
func Match(lhsStar, rhsStar graph.Star, h heuristic.Heuristic, lhsCode, rhsCode metadata.Code) (distance int, candidates []graphmat.Pair) {
	lhsEdges := lhsStar.Edges()
	rhsEdges := rhsStar.Edges()

	mat := h.Label(lhsEdges, rhsEdges, lhsCode, rhsCode)
	defer mat.Release()

	i, j := len(lhsEdges), len(rhsEdges)
	edits := mat.Edits()
	for {
		edit, ok := edits.Next()
		if !ok {
			break
		}
		switch edit.Kind {
		case levenshtein.Noop, levenshtein.Substitute:
			i--
			j--
			candidates = append(candidates, graphmat.Pair{Lhs: lhsEdges[i], Rhs: rhsEdges[j]})
		case levenshtein.Delete:
			i--
		case levenshtein.Insert:
			j--
		}
	}

	return mat.Distance(), candidates
}
