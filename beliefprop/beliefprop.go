// Package beliefprop implements the best-first belief-propagation matcher:
// starting from a seed set of known-good pairs, it repeatedly commits the
// lowest-distance pending pair to the matching and schedules the candidate
// pairs its star match proposed, until no pending work remains.
package beliefprop

import (
	"container/heap"
	"sort"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/heuristic"
	"github.com/binref/graphmat/metadata"
	"github.com/binref/graphmat/starmatch"
)

// Mapping is the committed correspondence returned by Match, reported as
// absolute addresses ascending by the left-hand address.
type Mapping struct {
	relative         []graphmat.Pair
	lhsBase, rhsBase graphmat.Address
}

// Pairs returns the committed pairs as absolute addresses, ascending by
// lhs.
func (m Mapping) Pairs() []graphmat.Pair {
	out := make([]graphmat.Pair, len(m.relative))
	for i, p := range m.relative {
		out[i] = graphmat.Pair{Lhs: p.Lhs + m.lhsBase, Rhs: p.Rhs + m.rhsBase}
	}
	return out
}

// matching is the committed one-to-one correspondence. It is realized as a
// forward map (O(1) "does a already have a match" lookup, standing in for
// an ordered-set range query on the first component, which collapses to a
// plain existence check since the matching is a function) plus a reverse
// set for membership of R. See DESIGN.md for the open-question resolution.
type matching struct {
	forward map[graphmat.Address]graphmat.Address
	reverse map[graphmat.Address]struct{}
}

func newMatching() *matching {
	return &matching{
		forward: make(map[graphmat.Address]graphmat.Address),
		reverse: make(map[graphmat.Address]struct{}),
	}
}

func (m *matching) commit(p graphmat.Pair) {
	m.forward[p.Lhs] = p.Rhs
	m.reverse[p.Rhs] = struct{}{}
}

func (m *matching) hasFirst(a graphmat.Address) bool {
	_, ok := m.forward[a]
	return ok
}

func (m *matching) hasSecond(b graphmat.Address) bool {
	_, ok := m.reverse[b]
	return ok
}

func (m *matching) pairs() []graphmat.Pair {
	out := make([]graphmat.Pair, 0, len(m.forward))
	for a, b := range m.forward {
		out = append(out, graphmat.Pair{Lhs: a, Rhs: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lhs < out[j].Lhs })
	return out
}

// pendingItem is one entry of the priority queue: a candidate pair, the
// distance its star match scored, and the further candidates it proposed.
type pendingItem struct {
	pair       graphmat.Pair
	distance   int
	candidates []graphmat.Pair
	seq        int // FIFO tie-break: lower sequence number popped first
}

// pendingQueue is a min-heap over pendingItem ordered by ascending
// distance; ties are broken by submission order, a documented FIFO
// tie-break policy that keeps runs deterministic.
type pendingQueue []*pendingItem

func (q pendingQueue) Len() int { return len(q) }
func (q pendingQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].seq < q[j].seq
}
func (q pendingQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pendingQueue) Push(x any)   { *q = append(*q, x.(*pendingItem)) }
func (q *pendingQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Match runs the belief-propagation matcher over lhs and rhs, seeded by
// seeds, using h to score star pairs. It is total: given well-formed
// metadata it always returns, never errors.
func Match(lhs, rhs metadata.Code, seeds []graphmat.Pair, h heuristic.Heuristic) Mapping {
	computed := make(map[graphmat.Pair]struct{})
	pending := &pendingQueue{}
	heap.Init(pending)
	seq := 0

	submit := func(p graphmat.Pair) {
		lhsStar := lhs.CallGraph().Star(p.Lhs)
		rhsStar := rhs.CallGraph().Star(p.Rhs)
		dist, cands := starmatch.Match(lhsStar, rhsStar, h, lhs, rhs)
		computed[p] = struct{}{}
		heap.Push(pending, &pendingItem{pair: p, distance: dist, candidates: cands, seq: seq})
		seq++
	}

	// Duplicate seeds are tolerated: both land in the queue and are
	// dedup-filtered when committed, below.
	for _, p := range seeds {
		submit(p)
	}

	m := newMatching()
	// committed maps a committed pair (and its swap) to the submission
	// counter at the time of the commit.
	committed := make(map[graphmat.Pair]int)

	for pending.Len() > 0 {
		item := heap.Pop(pending).(*pendingItem)
		p := item.pair
		swapped := graphmat.Pair{Lhs: p.Rhs, Rhs: p.Lhs}

		// Equivalent to purging every remaining queue entry for p or
		// its swap at commit time: an entry for either that was queued
		// before that commit is a stale duplicate and is silently skipped.
		if mark, done := committed[p]; done && item.seq < mark {
			continue
		}
		if mark, done := committed[swapped]; done && item.seq < mark {
			continue
		}

		m.commit(p)
		committed[p] = seq
		committed[swapped] = seq

		for _, q := range item.candidates {
			if _, ok := computed[q]; ok {
				continue
			}
			if m.hasFirst(q.Lhs) {
				continue
			}
			if m.hasSecond(q.Rhs) {
				continue
			}
			submit(q)
		}
	}

	return Mapping{relative: m.pairs(), lhsBase: lhs.TextBase(), rhsBase: rhs.TextBase()}
}
