package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/graph"
	"github.com/binref/graphmat/metadata"
)

type stubFunction int

func (s stubFunction) OpcodeCount() int { return int(s) }

type stubCode map[graphmat.Address]int

func (s stubCode) Function(addr graphmat.Address) (metadata.Function, bool) {
	n, ok := s[addr]
	return stubFunction(n), ok
}
func (s stubCode) CallGraph() *graph.Graph     { return graph.New() }
func (s stubCode) Entry() graphmat.Address     { return 0 }
func (s stubCode) TextBase() graphmat.Address  { return 0 }

func addrsOf(vs ...int) []graphmat.Address {
	out := make([]graphmat.Address, len(vs))
	for i, v := range vs {
		out[i] = graphmat.Address(v)
	}
	return out
}

func TestFirstOccurrenceRanks(t *testing.T) {
	cases := []struct {
		edges []int
		want  []int
	}{
		{[]int{512, 513, 514}, []int{0, 1, 2}},
		{[]int{512, 513, 513, 514, 513}, []int{0, 1, 1, 2, 1}},
		{[]int{512, 513, 514, 513, 514, 515, 513, 514, 512}, []int{0, 1, 2, 1, 2, 3, 1, 2, 0}},
	}
	for _, c := range cases {
		got := firstOccurrenceRanks(addrsOf(c.edges...))
		assert.Equal(t, c.want, got)
	}
}

func TestRelativeCodeSizeLabelsInternal(t *testing.T) {
	lhsCode := stubCode{512: 2, 513: 1, 514: 0}
	rhsCode := stubCode{1024: 2, 1025: 1, 1026: 0}

	cases := []struct {
		name         string
		lhs, rhs     []int
		wantL, wantR []int
	}{
		{"aligned", []int{512, 513, 514}, []int{1024, 1025, 1026}, []int{0, 1, 2}, []int{0, 1, 2}},
		{"rhs missing largest", []int{512, 513, 514}, []int{1025, 1026}, []int{4, 1, 2}, []int{1, 2}},
		{"lhs singleton", []int{514}, []int{1024, 1025, 1026}, []int{0}, []int{1, 2, 0}},
		{"lhs empty", []int{}, []int{1024, 1025, 1026}, []int{}, []int{0, 1, 2}},
		{"rhs empty", []int{512, 513, 514}, []int{}, []int{0, 1, 2}, []int{}},
		{"lhs reordered", []int{514, 512, 513}, []int{1024, 1025, 1026}, []int{0, 1, 2}, []int{1, 2, 0}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gotL, gotR := relativeCodeSizeLabels(addrsOf(c.lhs...), addrsOf(c.rhs...), lhsCode, rhsCode)
			assert.Equal(t, c.wantL, gotL)
			assert.Equal(t, c.wantR, gotR)
		})
	}
}
