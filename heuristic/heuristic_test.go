package heuristic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binref/graphmat"
	"github.com/binref/graphmat/graph"
	"github.com/binref/graphmat/heuristic"
	"github.com/binref/graphmat/levenshtein"
	"github.com/binref/graphmat/metadata"
)

type fakeFunction struct{ opcodes int }

func (f fakeFunction) OpcodeCount() int { return f.opcodes }

type fakeCode struct {
	g     *graph.Graph
	funcs map[graphmat.Address]metadata.Function
}

func newFakeCode(opcodeCounts map[graphmat.Address]int) *fakeCode {
	fc := &fakeCode{g: graph.New(), funcs: make(map[graphmat.Address]metadata.Function)}
	for addr, n := range opcodeCounts {
		fc.funcs[addr] = fakeFunction{opcodes: n}
	}
	return fc
}

func (f *fakeCode) CallGraph() *graph.Graph { return f.g }
func (f *fakeCode) Function(addr graphmat.Address) (metadata.Function, bool) {
	fn, ok := f.funcs[addr]
	return fn, ok
}
func (f *fakeCode) Entry() graphmat.Address    { return 0 }
func (f *fakeCode) TextBase() graphmat.Address { return 0 }

func addrs(vs ...int) []graphmat.Address {
	out := make([]graphmat.Address, len(vs))
	for i, v := range vs {
		out[i] = graphmat.Address(v)
	}
	return out
}

func TestCallOrderIdenticalSequencesHaveZeroDistance(t *testing.T) {
	code := newFakeCode(nil)
	seq := addrs(512, 513, 514, 513)
	mat := heuristic.CallOrder{}.Label(seq, seq, code, code)
	defer mat.Release()
	assert.Zero(t, mat.Distance())
}

func TestRelativeCodeSizeMatchedPairsHaveZeroDistance(t *testing.T) {
	lhsCode := newFakeCode(map[graphmat.Address]int{512: 2, 513: 1, 514: 0})
	rhsCode := newFakeCode(map[graphmat.Address]int{1024: 2, 1025: 1, 1026: 0})

	mat := heuristic.RelativeCodeSize{}.Label(addrs(512, 513, 514), addrs(1024, 1025, 1026), lhsCode, rhsCode)
	require.NotNil(t, mat)
	defer mat.Release()
	assert.Zero(t, mat.Distance())
}

func TestCombinedMonotonicity(t *testing.T) {
	lhsCode := newFakeCode(map[graphmat.Address]int{512: 2, 513: 1, 514: 0})
	rhsCode := newFakeCode(map[graphmat.Address]int{1024: 2, 1025: 1, 1026: 0})

	lhs := addrs(512, 513, 515)
	rhs := addrs(1024, 1025, 1026)

	callOrder := heuristic.CallOrder{}.Label(lhs, rhs, lhsCode, rhsCode)
	defer callOrder.Release()
	codeSize := heuristic.RelativeCodeSize{}.Label(lhs, rhs, lhsCode, rhsCode)
	defer codeSize.Release()

	combined := heuristic.Combined{First: heuristic.CallOrder{}, Second: heuristic.RelativeCodeSize{}}
	combinedMat := combined.Label(lhs, rhs, lhsCode, rhsCode)
	defer combinedMat.Release()

	min := callOrder.Distance()
	if codeSize.Distance() < min {
		min = codeSize.Distance()
	}
	assert.LessOrEqual(t, combinedMat.Distance(), min)
}

func TestCombinedTiesFavourFirst(t *testing.T) {
	code := newFakeCode(nil)
	seq := addrs(1, 2, 3)

	first := heuristic.CallOrder{}.Label(seq, seq, code, code)
	second := heuristic.CallOrder{}.Label(seq, seq, code, code)

	combined := heuristic.Combined{First: fixedMatrix{first}, Second: fixedMatrix{second}}
	mat := combined.Label(seq, seq, code, code)
	defer mat.Release()
	assert.Zero(t, mat.Distance())
	assert.Same(t, first, mat)
}

// fixedMatrix is a Heuristic that always returns the same matrix, so a test
// can tell which sub-heuristic Combined picked.
type fixedMatrix struct{ mat *levenshtein.Matrix }

func (f fixedMatrix) Label(_, _ []graphmat.Address, _, _ metadata.Code) *levenshtein.Matrix {
	return f.mat
}
