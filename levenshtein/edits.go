package levenshtein

// EditKind identifies the kind of a single edit operation.
type EditKind int

const (
	// Noop means the elements at this position already matched.
	Noop EditKind = iota
	// Delete removes the current element of s.
	Delete
	// Insert inserts t[Index] at the current position.
	Insert
	// Substitute replaces the current element of s with t[Index].
	Substitute
)

// Edit is a single step of an optimal edit script. Index is meaningful only
// for Insert and Substitute; it names the position in t to read from.
type Edit struct {
	Kind  EditKind
	Index int
}

// Edits iterates an optimal edit script by backtracking through a Matrix
// from (n, m) to (0, 0). Edits are produced tail-to-head: the first value
// returned by Next corresponds to the end of the sequences.
//
// Backtrack policy: at cell (x,y), the diagonal predecessor is preferred
// when its value is no greater than both the left and up predecessors (and
// no greater than the current cell); ties between left and up favour left
// (Delete) over up (Insert). Moves that would cross index 0 are treated as
// having cost +infinity.
type Edits struct {
	mat  *Matrix
	x, y int
}

// Next returns the next edit in the script, or ok=false once backtracking
// has reached (0, 0).
func (e *Edits) Next() (Edit, bool) {
	if e.x == 0 && e.y == 0 {
		return Edit{}, false
	}

	current := e.mat.get(e.x, e.y)
	diagonal, left, up := inf, inf, inf
	hasX1 := e.x > 0
	hasY1 := e.y > 0
	if hasX1 && hasY1 {
		diagonal = e.mat.get(e.x-1, e.y-1)
	}
	if hasX1 {
		left = e.mat.get(e.x-1, e.y)
	}
	if hasY1 {
		up = e.mat.get(e.x, e.y-1)
	}

	switch {
	case diagonal <= left && diagonal <= up && diagonal <= current:
		e.x--
		e.y--
		if diagonal == current {
			return Edit{Kind: Noop}, true
		}
		return Edit{Kind: Substitute, Index: e.y}, true
	case left <= up && left <= current:
		e.x--
		return Edit{Kind: Delete}, true
	default:
		e.y--
		return Edit{Kind: Insert, Index: e.y}, true
	}
}

// IndexedEdit pairs an edit with the position in s (as it shrinks/grows
// under application) at which it occurs.
type IndexedEdit struct {
	Pos  int
	Edit Edit
}

// IndexedEdits wraps Edits, additionally tracking the running position in s
// so edits can be applied in reverse to transform s into t.
type IndexedEdits struct {
	edits *Edits
	i     int
}

// WithIndices returns a view of e that also reports the position in s each
// edit applies to.
func (e *Edits) WithIndices() *IndexedEdits {
	return &IndexedEdits{edits: e, i: e.mat.cols - 1}
}

// Next returns the next indexed edit, or ok=false when exhausted.
func (ie *IndexedEdits) Next() (IndexedEdit, bool) {
	edit, ok := ie.edits.Next()
	if !ok {
		return IndexedEdit{}, false
	}
	if edit.Kind != Insert {
		ie.i--
	}
	return IndexedEdit{Pos: ie.i, Edit: edit}, true
}

// Apply runs mat's optimal edit script against s and t, applying each edit
// in reverse (tail-to-head) position order, and returns the result. For a
// matrix built from NewMatrix(s, t), Apply(mat, s, t) reproduces t exactly.
func Apply[T any](mat *Matrix, s, t []T) []T {
	out := make([]T, len(s))
	copy(out, s)

	ie := mat.Edits().WithIndices()
	for {
		ix, ok := ie.Next()
		if !ok {
			break
		}
		switch ix.Edit.Kind {
		case Insert:
			out = insertAt(out, ix.Pos, t[ix.Edit.Index])
		case Delete:
			out = deleteAt(out, ix.Pos)
		case Substitute:
			out[ix.Pos] = t[ix.Edit.Index]
		case Noop:
		}
	}
	return out
}

func insertAt[T any](s []T, pos int, v T) []T {
	s = append(s, v)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

func deleteAt[T any](s []T, pos int) []T {
	return append(s[:pos], s[pos+1:]...)
}
