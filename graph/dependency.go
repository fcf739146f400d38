package graph

import "fmt"

// DepKind is the relationship a dependency-table cell records between two
// passes (spec.md §3/§4.6(b)).
type DepKind uint8

const (
	DepNone DepKind = iota
	DepOrdering
	DepExecution
)

func (k DepKind) String() string {
	switch k {
	case DepNone:
		return "none"
	case DepOrdering:
		return "ordering"
	case DepExecution:
		return "execution"
	default:
		return fmt.Sprintf("dep(%d)", uint8(k))
	}
}

// Table is the triangular dependency matrix over pass indices: cell
// (j, i) is defined only for i < j. Indices outside that relation, and
// any cell never Set, read back as DepNone.
type Table struct {
	n     int
	cells map[[2]uint32]DepKind
}

// NewTable creates an empty dependency table over n passes.
func NewTable(n int) *Table {
	return &Table{n: n, cells: make(map[[2]uint32]DepKind)}
}

// Set records the dependency of pass j on pass i (i must be < j).
func (t *Table) Set(j, i uint32, kind DepKind) {
	t.cells[[2]uint32{j, i}] = kind
}

// Get returns the dependency of pass j on pass i, or DepNone if unset or
// out of the table's defined triangular range.
func (t *Table) Get(j, i uint32) DepKind {
	if i >= j {
		return DepNone
	}
	return t.cells[[2]uint32{j, i}]
}

// N returns the pass count the table was built over.
func (t *Table) N() int { return t.n }
