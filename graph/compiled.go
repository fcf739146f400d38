package graph

import (
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/pass"
	"github.com/gogpu/rendergraph/usage"
)

// Compiled is the compiler's output (spec.md §4.6): the culled, reordered
// pass lists with finalised usage timelines and a dependency table
// projected onto the surviving GPU passes.
type Compiled struct {
	// CPUPasses runs serially, in submission order, before the GPU list
	// is handed to the backend.
	CPUPasses []*pass.Record

	// ActivePasses is the GPU-executed pass list in compiled order; their
	// Index fields have been renumbered 0..len(ActivePasses)-1.
	ActivePasses []*pass.Record

	// ActiveDependencyTable is the original dependency table projected
	// onto ActivePasses' renumbered indices.
	ActiveDependencyTable *Table

	// UsedResources is the set of resources referenced by ActivePasses,
	// each with its frame-global, merged usage list.
	UsedResources map[handle.Handle]*usage.List
}
