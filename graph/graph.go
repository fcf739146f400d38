// Package graph implements the compiler from spec.md §4.6: the central
// algorithm that culls unconsumed passes, derives an execution order
// respecting data dependencies while maximising draw-pass merging, and
// produces the finalised work list a submission driver hands to a
// backend. It plays the orchestration role the teacher's core.Hub plays
// for resource registries, but over one frame's pass list instead of
// resource storage.
package graph

import (
	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/pass"
)

// Config carries the small set of environment facts the compiler needs
// but cannot derive from the pass list alone.
type Config struct {
	// NonUnifiedMemory marks a system where a CPU read of a GPU-written
	// resource requires an explicit flush the graph must order for
	// (spec.md §4.6(a)).
	NonUnifiedMemory bool

	// IsCPUVisible reports whether a resource's backing memory is
	// directly CPU-addressable. Only consulted when NonUnifiedMemory is
	// true. A nil func treats no resource as CPU-visible.
	IsCPUVisible func(h handle.Handle) bool
}

// Graph accumulates one frame's pass records between the client's
// add_pass calls and a single Compile call.
type Graph struct {
	passes []*pass.Record
	config Config
}

// New creates an empty graph for one frame.
func New(config Config) *Graph {
	return &Graph{config: config}
}

// AddPass appends p to the graph, assigning it the next pass index. A
// pass must not be added to more than one graph.
func (g *Graph) AddPass(p *pass.Record) {
	p.Index = uint32(len(g.passes))
	g.passes = append(g.passes, p)
}

// Passes returns the graph's passes in submission order.
func (g *Graph) Passes() []*pass.Record { return g.passes }

// Compile runs all of §4.6's stages over the accumulated pass list and
// returns the finalised work list. usageView backs any sub-range storage
// the usage merge step allocates; callers pass a view over the frame's
// usage-nodes arena tag.
func (g *Graph) Compile(usageView *arena.ThreadView) (*Compiled, error) {
	if len(g.passes) == 0 {
		return nil, ErrEmptyGraph
	}

	g.evaluateUsage(usageView)
	table := g.buildDependencyTable()
	g.markSideEffects()
	g.floodFillActive(table)
	g.assignRenderTargetGroups()

	ordered := g.reorder(table)
	cpuPasses, gpuPasses := extractCPUPasses(ordered)

	// Must project onto gpuPasses' original indices before renumbering.
	projected := projectTable(table, gpuPasses)
	usedResources := reassignAndMergeUsages(gpuPasses, usageView)

	return &Compiled{
		CPUPasses:             cpuPasses,
		ActivePasses:          gpuPasses,
		ActiveDependencyTable: projected,
		UsedResources:         usedResources,
	}, nil
}
