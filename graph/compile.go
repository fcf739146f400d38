package graph

import (
	"sort"

	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/pass"
	"github.com/gogpu/rendergraph/usage"
)

// evaluateUsage implements §4.6(a). Per-pass read/write sets are already
// populated by the recorder during recording; this stage only applies the
// non-unified-memory readback promotion, which turns a CPU-visible read
// into an additional write (both in the pass's bookkeeping set and, via
// recorder.Recorder.PromoteReadback, in the resource's merged usage list)
// so the ordering stages treat the implied GPU→CPU flush as a dependency
// edge.
func (g *Graph) evaluateUsage(view *arena.ThreadView) {
	if !g.config.NonUnifiedMemory || g.config.IsCPUVisible == nil {
		return
	}
	for _, p := range g.passes {
		for h := range p.Reads {
			if !g.config.IsCPUVisible(h) {
				continue
			}
			if _, already := p.Writes[h]; already {
				continue
			}
			// p.Writes aliases p.Recorder's own write set, so when a
			// recorder is present PromoteReadback alone must both mark
			// the write and append the usage record: marking it here
			// first would make its own already-written guard skip the
			// append.
			if p.Recorder != nil {
				p.Recorder.PromoteReadback(h, view)
			} else {
				p.Writes[h] = struct{}{}
			}
		}
	}
}

// buildDependencyTable implements §4.6(b). Passes of a kind that
// pass.Kind.RunsSerially (cpu, acceleration) also get a forced ordering
// edge between any two instances of that same kind, even absent a shared
// resource: reorder must not present them out of submission order, since
// a later one may depend on an earlier one's side effect outside the
// declared read/write sets (a cpu closure's external state, an
// acceleration structure's descriptor).
func (g *Graph) buildDependencyTable() *Table {
	t := NewTable(len(g.passes))
	for j := 1; j < len(g.passes); j++ {
		pj := g.passes[j]
		for i := 0; i < j; i++ {
			pi := g.passes[i]
			dep := DepNone
			for r := range pj.Reads {
				if pi.Writer(r) {
					dep = DepExecution
					break
				}
			}
			if dep != DepExecution {
				for r := range pj.Writes {
					if pi.Writer(r) {
						dep = DepOrdering
						break
					}
				}
			}
			if dep == DepNone && pi.Kind == pj.Kind && pi.Kind.RunsSerially() {
				dep = DepOrdering
			}
			if dep != DepNone {
				t.Set(uint32(j), uint32(i), dep)
			}
		}
	}
	return t
}

// markSideEffects implements §4.6(c).
func (g *Graph) markSideEffects() {
	for _, p := range g.passes {
		p.SideEffect = p.ComputeSideEffect()
	}
}

// floodFillActive implements §4.6(d): starting from every side-effecting
// pass, mark it and its transitive execution-edge predecessors active.
func (g *Graph) floodFillActive(table *Table) {
	n := len(g.passes)
	visited := make([]bool, n)

	var mark func(idx int)
	mark = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		g.passes[idx].Active = true
		for i := 0; i < idx; i++ {
			if table.Get(uint32(idx), uint32(i)) == DepExecution {
				mark(i)
			}
		}
	}

	for idx, p := range g.passes {
		if p.SideEffect {
			mark(idx)
		}
	}
}

// assignRenderTargetGroups implements §4.6(e).
func (g *Graph) assignRenderTargetGroups() {
	type openGroup struct {
		index int32
		desc  *pass.RenderTargets
	}
	var open []openGroup
	var next int32

	for _, p := range g.passes {
		if p.Kind != pass.KindDraw || p.RenderTargets == nil {
			p.RenderTargetGroup = next
			next++
			continue
		}
		merged := false
		for i := range open {
			if open[i].desc.Mergeable(p.RenderTargets) {
				open[i].desc.Merge(p.RenderTargets)
				p.RenderTargetGroup = open[i].index
				merged = true
				break
			}
		}
		if !merged {
			p.RenderTargetGroup = next
			open = append(open, openGroup{index: next, desc: p.RenderTargets})
			next++
		}
	}
}

// reorder implements §4.6(f): a post-order walk from each side-effecting
// pass (highest index first) that emits transitive predecessors before
// the pass itself, deferring same-render-target-group predecessors of a
// draw pass until its other predecessors have been emitted.
func (g *Graph) reorder(table *Table) []*pass.Record {
	n := len(g.passes)
	visited := make([]bool, n)
	order := make([]*pass.Record, 0, n)

	var visit func(idx int)
	visit = func(idx int) {
		if visited[idx] || !g.passes[idx].Active {
			return
		}
		visited[idx] = true

		p := g.passes[idx]
		var deferred []int
		for i := 0; i < idx; i++ {
			if table.Get(uint32(idx), uint32(i)) == DepNone {
				continue
			}
			if p.Kind == pass.KindDraw && g.passes[i].RenderTargetGroup == p.RenderTargetGroup {
				deferred = append(deferred, i)
				continue
			}
			visit(i)
		}
		for _, i := range deferred {
			visit(i)
		}
		order = append(order, p)
	}

	for idx := n - 1; idx >= 0; idx-- {
		if g.passes[idx].SideEffect {
			visit(idx)
		}
	}
	return order
}

// extractCPUPasses implements §4.6(g). CPU passes are pulled out of the
// GPU-bound order and re-sorted by original submission index, guaranteeing
// they run in the order they were added regardless of where the
// dependency walk happened to place them.
func extractCPUPasses(ordered []*pass.Record) (cpuPasses, gpuPasses []*pass.Record) {
	for _, p := range ordered {
		if p.Kind == pass.KindCPU {
			cpuPasses = append(cpuPasses, p)
		} else {
			gpuPasses = append(gpuPasses, p)
		}
	}
	sort.Slice(cpuPasses, func(i, j int) bool { return cpuPasses[i].Index < cpuPasses[j].Index })
	return cpuPasses, gpuPasses
}

// reassignAndMergeUsages implements §4.6(h): renumber gpuPasses 0..N-1,
// rebase each pass's locally recorded usages onto a frame-global command
// offset, and fold them into each referenced resource's merged usage
// list.
func reassignAndMergeUsages(gpuPasses []*pass.Record, view *arena.ThreadView) map[handle.Handle]*usage.List {
	used := make(map[handle.Handle]*usage.List)
	var globalOffset uint32

	for newIdx, p := range gpuPasses {
		p.Index = uint32(newIdx)
		passStart := globalOffset

		if p.Recorder != nil {
			draws := p.Recorder.Draws()
			for h, local := range p.Recorder.UsageByResource() {
				list, ok := used[h]
				if !ok {
					list = &usage.List{}
					used[h] = list
				}
				for _, rec := range local.Records() {
					rec.Pass = p.Index
					rec.Commands.Start += passStart
					rec.Commands.End += passStart
					list.Append(rec, draws, view)
				}
			}
			globalOffset += uint32(len(p.Recorder.Commands()))
		}

		p.Commands = usage.CommandRange{Start: passStart, End: globalOffset}
	}

	return used
}

// projectTable implements §4.6(i): project the original dependency table
// onto gpuPasses' order. Must be called with gpuPasses still carrying
// their pre-renumbering Index (i.e. before reassignAndMergeUsages runs);
// entries referencing a culled or cpu pass are dropped along with it.
func projectTable(table *Table, gpuPasses []*pass.Record) *Table {
	projected := NewTable(len(gpuPasses))
	for j := 1; j < len(gpuPasses); j++ {
		for i := 0; i < j; i++ {
			if d := table.Get(gpuPasses[j].Index, gpuPasses[i].Index); d != DepNone {
				projected.Set(uint32(j), uint32(i), d)
			}
		}
	}
	return projected
}
