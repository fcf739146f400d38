// Package pass implements the pass-record metadata wrapper from
// spec.md §3/§4.5: the kind, declared resource sets, computed command
// range, and activity/side-effect/window-texture bits the compiler reads
// and writes during §4.6.
package pass

import "fmt"

// Kind is the execution category of a pass.
type Kind uint8

const (
	KindCPU Kind = iota
	KindDraw
	KindCompute
	KindBlit
	KindExternal
	KindAcceleration
)

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindDraw:
		return "draw"
	case KindCompute:
		return "compute"
	case KindBlit:
		return "blit"
	case KindExternal:
		return "external"
	case KindAcceleration:
		return "acceleration"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// RunsSerially reports whether k must execute serially in submission
// order rather than being scheduled freely by the compiler (cpu passes
// on the compile thread, acceleration-structure passes because a later
// pass may consume their descriptor). The graph package's dependency-table
// stage forces an ordering edge between any two passes of the same
// RunsSerially kind, even when they share no resource.
func (k Kind) RunsSerially() bool {
	return k == KindCPU || k == KindAcceleration
}
