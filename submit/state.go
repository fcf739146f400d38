package submit

import "fmt"

// State is a frame's position in the submission lifecycle (spec.md §4.7):
// Accumulating → Compiling → CPU-Passes → Submitted → Completed → Reset.
type State uint8

const (
	StateAccumulating State = iota
	StateCompiling
	StateCPUPasses
	StateSubmitted
	StateCompleted
	StateReset
)

func (s State) String() string {
	switch s {
	case StateAccumulating:
		return "accumulating"
	case StateCompiling:
		return "compiling"
	case StateCPUPasses:
		return "cpu-passes"
	case StateSubmitted:
		return "submitted"
	case StateCompleted:
		return "completed"
	case StateReset:
		return "reset"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}
