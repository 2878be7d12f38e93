package grouping

// StepType describes the type of a Step, used by pipelines to control behaviour
type StepType string

const (
	// MapStepType indicates that this Step turns each Traverser into zero or one Traversers
	MapStepType StepType = "map"
	// FlatMapStepType indicates that this Step turns each Traverser into any number of Traversers
	FlatMapStepType StepType = "flatmap"
	// FilterStepType indicates that this Step retains or discards Traversers without transforming their values
	FilterStepType StepType = "filter"
	// ReduceStepType indicates that this Step is a barrier, accumulating all Traversers before producing output
	ReduceStepType StepType = "reduce"
)

// BarrierKind classifies a barrier Step
type BarrierKind int

const (
	// NoBarrier indicates that a Step does not accumulate input
	NoBarrier BarrierKind = iota
	// SupplyingBarrier indicates a barrier which produces a value without requiring a reduction seed
	SupplyingBarrier
	// ReducingBarrier indicates a barrier which maintains a running, combinable reduction
	ReducingBarrier
	// FilteringBarrier indicates a stateful filter, which passes or rejects Traversers based on what it has already seen
	FilteringBarrier
)

// String returns a string representation of the BarrierKind
func (k BarrierKind) String() string {
	switch k {
	case SupplyingBarrier:
		return "supplying"
	case ReducingBarrier:
		return "reducing"
	case FilteringBarrier:
		return "filtering"
	default:
		return "none"
	}
}
