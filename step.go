package grouping

// A Step is a single operation within a pipeline. Steps may carry mutable state
// (a running reduction, or the values a filter has already seen), so a pipeline
// never shares a Step between independent computations: Clone produces a copy
// with fresh state.
type Step interface {
	Name() string   // Name returns a short description of this Step
	Type() StepType // Type returns the StepType of this Step
	Clone() Step    // Clone returns a copy of this Step with fresh state
}

// A MapStep turns each Traverser into zero or one Traversers. A MapStep which produces nothing for a Traverser is unproductive for it.
type MapStep interface {
	Step
	Map(t Traverser) (Traverser, bool, error) // Map returns the mapped Traverser, and false if the Step was unproductive
}

// A FlatMapStep turns each Traverser into any number of Traversers
type FlatMapStep interface {
	Step
	FlatMap(t Traverser) ([]Traverser, error) // FlatMap returns the Traversers produced from t
}

// A FilterStep retains or discards Traversers without transforming their values.
// It may reduce the Bulk of a retained Traverser (e.g. a limit which has almost
// been reached).
type FilterStep interface {
	Step
	Filter(t Traverser) (Traverser, bool, error) // Filter returns the retained Traverser, and false if it was discarded
}

// A Barrier is a Step which accumulates input before (or instead of) producing output
type Barrier interface {
	Step
	BarrierKind() BarrierKind // BarrierKind classifies this Barrier
}

// A ReducingStep is a supplying or reducing Barrier, which accumulates every
// Traverser it receives into a running state. The state of one instance can be
// combined with the state of another instance of the same Step using the
// function identified by Combiner(), which is how results computed
// independently (per partition, per superstep) are merged.
type ReducingStep interface {
	Barrier
	Add(t Traverser) error                       // Add incorporates a Traverser (honouring its Bulk) into the running state
	Ready() bool                                 // Ready returns true once the running state holds a value
	State() interface{}                          // State returns a snapshot of the running state, which is not affected by subsequent calls to Add
	Restore(state interface{}) error             // Restore replaces the running state with a state previously produced by State() or a Combiner
	Empty() interface{}                          // Empty returns the state representing no input at all, or nil if there is no meaningful empty state
	Combiner() Combiner                          // Combiner identifies the associative function which merges two states
	Emit(state interface{}) (interface{}, error) // Emit converts a state into the output this Step promises (e.g. a mean from a sum and count)
}

// A CapturingFilter is a filtering Barrier which remembers the Traversers it has passed. Its
// memory is a state which can be combined with the memory of another instance of the same Step,
// and replayed into the Steps which follow it.
type CapturingFilter interface {
	FilterStep
	BarrierKind() BarrierKind
	State() interface{}                            // State returns a snapshot of the Traversers passed so far
	Restore(state interface{}) error               // Restore replaces the memory of this filter with a state previously produced by State() or a Combiner
	Empty() interface{}                            // Empty returns the state of a filter which has passed nothing
	Combiner() Combiner                            // Combiner identifies the associative function which merges two states
	Replay(state interface{}) ([]Traverser, error) // Replay returns the Traversers a state represents, in a deterministic order
}
