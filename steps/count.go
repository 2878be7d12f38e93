package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/internal/numeric"
)

// Counter returns a new Count barrier
func Counter() *Count {
	return new(Count)
}

// Count counts Traversers, honouring their Bulk
type Count struct {
	count int64
	seen  bool
}

// GetCount returns the running count
func (a *Count) GetCount() int64 {
	return a.count
}

// Name returns a short description of this Step
func (a *Count) Name() string {
	return "count"
}

// Type returns the StepType of this Step
func (a *Count) Type() grouping.StepType {
	return grouping.ReduceStepType
}

// Clone returns a Count with no input
func (a *Count) Clone() grouping.Step {
	return Counter()
}

// BarrierKind returns ReducingBarrier
func (a *Count) BarrierKind() grouping.BarrierKind {
	return grouping.ReducingBarrier
}

// Add counts a Traverser
func (a *Count) Add(t grouping.Traverser) error {
	a.count += t.Bulk
	a.seen = true
	return nil
}

// Ready returns true once any Traverser has been counted
func (a *Count) Ready() bool {
	return a.seen
}

// State returns the running count as an int64
func (a *Count) State() interface{} {
	return a.count
}

// Restore replaces the running count
func (a *Count) Restore(state interface{}) error {
	n, ok := numeric.Normalize(state)
	c, isInt := n.(int64)
	if !ok || !isInt {
		return fmt.Errorf("count cannot restore state %#v", state)
	}
	a.count = c
	a.seen = true
	return nil
}

// Empty returns a count of zero
func (a *Count) Empty() interface{} {
	return int64(0)
}

// Combiner returns SumCombiner
func (a *Count) Combiner() grouping.Combiner {
	return grouping.SumCombiner
}

// Emit returns the count
func (a *Count) Emit(state interface{}) (interface{}, error) {
	return state, nil
}
