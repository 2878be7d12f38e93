package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
)

// Folder returns a new Fold barrier
func Folder() *Fold {
	return new(Fold)
}

// Fold collects every value into a list. A Traverser with a Bulk of n contributes n copies of its value.
type Fold struct {
	values []interface{}
	seen   bool
}

// Name returns a short description of this Step
func (a *Fold) Name() string {
	return "fold"
}

// Type returns the StepType of this Step
func (a *Fold) Type() grouping.StepType {
	return grouping.ReduceStepType
}

// Clone returns a Fold with no input
func (a *Fold) Clone() grouping.Step {
	return Folder()
}

// BarrierKind returns ReducingBarrier
func (a *Fold) BarrierKind() grouping.BarrierKind {
	return grouping.ReducingBarrier
}

// Add appends a value Bulk times
func (a *Fold) Add(t grouping.Traverser) error {
	for i := int64(0); i < t.Bulk; i++ {
		a.values = append(a.values, t.Value)
	}
	a.seen = true
	return nil
}

// Ready returns true once any value has been incorporated
func (a *Fold) Ready() bool {
	return a.seen
}

// State returns a copy of the list collected so far
func (a *Fold) State() interface{} {
	return copyList(a.values)
}

// Restore replaces the list collected so far
func (a *Fold) Restore(state interface{}) error {
	l, ok := state.([]interface{})
	if !ok {
		return fmt.Errorf("fold cannot restore state %#v", state)
	}
	a.values = copyList(l)
	a.seen = true
	return nil
}

// Empty returns an empty list
func (a *Fold) Empty() interface{} {
	return []interface{}{}
}

// Combiner returns ConcatCombiner
func (a *Fold) Combiner() grouping.Combiner {
	return grouping.ConcatCombiner
}

// Emit returns a copy of the list
func (a *Fold) Emit(state interface{}) (interface{}, error) {
	l, ok := state.([]interface{})
	if !ok {
		return nil, fmt.Errorf("fold cannot emit state %#v", state)
	}
	return copyList(l), nil
}

func copyList(l []interface{}) []interface{} {
	res := make([]interface{}, len(l))
	copy(res, l)
	return res
}
