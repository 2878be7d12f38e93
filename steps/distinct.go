package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
)

// Distinct is a supplying barrier which collects the distinct values it receives. It emits either
// the values themselves, in canonical order, or the number of them.
type Distinct struct {
	set   *grouping.DistinctSet
	count bool
	seen  bool
}

// DistinctValues returns a barrier which emits the sorted list of distinct values it receives
func DistinctValues() *Distinct {
	return &Distinct{set: grouping.NewDistinctSet()}
}

// CountDistinct returns a barrier which emits the number of distinct values it receives
func CountDistinct() *Distinct {
	return &Distinct{set: grouping.NewDistinctSet(), count: true}
}

// Name returns a short description of this Step
func (a *Distinct) Name() string {
	if a.count {
		return "countDistinct"
	}
	return "distinct"
}

// Type returns the StepType of this Step
func (a *Distinct) Type() grouping.StepType {
	return grouping.ReduceStepType
}

// Clone returns a barrier of the same kind with no input
func (a *Distinct) Clone() grouping.Step {
	return &Distinct{set: grouping.NewDistinctSet(), count: a.count}
}

// BarrierKind returns SupplyingBarrier
func (a *Distinct) BarrierKind() grouping.BarrierKind {
	return grouping.SupplyingBarrier
}

// Add incorporates a value. Bulk is irrelevant to distinctness.
func (a *Distinct) Add(t grouping.Traverser) error {
	if _, err := a.set.Add(t.Value); err != nil {
		return err
	}
	a.seen = true
	return nil
}

// Ready returns true once any value has been incorporated
func (a *Distinct) Ready() bool {
	return a.seen
}

// State returns a copy of the running *grouping.DistinctSet
func (a *Distinct) State() interface{} {
	return a.set.Clone()
}

// Restore replaces the running *grouping.DistinctSet
func (a *Distinct) Restore(state interface{}) error {
	s, ok := state.(*grouping.DistinctSet)
	if !ok {
		return fmt.Errorf("%s cannot restore state %#v", a.Name(), state)
	}
	a.set = s.Clone()
	a.seen = true
	return nil
}

// Empty returns an empty *grouping.DistinctSet
func (a *Distinct) Empty() interface{} {
	return grouping.NewDistinctSet()
}

// Combiner returns UnionCombiner
func (a *Distinct) Combiner() grouping.Combiner {
	return grouping.UnionCombiner
}

// Emit returns the sorted distinct values, or their number
func (a *Distinct) Emit(state interface{}) (interface{}, error) {
	s, ok := state.(*grouping.DistinctSet)
	if !ok {
		return nil, fmt.Errorf("%s cannot emit state %#v", a.Name(), state)
	}
	if a.count {
		return int64(s.Len()), nil
	}
	return s.Values(), nil
}

// Dedup is a filtering barrier which passes each distinct value once, with a Bulk of 1. The values
// it has passed are its state.
type Dedup struct {
	seen *grouping.DistinctSet
}

// Deduplicate returns a new Dedup filter
func Deduplicate() *Dedup {
	return &Dedup{seen: grouping.NewDistinctSet()}
}

// Name returns a short description of this Step
func (a *Dedup) Name() string {
	return "dedup"
}

// Type returns the StepType of this Step
func (a *Dedup) Type() grouping.StepType {
	return grouping.FilterStepType
}

// Clone returns a Dedup which has seen nothing
func (a *Dedup) Clone() grouping.Step {
	return Deduplicate()
}

// BarrierKind returns FilteringBarrier
func (a *Dedup) BarrierKind() grouping.BarrierKind {
	return grouping.FilteringBarrier
}

// Filter passes a Traverser if its value has not been seen before
func (a *Dedup) Filter(t grouping.Traverser) (grouping.Traverser, bool, error) {
	added, err := a.seen.Add(t.Value)
	if err != nil || !added {
		return grouping.Traverser{}, false, err
	}
	return grouping.NewTraverser(t.Value), true, nil
}

// State returns a copy of the *grouping.DistinctSet of values passed so far
func (a *Dedup) State() interface{} {
	return a.seen.Clone()
}

// Restore replaces the values passed so far
func (a *Dedup) Restore(state interface{}) error {
	s, ok := state.(*grouping.DistinctSet)
	if !ok {
		return fmt.Errorf("dedup cannot restore state %#v", state)
	}
	a.seen = s.Clone()
	return nil
}

// Empty returns an empty *grouping.DistinctSet
func (a *Dedup) Empty() interface{} {
	return grouping.NewDistinctSet()
}

// Combiner returns UnionCombiner
func (a *Dedup) Combiner() grouping.Combiner {
	return grouping.UnionCombiner
}

// Replay returns each value of the set once, in canonical order
func (a *Dedup) Replay(state interface{}) ([]grouping.Traverser, error) {
	s, ok := state.(*grouping.DistinctSet)
	if !ok {
		return nil, fmt.Errorf("dedup cannot replay state %#v", state)
	}
	values := s.Values()
	res := make([]grouping.Traverser, len(values))
	for i, v := range values {
		res[i] = grouping.NewTraverser(v)
	}
	return res, nil
}
