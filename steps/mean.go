package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/internal/numeric"
)

// Averager returns a new Mean barrier
func Averager() *Mean {
	return new(Mean)
}

// Mean computes the arithmetic mean of numeric values, weighted by Bulk
type Mean struct {
	state grouping.MeanState
}

// Name returns a short description of this Step
func (a *Mean) Name() string {
	return "mean"
}

// Type returns the StepType of this Step
func (a *Mean) Type() grouping.StepType {
	return grouping.ReduceStepType
}

// Clone returns a Mean with no input
func (a *Mean) Clone() grouping.Step {
	return Averager()
}

// BarrierKind returns ReducingBarrier
func (a *Mean) BarrierKind() grouping.BarrierKind {
	return grouping.ReducingBarrier
}

// Add incorporates a numeric value
func (a *Mean) Add(t grouping.Traverser) error {
	f, ok := numeric.ToFloat(t.Value)
	if !ok {
		return fmt.Errorf("value %#v is not a number", t.Value)
	}
	a.state.Sum += f * float64(t.Bulk)
	a.state.Count += t.Bulk
	return nil
}

// Ready returns true once any value has been incorporated
func (a *Mean) Ready() bool {
	return a.state.Count > 0
}

// State returns the running grouping.MeanState
func (a *Mean) State() interface{} {
	return a.state
}

// Restore replaces the running grouping.MeanState
func (a *Mean) Restore(state interface{}) error {
	ms, ok := state.(grouping.MeanState)
	if !ok {
		return fmt.Errorf("mean cannot restore state %#v", state)
	}
	a.state = ms
	return nil
}

// Empty returns nil, as the mean of nothing is undefined
func (a *Mean) Empty() interface{} {
	return nil
}

// Combiner returns MeanCombiner
func (a *Mean) Combiner() grouping.Combiner {
	return grouping.MeanCombiner
}

// Emit converts a grouping.MeanState into a float64 mean
func (a *Mean) Emit(state interface{}) (interface{}, error) {
	ms, ok := state.(grouping.MeanState)
	if !ok {
		return nil, fmt.Errorf("mean cannot emit state %#v", state)
	}
	m, ok := ms.Mean()
	if !ok {
		return nil, nil
	}
	return m, nil
}
