package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/internal/numeric"
)

// Numeric is a barrier which reduces numeric values to their sum, minimum or maximum
type Numeric struct {
	combiner grouping.Combiner
	value    interface{}
}

// Sum returns a barrier which adds up numeric values, honouring Bulk
func Sum() *Numeric {
	return &Numeric{combiner: grouping.SumCombiner}
}

// Min returns a barrier which keeps the least numeric value
func Min() *Numeric {
	return &Numeric{combiner: grouping.MinCombiner}
}

// Max returns a barrier which keeps the greatest numeric value
func Max() *Numeric {
	return &Numeric{combiner: grouping.MaxCombiner}
}

// Name returns a short description of this Step
func (a *Numeric) Name() string {
	return string(a.combiner)
}

// Type returns the StepType of this Step
func (a *Numeric) Type() grouping.StepType {
	return grouping.ReduceStepType
}

// Clone returns a barrier of the same kind with no input
func (a *Numeric) Clone() grouping.Step {
	return &Numeric{combiner: a.combiner}
}

// BarrierKind returns ReducingBarrier
func (a *Numeric) BarrierKind() grouping.BarrierKind {
	return grouping.ReducingBarrier
}

// Add incorporates a numeric value
func (a *Numeric) Add(t grouping.Traverser) error {
	v := t.Value
	if a.combiner == grouping.SumCombiner {
		weighted, err := numeric.Mul(v, t.Bulk)
		if err != nil {
			return err
		}
		v = weighted
	} else if n, ok := numeric.Normalize(v); ok {
		v = n
	} else {
		return fmt.Errorf("value %#v is not a number", v)
	}
	if a.value == nil {
		a.value = v
		return nil
	}
	var err error
	switch a.combiner {
	case grouping.MinCombiner:
		a.value, err = numeric.Min(a.value, v)
	case grouping.MaxCombiner:
		a.value, err = numeric.Max(a.value, v)
	default:
		a.value, err = numeric.Add(a.value, v)
	}
	return err
}

// Ready returns true once any value has been incorporated
func (a *Numeric) Ready() bool {
	return a.value != nil
}

// State returns the running value as an int64 or float64
func (a *Numeric) State() interface{} {
	return a.value
}

// Restore replaces the running value
func (a *Numeric) Restore(state interface{}) error {
	n, ok := numeric.Normalize(state)
	if !ok {
		return fmt.Errorf("%s cannot restore state %#v", a.Name(), state)
	}
	a.value = n
	return nil
}

// Empty returns zero for a sum. A minimum or maximum of nothing has no value.
func (a *Numeric) Empty() interface{} {
	if a.combiner == grouping.SumCombiner {
		return int64(0)
	}
	return nil
}

// Combiner returns the Combiner matching this barrier's reduction
func (a *Numeric) Combiner() grouping.Combiner {
	return a.combiner
}

// Emit returns the running value
func (a *Numeric) Emit(state interface{}) (interface{}, error) {
	return state, nil
}
