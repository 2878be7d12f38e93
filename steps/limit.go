package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
)

// Limit is a filtering barrier which passes at most n occurrences, counting Bulk. The values it
// has passed are its state.
type Limit struct {
	n      int64
	passed *grouping.LimitedList
}

// Limiter returns a new Limit filter. A negative n is treated as zero.
func Limiter(n int64) *Limit {
	if n < 0 {
		n = 0
	}
	return &Limit{n: n, passed: grouping.NewLimitedList(n)}
}

// Name returns a short description of this Step
func (a *Limit) Name() string {
	return fmt.Sprintf("limit(%d)", a.n)
}

// Type returns the StepType of this Step
func (a *Limit) Type() grouping.StepType {
	return grouping.FilterStepType
}

// Clone returns a Limit which has passed nothing
func (a *Limit) Clone() grouping.Step {
	return Limiter(a.n)
}

// BarrierKind returns FilteringBarrier
func (a *Limit) BarrierKind() grouping.BarrierKind {
	return grouping.FilteringBarrier
}

// Filter passes a Traverser while the limit has not been reached, truncating its Bulk if necessary
func (a *Limit) Filter(t grouping.Traverser) (grouping.Traverser, bool, error) {
	accepted := a.passed.Add(t.Value, t.Bulk)
	if accepted == 0 {
		return grouping.Traverser{}, false, nil
	}
	t.Bulk = accepted
	return t, true, nil
}

// State returns a copy of the *grouping.LimitedList of values passed so far
func (a *Limit) State() interface{} {
	return a.passed.Clone()
}

// Restore replaces the values passed so far
func (a *Limit) Restore(state interface{}) error {
	l, ok := state.(*grouping.LimitedList)
	if !ok || l.Limit() != a.n {
		return fmt.Errorf("%s cannot restore state %#v", a.Name(), state)
	}
	a.passed = l.Clone()
	return nil
}

// Empty returns an empty *grouping.LimitedList
func (a *Limit) Empty() interface{} {
	return grouping.NewLimitedList(a.n)
}

// Combiner returns LimitCombiner
func (a *Limit) Combiner() grouping.Combiner {
	return grouping.LimitCombiner
}

// Replay returns the values passed, in the order they were passed, with their Bulk
func (a *Limit) Replay(state interface{}) ([]grouping.Traverser, error) {
	l, ok := state.(*grouping.LimitedList)
	if !ok {
		return nil, fmt.Errorf("%s cannot replay state %#v", a.Name(), state)
	}
	res := make([]grouping.Traverser, 0)
	l.Each(func(v interface{}, bulk int64) {
		res = append(res, grouping.Traverser{Value: v, Bulk: bulk})
	})
	return res, nil
}
