package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
	iutil "github.com/go-sif/grouping/internal/util"
)

type filterStep struct {
	name string
	fn   grouping.FilterOperation
}

func (s *filterStep) Name() string {
	return s.name
}

func (s *filterStep) Type() grouping.StepType {
	return grouping.FilterStepType
}

func (s *filterStep) Clone() grouping.Step {
	return &filterStep{name: s.name, fn: s.fn}
}

func (s *filterStep) Filter(t grouping.Traverser) (grouping.Traverser, bool, error) {
	keep, err := s.fn(t)
	if err != nil || !keep {
		return grouping.Traverser{}, false, err
	}
	return t, true, nil
}

// Filter retains only the Traversers for which fn returns true
func Filter(name string, fn grouping.FilterOperation) grouping.Step {
	return &filterStep{name: name, fn: iutil.SafeFilterOperation(fn)}
}

// Is retains only the Traversers whose value is equal to value
func Is(value interface{}) grouping.Step {
	want, wantErr := grouping.CanonicalKey(value)
	return &filterStep{name: fmt.Sprintf("is(%v)", value), fn: func(t grouping.Traverser) (bool, error) {
		if wantErr != nil {
			return false, wantErr
		}
		k, err := grouping.CanonicalKey(t.Value)
		if err != nil {
			return false, err
		}
		return k == want, nil
	}}
}

// Not retains only the Traversers for which fn returns false
func Not(name string, fn grouping.FilterOperation) grouping.Step {
	safe := iutil.SafeFilterOperation(fn)
	return &filterStep{name: "not(" + name + ")", fn: func(t grouping.Traverser) (bool, error) {
		keep, err := safe(t)
		return !keep && err == nil, err
	}}
}
