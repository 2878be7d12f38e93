package steps

import (
	"fmt"

	"github.com/go-sif/grouping"
	iutil "github.com/go-sif/grouping/internal/util"
)

type mapStep struct {
	name string
	fn   grouping.MapOperation
}

func (s *mapStep) Name() string {
	return s.name
}

func (s *mapStep) Type() grouping.StepType {
	return grouping.MapStepType
}

func (s *mapStep) Clone() grouping.Step {
	return &mapStep{name: s.name, fn: s.fn}
}

func (s *mapStep) Map(t grouping.Traverser) (grouping.Traverser, bool, error) {
	v, err := s.fn(t)
	if err != nil {
		return grouping.Traverser{}, false, err
	}
	return t.Split(v), true, nil
}

// Map derives a new value from each Traverser
func Map(name string, fn grouping.MapOperation) grouping.Step {
	return &mapStep{name: name, fn: iutil.SafeMapOperation(fn)}
}

// Identity passes every Traverser through unchanged
func Identity() grouping.Step {
	return &mapStep{name: "identity", fn: func(t grouping.Traverser) (interface{}, error) {
		return t.Value, nil
	}}
}

// Constant replaces the value of every Traverser with value
func Constant(value interface{}) grouping.Step {
	return &mapStep{name: fmt.Sprintf("constant(%v)", value), fn: func(t grouping.Traverser) (interface{}, error) {
		return value, nil
	}}
}
