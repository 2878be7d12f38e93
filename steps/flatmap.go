package steps

import (
	"github.com/go-sif/grouping"
	iutil "github.com/go-sif/grouping/internal/util"
)

type flatMapStep struct {
	name string
	fn   grouping.FlatMapOperation
}

func (s *flatMapStep) Name() string {
	return s.name
}

func (s *flatMapStep) Type() grouping.StepType {
	return grouping.FlatMapStepType
}

func (s *flatMapStep) Clone() grouping.Step {
	return &flatMapStep{name: s.name, fn: s.fn}
}

func (s *flatMapStep) FlatMap(t grouping.Traverser) ([]grouping.Traverser, error) {
	values, err := s.fn(t)
	if err != nil {
		return nil, err
	}
	res := make([]grouping.Traverser, len(values))
	for i, v := range values {
		res[i] = t.Split(v)
	}
	return res, nil
}

// FlatMap produces zero or more values from each Traverser, each of which inherits the Traverser's Bulk
func FlatMap(name string, fn grouping.FlatMapOperation) grouping.Step {
	return &flatMapStep{name: name, fn: iutil.SafeFlatMapOperation(fn)}
}

// Unfold emits each element of a slice value as its own Traverser. Any other value passes through unchanged.
func Unfold() grouping.Step {
	return &flatMapStep{name: "unfold", fn: unfold}
}

func unfold(t grouping.Traverser) ([]interface{}, error) {
	switch v := t.Value.(type) {
	case []interface{}:
		return v, nil
	case []string:
		res := make([]interface{}, len(v))
		for i, s := range v {
			res[i] = s
		}
		return res, nil
	case []int64:
		res := make([]interface{}, len(v))
		for i, n := range v {
			res[i] = n
		}
		return res, nil
	case *grouping.DistinctSet:
		return v.Values(), nil
	}
	return []interface{}{t.Value}, nil
}
