// Package pipeline is a minimal interpreter for ordered sequences of grouping.Steps. It is the
// host-side capability the grouping engine consumes: evaluating a key pipeline against a single
// Traverser, and running (or partially streaming) private copies of a value pipeline.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-sif/grouping"
)

// A Pipeline is an ordered sequence of Steps
type Pipeline struct {
	steps []grouping.Step
}

// New creates a Pipeline from a sequence of Steps
func New(steps ...grouping.Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Steps returns the Steps of this Pipeline, in order
func (p *Pipeline) Steps() []grouping.Step {
	return p.steps
}

// Len returns the number of Steps in this Pipeline
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Append returns a new Pipeline consisting of this Pipeline's Steps followed by more Steps
func (p *Pipeline) Append(steps ...grouping.Step) *Pipeline {
	res := make([]grouping.Step, 0, len(p.steps)+len(steps))
	res = append(res, p.steps...)
	return &Pipeline{steps: append(res, steps...)}
}

// Clone returns a copy of this Pipeline in which every Step has fresh state
func (p *Pipeline) Clone() *Pipeline {
	res := make([]grouping.Step, len(p.steps))
	for i, s := range p.steps {
		res[i] = s.Clone()
	}
	return &Pipeline{steps: res}
}

// String returns a textual representation of this Pipeline
func (p *Pipeline) String() string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name()
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Run pushes Traversers through every Step of this Pipeline and returns its output.
// Barriers consume all of their input before emitting.
func (p *Pipeline) Run(in ...grouping.Traverser) ([]grouping.Traverser, error) {
	return Run(p.steps, in)
}

// First evaluates this Pipeline against a single Traverser, returning its first output,
// or false if the Pipeline was unproductive. An empty Pipeline is the identity.
func (p *Pipeline) First(t grouping.Traverser) (grouping.Traverser, bool, error) {
	out, err := Run(p.steps, []grouping.Traverser{t})
	if err != nil || len(out) == 0 {
		return grouping.Traverser{}, false, err
	}
	return out[0], true, nil
}

// Run pushes Traversers through a sequence of Steps. Step errors are returned unchanged.
func Run(steps []grouping.Step, in []grouping.Traverser) ([]grouping.Traverser, error) {
	current := in
	for _, step := range steps {
		if len(current) == 0 {
			if _, ok := step.(grouping.ReducingStep); !ok {
				continue
			}
		}
		next, err := apply(step, current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func apply(step grouping.Step, in []grouping.Traverser) ([]grouping.Traverser, error) {
	switch s := step.(type) {
	case grouping.ReducingStep:
		for _, t := range in {
			if err := s.Add(t); err != nil {
				return nil, err
			}
		}
		var state interface{}
		if s.Ready() {
			state = s.State()
		} else if state = s.Empty(); state == nil {
			return nil, nil
		}
		out, err := s.Emit(state)
		if err != nil {
			return nil, err
		}
		return []grouping.Traverser{grouping.NewTraverser(out)}, nil
	case grouping.FilterStep:
		out := make([]grouping.Traverser, 0, len(in))
		for _, t := range in {
			kept, ok, err := s.Filter(t)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, kept)
			}
		}
		return out, nil
	case grouping.MapStep:
		out := make([]grouping.Traverser, 0, len(in))
		for _, t := range in {
			mapped, ok, err := s.Map(t)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, mapped)
			}
		}
		return out, nil
	case grouping.FlatMapStep:
		out := make([]grouping.Traverser, 0, len(in))
		for _, t := range in {
			mapped, err := s.FlatMap(t)
			if err != nil {
				return nil, err
			}
			out = append(out, mapped...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("step %s has unsupported type %T", step.Name(), step)
}
