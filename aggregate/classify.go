package aggregate

import (
	"fmt"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/pipeline"
)

// Kind describes how a group can accumulate the values of each key
type Kind int

const (
	// None indicates a value pipeline without a barrier. Each key retains the output of the most
	// recent element which produced any.
	None Kind = iota
	// Supplying indicates a value pipeline whose first barrier is a supplying barrier
	Supplying
	// Reducing indicates a value pipeline whose first barrier is a reducing barrier
	Reducing
	// FilteringWithNestedBarrier indicates a value pipeline in which a filter precedes the first
	// supplying or reducing barrier. A key whose elements are all filtered out holds that barrier's
	// empty state. If a filter which remembers what it has passed (dedup, limit) comes first,
	// that filter's memory is the state of each key, and the nested barrier runs at finalization.
	FilteringWithNestedBarrier
)

var kindNames = map[Kind]string{
	None:                       "none",
	Supplying:                  "supplying",
	Reducing:                   "reducing",
	FilteringWithNestedBarrier: "filtering",
}

// String returns a textual representation of this Kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a name produced by Kind.String back into a Kind
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return None, fmt.Errorf("unknown group kind %q", name)
}

// Classification is the result of inspecting a value pipeline for a barrier
type Classification struct {
	Kind     Kind              // Kind describes how values are accumulated
	Barrier  int               // Barrier is the index of the capturing step within the value pipeline, or -1
	Nested   int               // Nested is the index of the first supplying or reducing barrier, or -1
	Combiner grouping.Combiner // Combiner merges two states of the capturing step
}

// capturesFilter returns true iff the state of each key is the memory of a filter
func (c Classification) capturesFilter() bool {
	return c.Barrier >= 0 && c.Barrier != c.Nested
}

// String returns a textual representation of this Classification
func (c Classification) String() string {
	return fmt.Sprintf("%s(%s)", c.Kind, c.Combiner)
}

// Classify finds the first supplying or reducing barrier in a value pipeline, and the step whose
// state is kept for each key
func Classify(p *pipeline.Pipeline) Classification {
	filtered := false
	capture := -1
	steps := p.Steps()
	for i, step := range steps {
		if _, ok := step.(grouping.FilterStep); ok {
			filtered = true
			if _, ok := step.(grouping.CapturingFilter); ok && capture < 0 {
				capture = i
			}
			continue
		}
		rs, ok := step.(grouping.ReducingStep)
		if !ok {
			continue
		}
		if capture >= 0 {
			cf := steps[capture].(grouping.CapturingFilter)
			return Classification{Kind: FilteringWithNestedBarrier, Barrier: capture, Nested: i, Combiner: cf.Combiner()}
		}
		kind := Reducing
		switch {
		case filtered:
			kind = FilteringWithNestedBarrier
		case rs.BarrierKind() == grouping.SupplyingBarrier:
			kind = Supplying
		}
		return Classification{Kind: kind, Barrier: i, Nested: i, Combiner: rs.Combiner()}
	}
	return Classification{Kind: None, Barrier: -1, Nested: -1, Combiner: grouping.AssignCombiner}
}
