package grouping

import (
	errors "github.com/go-sif/grouping/errors"
)

// A Combiner identifies a function which merges two states produced by the same
// barrier Step. It is a plain value rather than a closure, so that it can be
// transported alongside serialized state and audited. The semantics of each
// Combiner are implemented by the combine package.
type Combiner string

const (
	// AssignCombiner keeps the second of two states. It is used when a value pipeline has no barrier, and is neither commutative nor information-preserving.
	AssignCombiner Combiner = "assign"
	// SumCombiner adds two numeric states
	SumCombiner Combiner = "sum"
	// MinCombiner keeps the lesser of two numeric states
	MinCombiner Combiner = "min"
	// MaxCombiner keeps the greater of two numeric states
	MaxCombiner Combiner = "max"
	// ConcatCombiner concatenates two sequences
	ConcatCombiner Combiner = "concat"
	// UnionCombiner computes the union of two DistinctSets
	UnionCombiner Combiner = "union"
	// MeanCombiner adds the sums and counts of two MeanStates
	MeanCombiner Combiner = "mean"
	// LimitCombiner concatenates two LimitedLists, keeping as much of the second as fits. The
	// total multiplicity of the result does not depend on order, but which values are kept does.
	LimitCombiner Combiner = "limit"
)

var combiners = []Combiner{AssignCombiner, SumCombiner, MinCombiner, MaxCombiner, ConcatCombiner, UnionCombiner, MeanCombiner, LimitCombiner}

// Commutative returns true iff the order in which two states are combined does not matter
func (c Combiner) Commutative() bool {
	return c != AssignCombiner && c != LimitCombiner
}

// ParseCombiner converts a string to a Combiner, returning an error for unknown names
func ParseCombiner(name string) (Combiner, error) {
	for _, c := range combiners {
		if string(c) == name {
			return c, nil
		}
	}
	return "", errors.UnknownCombinerError{Name: name}
}
