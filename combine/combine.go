// Package combine implements the merge function identified by each grouping.Combiner.
//
// Every combiner except AssignCombiner is associative, and all but AssignCombiner and
// LimitCombiner are commutative, so partial states may be merged in any pairwise or tree
// order. ConcatCombiner is commutative up to the order of elements within the resulting
// sequence, and LimitCombiner up to which values fill the limit.
package combine

import (
	"github.com/go-sif/grouping"
	errors "github.com/go-sif/grouping/errors"
	"github.com/go-sif/grouping/internal/numeric"
)

// A Func merges two states into one
type Func func(a, b interface{}) (interface{}, error)

// Lookup returns the Func implementing a Combiner
func Lookup(c grouping.Combiner) (Func, error) {
	var fn Func
	switch c {
	case grouping.AssignCombiner:
		fn = assign
	case grouping.SumCombiner:
		fn = numeric.Add
	case grouping.MinCombiner:
		fn = numeric.Min
	case grouping.MaxCombiner:
		fn = numeric.Max
	case grouping.ConcatCombiner:
		fn = concat
	case grouping.UnionCombiner:
		fn = union
	case grouping.MeanCombiner:
		fn = mean
	case grouping.LimitCombiner:
		fn = limit
	default:
		return nil, errors.UnknownCombinerError{Name: string(c)}
	}
	return withNils(c, fn), nil
}

// Apply merges two states using the function identified by c
func Apply(c grouping.Combiner, a, b interface{}) (interface{}, error) {
	fn, err := Lookup(c)
	if err != nil {
		return nil, err
	}
	return fn(a, b)
}

// withNils treats a nil state as the absence of a state
func withNils(c grouping.Combiner, fn Func) Func {
	return func(a, b interface{}) (interface{}, error) {
		if a == nil {
			return b, nil
		} else if b == nil {
			return a, nil
		}
		res, err := fn(a, b)
		if err != nil {
			if _, ok := err.(errors.IncompatibleStateError); ok {
				return nil, err
			}
			return nil, errors.IncompatibleStateError{Combiner: string(c), Left: a, Right: b}
		}
		return res, nil
	}
}

func assign(a, b interface{}) (interface{}, error) {
	return b, nil
}

func concat(a, b interface{}) (interface{}, error) {
	la, ok := a.([]interface{})
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.ConcatCombiner), Left: a, Right: b}
	}
	lb, ok := b.([]interface{})
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.ConcatCombiner), Left: a, Right: b}
	}
	res := make([]interface{}, 0, len(la)+len(lb))
	res = append(res, la...)
	return append(res, lb...), nil
}

func union(a, b interface{}) (interface{}, error) {
	sa, ok := a.(*grouping.DistinctSet)
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.UnionCombiner), Left: a, Right: b}
	}
	sb, ok := b.(*grouping.DistinctSet)
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.UnionCombiner), Left: a, Right: b}
	}
	return sa.Union(sb), nil
}

func mean(a, b interface{}) (interface{}, error) {
	ma, ok := a.(grouping.MeanState)
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.MeanCombiner), Left: a, Right: b}
	}
	mb, ok := b.(grouping.MeanState)
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.MeanCombiner), Left: a, Right: b}
	}
	return grouping.MeanState{Sum: ma.Sum + mb.Sum, Count: ma.Count + mb.Count}, nil
}

func limit(a, b interface{}) (interface{}, error) {
	la, ok := a.(*grouping.LimitedList)
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.LimitCombiner), Left: a, Right: b}
	}
	lb, ok := b.(*grouping.LimitedList)
	if !ok {
		return nil, errors.IncompatibleStateError{Combiner: string(grouping.LimitCombiner), Left: a, Right: b}
	}
	return la.Concat(lb), nil
}
