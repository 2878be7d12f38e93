package util

import (
	"fmt"

	"github.com/go-sif/grouping"
)

// Errors returned by user operations are passed through untouched, so that hosts
// can inspect them. Only panics are converted into errors.

func panicError(kind string, r interface{}, t grouping.Traverser) error {
	if anErr, ok := r.(error); ok {
		return fmt.Errorf("%s Panic: %w\nTraverser: %#v (bulk %d)\n%s", kind, anErr, t.Value, t.Bulk, GetTrace())
	}
	return fmt.Errorf("%s Panic: %v\nTraverser: %#v (bulk %d)\n%s", kind, r, t.Value, t.Bulk, GetTrace())
}

// SafeMapOperation wraps a MapOperation such that panics are recovered and nice error messages are constructed
func SafeMapOperation(mapOp grouping.MapOperation) (safeMapOp grouping.MapOperation) {
	return func(t grouping.Traverser) (result interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError("Map", r, t)
			}
		}()
		result, err = mapOp(t)
		return
	}
}

// SafeFilterOperation wraps a FilterOperation such that panics are recovered and nice error messages are constructed
func SafeFilterOperation(filterOp grouping.FilterOperation) (safeFilterOp grouping.FilterOperation) {
	return func(t grouping.Traverser) (keep bool, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError("Filter", r, t)
			}
		}()
		keep, err = filterOp(t)
		return
	}
}

// SafeFlatMapOperation wraps a FlatMapOperation such that panics are recovered and nice error messages are constructed
func SafeFlatMapOperation(flatMapOp grouping.FlatMapOperation) (safeFlatMapOp grouping.FlatMapOperation) {
	return func(t grouping.Traverser) (result []interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError("FlatMap", r, t)
			}
		}()
		result, err = flatMapOp(t)
		return
	}
}
