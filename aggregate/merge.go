package aggregate

import (
	"fmt"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/combine"
)

// Merge combines the states of b into a, key by key, and returns a. Keys present in only one map
// are retained as they are. b is consumed, and cannot be used afterwards.
//
// Maps whose Group has no barrier cannot combine values: a key present in both maps takes b's value.
func Merge(a, b *GroupMap) (*GroupMap, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	} else if err := b.checkOpen(); err != nil {
		return nil, err
	} else if a == b {
		return nil, fmt.Errorf("group map %s cannot be merged into itself", a.id)
	} else if err := a.compatible(b.classification); err != nil {
		return nil, err
	}
	combiner := a.classification.Combiner
	fn, err := combine.Lookup(combiner)
	if err != nil {
		return nil, err
	}
	var mergeErr error
	inserted, combined := 0, 0
	b.entries.Ascend(func(be *entry) bool {
		b.release(be)
		ae, ok := a.entries.Get(be)
		if !ok {
			a.entries.ReplaceOrInsert(be)
			inserted++
			return true
		}
		a.release(ae)
		state, err := fn(ae.state, be.state)
		if err != nil {
			mergeErr = err
			return false
		}
		ae.state = state
		combined++
		return true
	})
	if mergeErr != nil {
		return nil, mergeErr
	}
	b.entries.Clear(false)
	b.merged = true
	a.log.V(4).Info("merged group map", "from", b.id, "inserted", inserted, "combined", combined)
	if combiner == grouping.AssignCombiner && combined > 0 {
		a.log.Info("group value pipeline has no barrier, so values present in both maps were overwritten rather than combined", "from", b.id, "overwritten", combined)
	}
	return a, nil
}

// MergeAll merges every map into the first, in order
func MergeAll(maps ...*GroupMap) (*GroupMap, error) {
	if len(maps) == 0 {
		return nil, fmt.Errorf("no group maps to merge")
	}
	res := maps[0]
	for _, m := range maps[1:] {
		var err error
		if res, err = Merge(res, m); err != nil {
			return nil, err
		}
	}
	return res, nil
}
