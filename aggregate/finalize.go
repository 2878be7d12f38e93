package aggregate

import (
	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/pipeline"
	"github.com/tidwall/gjson"
)

// A FinalEntry is one group key and its final value
type FinalEntry struct {
	Key   interface{}
	Value interface{}
}

// A FinalMap is the result of a group: each group key with its final value, in canonical key order
type FinalMap struct {
	entries []FinalEntry
	index   map[string]int
}

// Get returns the final value of a group key
func (f FinalMap) Get(key interface{}) (interface{}, bool) {
	ckey, err := grouping.CanonicalKey(key)
	if err != nil {
		return nil, false
	}
	i, ok := f.index[ckey]
	if !ok {
		return nil, false
	}
	return f.entries[i].Value, true
}

// Len returns the number of group keys
func (f FinalMap) Len() int {
	return len(f.entries)
}

// Entries returns every group key and its final value, in canonical key order
func (f FinalMap) Entries() []FinalEntry {
	res := make([]FinalEntry, len(f.entries))
	copy(res, f.entries)
	return res
}

// Strings returns the final values keyed by a string rendering of their group keys. A string key
// is used as it is unless it is itself valid JSON, and every other key is rendered in its
// canonical JSON encoding, so no two keys share a rendering.
func (f FinalMap) Strings() map[string]interface{} {
	res := make(map[string]interface{}, len(f.entries))
	for _, e := range f.entries {
		res[renderKey(e.Key)] = e.Value
	}
	return res
}

func renderKey(key interface{}) string {
	if b, ok := key.([]byte); ok {
		key = string(b)
	}
	if s, ok := key.(string); ok && !gjson.Valid(s) {
		return s
	}
	ckey, _ := grouping.CanonicalKey(key)
	return ckey
}

// Finalize converts each state of a GroupMap into its final value. Barrier states are emitted as
// the barrier's output and passed through the steps which follow the barrier; if those steps
// produce nothing, the emitted value stands. The memory of a capturing filter is replayed into
// the steps which follow it instead, and a key for which they produce nothing has no final value.
// Finalizing a map twice returns the same result.
func (g *Group) Finalize(m *GroupMap) (FinalMap, error) {
	if m.merged {
		return FinalMap{}, m.checkOpen()
	} else if m.finalized {
		return m.final, nil
	} else if err := m.compatible(g.classification); err != nil {
		return FinalMap{}, err
	}
	res := FinalMap{
		entries: make([]FinalEntry, 0, m.entries.Len()),
		index:   make(map[string]int, m.entries.Len()),
	}
	var finalizeErr error
	m.entries.Ascend(func(e *entry) bool {
		m.release(e)
		value, ok, err := g.finalValue(e.state)
		if err != nil {
			finalizeErr = err
			return false
		} else if !ok {
			m.log.V(6).Info("value pipeline produced nothing", "key", e.ckey)
			return true
		}
		res.index[e.ckey] = len(res.entries)
		res.entries = append(res.entries, FinalEntry{Key: e.key, Value: value})
		return true
	})
	if finalizeErr != nil {
		return FinalMap{}, finalizeErr
	}
	m.finalized = true
	m.final = res
	m.log.V(1).Info("finalized group map", "keys", res.Len())
	return res, nil
}

func (g *Group) finalValue(state interface{}) (interface{}, bool, error) {
	c := g.classification
	if c.Kind == None {
		return state, true, nil
	}
	var emitted interface{}
	if c.capturesFilter() {
		steps := g.value.Clone().Steps()
		replayed, err := steps[c.Barrier].(grouping.CapturingFilter).Replay(state)
		if err != nil {
			return nil, false, err
		}
		out, err := pipeline.Run(steps[c.Barrier+1:c.Nested+1], replayed)
		if err != nil {
			return nil, false, err
		} else if len(out) == 0 {
			return nil, false, nil
		}
		emitted = out[0].Value
	} else {
		var err error
		if emitted, err = g.nested(g.value).Emit(state); err != nil {
			return nil, false, err
		}
	}
	after := g.value.Steps()[c.Nested+1:]
	if len(after) == 0 {
		return emitted, true, nil
	}
	out, err := pipeline.New(after...).Clone().Run(grouping.NewTraverser(emitted))
	if err != nil {
		return nil, false, err
	} else if len(out) == 0 {
		return emitted, true, nil
	}
	return out[0].Value, true, nil
}
