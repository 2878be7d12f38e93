package aggregate

import (
	"github.com/go-logr/logr"
	"github.com/go-sif/grouping"
	errors "github.com/go-sif/grouping/errors"
	"github.com/go-sif/grouping/pipeline"
	"github.com/gofrs/uuid"
	"github.com/google/btree"
)

const btreeDegree = 32

// entry is the accumulated state of a single group key. While live, the key's private value
// pipeline holds a newer state than the entry itself.
type entry struct {
	ckey     string
	key      interface{}
	state    interface{}
	instance *pipeline.Pipeline // private value pipeline of this key, or nil if it must be rebuilt from state
	live     bool
}

func lessEntry(a, b *entry) bool {
	return a.ckey < b.ckey
}

// A GroupMap holds the partial result of a Group: one state per group key, kept in canonical key
// order. A GroupMap has a single owner and is not safe for concurrent use. It can be merged into
// another map of the same Group exactly once, and finalized exactly once, after which it only
// serves its cached FinalMap.
type GroupMap struct {
	id             string
	group          *Group
	classification Classification
	entries        *btree.BTreeG[*entry]
	finalized      bool
	merged         bool
	final          FinalMap
	log            logr.Logger
}

// NewMap creates an empty GroupMap for this Group, sealing the Group
func (g *Group) NewMap() (*GroupMap, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return g.newMapWithID(id.String()), nil
}

func (g *Group) newMapWithID(id string) *GroupMap {
	g.seal()
	return &GroupMap{
		id:             id,
		group:          g,
		classification: g.classification,
		entries:        btree.NewG[*entry](btreeDegree, lessEntry),
		log:            g.log.WithValues("map", id),
	}
}

// ID returns the unique identifier of this GroupMap
func (m *GroupMap) ID() string {
	return m.id
}

// Classification returns the Classification of the Group which created this GroupMap
func (m *GroupMap) Classification() Classification {
	return m.classification
}

// Len returns the number of keys in this GroupMap
func (m *GroupMap) Len() int {
	return m.entries.Len()
}

// Finalized returns true iff this GroupMap has been finalized
func (m *GroupMap) Finalized() bool {
	return m.finalized
}

// Keys returns the group keys of this GroupMap, in canonical order
func (m *GroupMap) Keys() []interface{} {
	keys := make([]interface{}, 0, m.entries.Len())
	m.entries.Ascend(func(e *entry) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// State returns the accumulated state of a group key
func (m *GroupMap) State(key interface{}) (interface{}, error) {
	ckey, err := grouping.CanonicalKey(key)
	if err != nil {
		return nil, err
	}
	e, ok := m.entries.Get(&entry{ckey: ckey})
	if !ok {
		return nil, errors.MissingKeyError{}
	}
	m.snapshot(e)
	return e.state, nil
}

// snapshot copies the state of an entry's value pipeline into the entry
func (m *GroupMap) snapshot(e *entry) {
	if e.live {
		e.state = m.group.capture(e.instance).State()
		e.live = false
	}
}

// release snapshots an entry and discards its value pipeline
func (m *GroupMap) release(e *entry) {
	m.snapshot(e)
	e.instance = nil
}

// checkOpen returns an error if this GroupMap can no longer be modified
func (m *GroupMap) checkOpen() error {
	if m.merged {
		return errors.MergedError{ID: m.id}
	} else if m.finalized {
		return errors.FinalizedError{ID: m.id}
	}
	return nil
}

// compatible returns an error unless states classified by o can be combined with states classified by m
func (m *GroupMap) compatible(o Classification) error {
	if m.classification.Combiner != o.Combiner {
		return errors.IncompatibleMapError{Left: m.classification.String(), Right: o.String()}
	}
	return nil
}
