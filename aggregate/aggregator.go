package aggregate

import (
	"github.com/go-sif/grouping"
	errors "github.com/go-sif/grouping/errors"
	"github.com/go-sif/grouping/pipeline"
)

// An Aggregator incorporates elements, one at a time, into a GroupMap
type Aggregator struct {
	group   *Group
	current *GroupMap
}

// NewAggregator creates an Aggregator which owns a fresh GroupMap, sealing the Group
func (g *Group) NewAggregator() (*Aggregator, error) {
	m, err := g.NewMap()
	if err != nil {
		return nil, err
	}
	return &Aggregator{group: g, current: m}, nil
}

// AggregatorFor creates an Aggregator which continues to accumulate into an existing GroupMap
func (g *Group) AggregatorFor(m *GroupMap) (*Aggregator, error) {
	if err := m.compatible(g.classification); err != nil {
		return nil, err
	}
	g.seal()
	return &Aggregator{group: g, current: m}, nil
}

// CurrentState returns the GroupMap this Aggregator accumulates into
func (a *Aggregator) CurrentState() *GroupMap {
	return a.current
}

// IncorporateAll incorporates a batch of Traversers, stopping at the first error
func (a *Aggregator) IncorporateAll(ts []grouping.Traverser) error {
	for _, t := range ts {
		if err := a.Incorporate(t.Value, t.Bulk); err != nil {
			return err
		}
	}
	return nil
}

// Incorporate routes an element, occurring bulk times, to its group and accumulates it there.
// An element for which the key pipeline produces nothing is dropped.
func (a *Aggregator) Incorporate(element interface{}, bulk int64) error {
	m := a.current
	if err := m.checkOpen(); err != nil {
		return err
	}
	if bulk < 1 {
		return errors.InvalidBulkError{Bulk: bulk}
	}
	t := grouping.Traverser{Value: element, Bulk: bulk}
	kt, ok, err := a.group.key.Clone().First(t)
	if err != nil {
		return err
	} else if !ok {
		m.log.V(6).Info("dropped element without a key", "element", element)
		return nil
	}
	ckey, err := grouping.CanonicalKey(kt.Value)
	if err != nil {
		return err
	}
	e, exists := m.entries.Get(&entry{ckey: ckey})
	if !exists {
		e = &entry{ckey: ckey, key: kt.Value}
	}
	hasState := exists
	if a.group.classification.Kind == None {
		hasState, err = a.runToCompletion(e, t, hasState)
	} else {
		hasState, err = a.stream(e, t, hasState)
	}
	if err != nil {
		return err
	}
	if !exists && hasState {
		m.entries.ReplaceOrInsert(e)
	}
	m.log.V(6).Info("incorporated element", "key", ckey, "bulk", bulk, "stored", hasState)
	return nil
}

// runToCompletion evaluates a fresh value pipeline against a single element. Only a productive
// run replaces the key's state.
func (a *Aggregator) runToCompletion(e *entry, t grouping.Traverser, hasState bool) (bool, error) {
	out, err := a.group.value.Clone().Run(t)
	if err != nil {
		return hasState, err
	} else if len(out) == 0 {
		return hasState, nil
	}
	values := make([]interface{}, len(out))
	for i, o := range out {
		values[i] = o.Value
	}
	e.state = values
	return true, nil
}

// stream pushes an element through the steps before the capturing step of the key's private
// value pipeline, and into the capturing step itself. The state stays in the pipeline until the
// map needs it.
func (a *Aggregator) stream(e *entry, t grouping.Traverser, hasState bool) (bool, error) {
	c := a.group.classification
	if e.instance == nil {
		e.instance = a.group.value.Clone()
		if hasState {
			if err := a.group.capture(e.instance).Restore(e.state); err != nil {
				e.instance = nil
				return hasState, err
			}
		}
	}
	steps := e.instance.Steps()
	passed, err := pipeline.Run(steps[:c.Barrier], []grouping.Traverser{t})
	if err != nil {
		return hasState, err
	}
	ready := false
	switch s := steps[c.Barrier].(type) {
	case grouping.ReducingStep:
		for _, p := range passed {
			if err := s.Add(p); err != nil {
				return hasState, err
			}
		}
		ready = s.Ready()
	case grouping.CapturingFilter:
		for _, p := range passed {
			_, kept, err := s.Filter(p)
			if err != nil {
				return hasState, err
			}
			ready = ready || kept
		}
	}
	if ready {
		e.live = true
		return true, nil
	}
	if c.Kind == FilteringWithNestedBarrier && !hasState && a.group.nested(e.instance).Empty() != nil {
		if c.capturesFilter() {
			e.live = true
		} else {
			e.state = a.group.nested(e.instance).Empty()
		}
		return true, nil
	}
	return hasState, nil
}
