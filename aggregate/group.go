// Package aggregate implements grouping: partitioning elements by a key pipeline, accumulating
// each group's elements through a value pipeline, merging partial results computed independently,
// and producing a final key to value mapping.
package aggregate

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/codec"
	errors "github.com/go-sif/grouping/errors"
	"github.com/go-sif/grouping/pipeline"
	"github.com/go-sif/grouping/steps"
)

// An Option configures a Group
type Option func(*Group)

// WithLogger sets the logger used by a Group, and every map and aggregator it creates
func WithLogger(log logr.Logger) Option {
	return func(g *Group) {
		g.log = log
	}
}

// WithName names a Group in log output
func WithName(name string) Option {
	return func(g *Group) {
		g.name = name
	}
}

// WithCompression sets the Compression used when serializing the Group's maps
func WithCompression(c codec.Compression) Option {
	return func(g *Group) {
		g.compression = c
	}
}

// A Group configures a group-by: the key pipeline which computes each element's group key, and the
// value pipeline which accumulates each group's elements.
//
// The first call to By sets the key pipeline, and the second the value pipeline. Until then, an
// element is its own key, and a group's value is the list of its elements. A Group is sealed once
// it has created a map, after which its pipelines cannot change.
type Group struct {
	name           string
	log            logr.Logger
	compression    codec.Compression
	key            *pipeline.Pipeline
	value          *pipeline.Pipeline
	modulated      int
	classification Classification
	sealed         atomic.Bool
	sealOnce       sync.Once
}

// NewGroup creates a Group which keys elements by themselves and folds their values into lists
func NewGroup(opts ...Option) *Group {
	g := &Group{
		name:        "group",
		log:         logr.Discard(),
		compression: codec.LZ4Compression,
		key:         pipeline.New(steps.Identity()),
	}
	g.setValue(pipeline.New(steps.Folder()))
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.WithName(g.name)
	return g
}

// By sets the key pipeline on the first call and the value pipeline on the second
func (g *Group) By(p *pipeline.Pipeline) error {
	if p == nil {
		return errors.ConfigurationError{Step: g.String(), Reason: "by() requires a pipeline"}
	}
	if g.sealed.Load() {
		return errors.ConfigurationError{Step: g.String(), Reason: "group is in use and cannot be modified"}
	}
	switch g.modulated {
	case 0:
		g.key = p
	case 1:
		g.setValue(p)
	default:
		return errors.ConfigurationError{Step: g.String(), Reason: "key and value pipelines for group have already been set"}
	}
	g.modulated++
	return nil
}

// ReplaceKey substitutes the key pipeline, as a rewrite of the enclosing traversal would
func (g *Group) ReplaceKey(p *pipeline.Pipeline) error {
	if g.sealed.Load() {
		return errors.ConfigurationError{Step: g.String(), Reason: "group is in use and its key pipeline cannot be replaced"}
	}
	g.key = p
	return nil
}

// ReplaceValue substitutes the value pipeline and reclassifies it
func (g *Group) ReplaceValue(p *pipeline.Pipeline) error {
	if g.sealed.Load() {
		return errors.ConfigurationError{Step: g.String(), Reason: "group is in use and its value pipeline cannot be replaced"}
	}
	g.setValue(p)
	return nil
}

// setValue installs a value pipeline. A lone selector accumulates into a list.
func (g *Group) setValue(p *pipeline.Pipeline) {
	if p.Len() == 1 {
		if _, isBarrier := p.Steps()[0].(grouping.Barrier); !isBarrier {
			switch p.Steps()[0].Type() {
			case grouping.MapStepType, grouping.FlatMapStepType:
				p = p.Append(steps.Folder())
			}
		}
	}
	g.value = p
	g.classification = Classify(p)
}

// Key returns the key pipeline
func (g *Group) Key() *pipeline.Pipeline {
	return g.key
}

// Value returns the value pipeline
func (g *Group) Value() *pipeline.Pipeline {
	return g.value
}

// Classification returns the Classification of the current value pipeline
func (g *Group) Classification() Classification {
	return g.classification
}

// Requirements returns the guarantees a host must provide for the elements handed to this Group
func (g *Group) Requirements() []grouping.Requirement {
	return []grouping.Requirement{grouping.RequireObject, grouping.RequireBulk}
}

// String returns a textual representation of this Group
func (g *Group) String() string {
	return fmt.Sprintf("%s(%s,%s)", g.name, g.key, g.value)
}

// captured is the step of a value pipeline whose state is kept for each key
type captured interface {
	State() interface{}
	Restore(state interface{}) error
}

// capture returns the capturing step of a value pipeline instance
func (g *Group) capture(instance *pipeline.Pipeline) captured {
	return instance.Steps()[g.classification.Barrier].(captured)
}

// nested returns the first supplying or reducing barrier of a value pipeline instance
func (g *Group) nested(instance *pipeline.Pipeline) grouping.ReducingStep {
	return instance.Steps()[g.classification.Nested].(grouping.ReducingStep)
}

// seal prevents further changes to the Group's pipelines
func (g *Group) seal() {
	g.sealOnce.Do(func() {
		g.sealed.Store(true)
		g.log.V(1).Info("sealed group", "key", g.key.String(), "value", g.value.String(), "classification", g.classification.String())
	})
}
