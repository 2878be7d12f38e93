// Package bsp runs a group-by in bulk-synchronous supersteps within a single process. Each
// superstep partitions its elements, aggregates every partition concurrently, and merges the
// partial results into a global map at the end of the superstep.
package bsp

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-logr/logr"
	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/aggregate"
	errors "github.com/go-sif/grouping/errors"
	"github.com/go-sif/grouping/internal/stats"
	"golang.org/x/sync/errgroup"
)

// An Option configures a Driver
type Option func(*Driver)

// WithPartitions sets the number of partitions elements are divided into each superstep
func WithPartitions(n int) Option {
	return func(d *Driver) {
		d.numPartitions = n
	}
}

// WithMaxParallel limits the number of partitions which are aggregated or merged at once
func WithMaxParallel(n int) Option {
	return func(d *Driver) {
		d.maxParallel = n
	}
}

// WithLogger sets the logger used by a Driver
func WithLogger(log logr.Logger) Option {
	return func(d *Driver) {
		d.log = log
	}
}

// Statistics describes the progress of a Driver
type Statistics struct {
	StartTime         time.Time
	Runtime           time.Duration
	Supersteps        int64
	Merges            int64
	ElementsProcessed []int64 // by partition
}

// A Driver accumulates elements into a Group over any number of supersteps, and finalizes the
// result once they are complete. A Driver must not be used from more than one goroutine at a time.
type Driver struct {
	group         *aggregate.Group
	numPartitions int
	maxParallel   int
	log           logr.Logger
	global        *aggregate.GroupMap
	stats         *stats.RunStatistics
	result        *aggregate.FinalMap
}

// New creates a Driver for a Group, sealing the Group
func New(group *aggregate.Group, opts ...Option) (*Driver, error) {
	d := &Driver{
		group:         group,
		numPartitions: 4,
		log:           logr.Discard(),
		stats:         &stats.RunStatistics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.numPartitions < 1 {
		d.numPartitions = 1
	}
	if d.maxParallel < 1 {
		d.maxParallel = d.numPartitions
	}
	global, err := group.NewMap()
	if err != nil {
		return nil, err
	}
	d.global = global
	d.stats.Start(d.numPartitions)
	return d, nil
}

// partition assigns elements to partitions by the hash of their canonical encoding
func (d *Driver) partition(elements []grouping.Traverser) ([][]grouping.Traverser, error) {
	parts := make([][]grouping.Traverser, d.numPartitions)
	for _, t := range elements {
		ckey, err := grouping.CanonicalKey(t.Value)
		if err != nil {
			return nil, err
		}
		pidx := xxhash.Sum64String(ckey) % uint64(d.numPartitions)
		parts[pidx] = append(parts[pidx], t)
	}
	return parts, nil
}

// Superstep aggregates a batch of elements and merges the result into the Driver's global map.
// If any partition fails, or ctx is cancelled, the global map is left as it was.
func (d *Driver) Superstep(ctx context.Context, elements []grouping.Traverser) error {
	d.stats.StartSuperstep()
	d.log.V(1).Info("starting superstep", "elements", len(elements), "partitions", d.numPartitions)
	parts, err := d.partition(elements)
	if err != nil {
		return err
	}
	partials := make([]*aggregate.GroupMap, len(parts))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.maxParallel)
	for i := range parts {
		pidx := i
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			agg, err := d.group.NewAggregator()
			if err != nil {
				return err
			}
			if err := agg.IncorporateAll(parts[pidx]); err != nil {
				return err
			}
			partials[pidx] = agg.CurrentState()
			d.stats.EndPartition(pidx, len(parts[pidx]), time.Since(start))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	d.stats.StartMerge()
	merged, err := d.treeMerge(ctx, partials)
	if err != nil {
		return err
	}
	if _, err := aggregate.Merge(d.global, merged); err != nil {
		return err
	}
	d.stats.EndMerge(len(partials))
	d.stats.EndSuperstep()
	d.log.V(1).Info("completed superstep", "keys", d.global.Len())
	return nil
}

// treeMerge merges maps pairwise, one round at a time, until one map remains
func (d *Driver) treeMerge(ctx context.Context, maps []*aggregate.GroupMap) (*aggregate.GroupMap, error) {
	for round := 0; len(maps) > 1; round++ {
		next := make([]*aggregate.GroupMap, (len(maps)+1)/2)
		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(d.maxParallel)
		for i := 0; i < len(maps); i += 2 {
			left := i
			if left+1 == len(maps) {
				next[left/2] = maps[left]
				continue
			}
			eg.Go(func() error {
				if err := egctx.Err(); err != nil {
					return err
				}
				merged, err := aggregate.Merge(maps[left], maps[left+1])
				if err != nil {
					return err
				}
				next[left/2] = merged
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		d.log.V(4).Info("completed merge round", "round", round, "maps", len(next))
		maps = next
	}
	return maps[0], nil
}

// Drain runs one superstep per batch produced by an ElementIterator, until it is exhausted
func (d *Driver) Drain(ctx context.Context, it grouping.ElementIterator) error {
	for it.HasNextBatch() {
		batch, err := it.NextBatch()
		if _, done := err.(errors.NoMoreElementsError); done {
			break
		} else if err != nil {
			return err
		}
		if err := d.Superstep(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// Consume loads every division of a Source with parser, and drains each in turn
func (d *Driver) Consume(ctx context.Context, source grouping.Source, parser grouping.ElementParser) error {
	if source.IsStreaming() {
		return fmt.Errorf("cannot consume a streaming source in supersteps")
	}
	loaders, err := source.Analyze()
	if err != nil {
		return err
	}
	for loaders.HasNext() {
		loader := loaders.Next()
		d.log.V(1).Info("loading elements", "loader", loader.ToString())
		it, err := loader.Load(parser)
		if err != nil {
			return err
		}
		if err := d.Drain(ctx, it); err != nil {
			if c, ok := it.(io.Closer); ok {
				_ = c.Close()
			}
			return err
		}
	}
	return nil
}

// Result finalizes the Driver's global map. No further supersteps may be run once a result has been produced.
func (d *Driver) Result() (aggregate.FinalMap, error) {
	if d.result != nil {
		return *d.result, nil
	}
	res, err := d.group.Finalize(d.global)
	if err != nil {
		return aggregate.FinalMap{}, err
	}
	d.result = &res
	d.stats.Finish()
	d.log.V(1).Info("finalized group", "keys", res.Len(), "runtime", time.Duration(d.stats.GetRuntime()))
	return res, nil
}

// Stats returns a snapshot of the Driver's statistics
func (d *Driver) Stats() Statistics {
	return Statistics{
		StartTime:         d.stats.GetStartTime(),
		Runtime:           time.Duration(d.stats.GetRuntime()),
		Supersteps:        d.stats.GetNumSupersteps(),
		Merges:            d.stats.GetNumMerges(),
		ElementsProcessed: d.stats.GetNumElementsProcessed(),
	}
}

// Run aggregates elements in a single superstep and returns the final result
func Run(ctx context.Context, group *aggregate.Group, elements []grouping.Traverser, opts ...Option) (aggregate.FinalMap, error) {
	d, err := New(group, opts...)
	if err != nil {
		return aggregate.FinalMap{}, err
	}
	if err := d.Superstep(ctx, elements); err != nil {
		return aggregate.FinalMap{}, err
	}
	return d.Result()
}
