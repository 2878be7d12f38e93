package aggregate

import (
	"fmt"
	"sort"
	"testing"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/pipeline"
	"github.com/go-sif/grouping/steps"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type element struct {
	key   string
	value int
	bulk  int64
}

func (e element) doc() string {
	return fmt.Sprintf(`{"k": %q, "v": %d}`, e.key, e.value)
}

func elementGenerator() *rapid.Generator[element] {
	return rapid.Custom(func(t *rapid.T) element {
		return element{
			key:   rapid.SampledFrom([]string{"a", "b", "c", "d"}).Draw(t, "key"),
			value: rapid.IntRange(-50, 50).Draw(t, "value"),
			bulk:  rapid.Int64Range(1, 4).Draw(t, "bulk"),
		}
	})
}

var valuePipelines = map[string]func() []grouping.Step{
	"count":         func() []grouping.Step { return []grouping.Step{steps.Counter()} },
	"sum":           func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.Sum()} },
	"min":           func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.Min()} },
	"max":           func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.Max()} },
	"mean":          func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.Averager()} },
	"countDistinct": func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.CountDistinct()} },
	"distinct":      func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.DistinctValues()} },
	"dedup":         func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.Deduplicate(), steps.Counter()} },
	"dedupSum":      func() []grouping.Step { return []grouping.Step{steps.Field("v"), steps.Deduplicate(), steps.Sum()} },
	"limitCount":    func() []grouping.Step { return []grouping.Step{steps.Limiter(3), steps.Counter()} },
	"positiveCount": func() []grouping.Step {
		return []grouping.Step{steps.Field("v"), steps.Filter("positive", func(t grouping.Traverser) (bool, error) {
			return t.Value.(int64) > 0, nil
		}), steps.Counter()}
	},
}

func newPropertyGroup(t require.TestingT, name string) *Group {
	g := NewGroup()
	require.Nil(t, g.By(pipeline.New(steps.Field("k"))))
	require.Nil(t, g.By(pipeline.New(valuePipelines[name]()...)))
	return g
}

func TestPartitionedMergeMatchesSingleAggregator(t *testing.T) {
	names := make([]string, 0, len(valuePipelines))
	for name := range valuePipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom(names).Draw(rt, "pipeline")
		elements := rapid.SliceOfN(elementGenerator(), 0, 30).Draw(rt, "elements")
		numPartitions := rapid.IntRange(1, 5).Draw(rt, "partitions")
		g := newPropertyGroup(rt, name)

		reference, err := g.NewAggregator()
		require.Nil(rt, err)
		partials := make([]*Aggregator, numPartitions)
		for i := range partials {
			partials[i], err = g.NewAggregator()
			require.Nil(rt, err)
		}
		for i, e := range elements {
			require.Nil(rt, reference.Incorporate(e.doc(), e.bulk))
			p := rapid.IntRange(0, numPartitions-1).Draw(rt, fmt.Sprintf("partition%d", i))
			require.Nil(rt, partials[p].Incorporate(e.doc(), e.bulk))
		}

		order := make([]int, numPartitions)
		for i := range order {
			order[i] = i
		}
		order = rapid.Permutation(order).Draw(rt, "order")
		maps := make([]*GroupMap, numPartitions)
		for i, p := range order {
			maps[i] = partials[p].CurrentState()
		}
		merged, err := MergeAll(maps...)
		require.Nil(rt, err)

		expected, err := g.Finalize(reference.CurrentState())
		require.Nil(rt, err)
		actual, err := g.Finalize(merged)
		require.Nil(rt, err)
		require.Equal(rt, expected.Strings(), actual.Strings())
	})
}

func TestBulkMatchesRepetition(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom([]string{"count", "sum", "mean", "positiveCount", "dedup", "dedupSum", "limitCount"}).Draw(rt, "pipeline")
		elements := rapid.SliceOfN(elementGenerator(), 1, 20).Draw(rt, "elements")
		g := newPropertyGroup(rt, name)

		bulked, err := g.NewAggregator()
		require.Nil(rt, err)
		repeated, err := g.NewAggregator()
		require.Nil(rt, err)
		for _, e := range elements {
			require.Nil(rt, bulked.Incorporate(e.doc(), e.bulk))
			for i := int64(0); i < e.bulk; i++ {
				require.Nil(rt, repeated.Incorporate(e.doc(), 1))
			}
		}
		expected, err := g.Finalize(repeated.CurrentState())
		require.Nil(rt, err)
		actual, err := g.Finalize(bulked.CurrentState())
		require.Nil(rt, err)
		require.Equal(rt, expected.Strings(), actual.Strings())
	})
}
