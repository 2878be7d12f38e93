package steps

import (
	"fmt"
	"testing"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/pipeline"
	"github.com/stretchr/testify/require"
)

func traversers(bulk int64, values ...interface{}) []grouping.Traverser {
	res := make([]grouping.Traverser, len(values))
	for i, v := range values {
		res[i] = grouping.Traverser{Value: v, Bulk: bulk}
	}
	return res
}

func values(ts []grouping.Traverser) []interface{} {
	res := make([]interface{}, len(ts))
	for i, t := range ts {
		res[i] = t.Value
	}
	return res
}

func TestMapAndIdentity(t *testing.T) {
	p := pipeline.New(
		Identity(),
		Map("double", func(t grouping.Traverser) (interface{}, error) {
			return t.Value.(int) * 2, nil
		}),
	)
	out, err := p.Run(traversers(3, 1, 2)...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{2, 4}, values(out))
	require.Equal(t, int64(3), out[0].Bulk)
	require.Equal(t, "[identity, double]", p.String())
}

func TestMapPanicIsRecovered(t *testing.T) {
	p := pipeline.New(Map("explode", func(t grouping.Traverser) (interface{}, error) {
		panic("boom")
	}))
	_, err := p.Run(grouping.NewTraverser(1))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestMapErrorPassesThrough(t *testing.T) {
	sentinel := fmt.Errorf("sentinel")
	p := pipeline.New(Map("fail", func(t grouping.Traverser) (interface{}, error) {
		return nil, sentinel
	}))
	_, err := p.Run(grouping.NewTraverser(1))
	require.Equal(t, sentinel, err)
}

func TestConstant(t *testing.T) {
	out, err := pipeline.New(Constant("c")).Run(traversers(1, 1, 2)...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"c", "c"}, values(out))
}

func TestUnfoldKeepsBulk(t *testing.T) {
	out, err := pipeline.New(Unfold()).Run(
		grouping.Traverser{Value: []interface{}{"a", "b"}, Bulk: 2},
		grouping.NewTraverser("c"),
	)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"a", "b", "c"}, values(out))
	require.Equal(t, int64(2), out[1].Bulk)
	require.Equal(t, int64(1), out[2].Bulk)
}

func TestFilters(t *testing.T) {
	even := Filter("even", func(t grouping.Traverser) (bool, error) {
		return t.Value.(int)%2 == 0, nil
	})
	out, err := pipeline.New(even).Run(traversers(1, 1, 2, 3, 4)...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{2, 4}, values(out))

	out, err = pipeline.New(Is(3)).Run(traversers(1, 1, 2, 3, int64(3), 3.0)...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{3, int64(3), 3.0}, values(out))

	out, err = pipeline.New(Not("even", func(t grouping.Traverser) (bool, error) {
		return t.Value.(int)%2 == 0, nil
	})).Run(traversers(1, 1, 2, 3)...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{1, 3}, values(out))
}

func TestFieldAndHas(t *testing.T) {
	docs := traversers(1,
		`{"name": "alice", "age": 30, "score": 1.5, "tags": ["x"]}`,
		`{"name": "bob"}`,
	)
	out, err := pipeline.New(Field("age")).Run(docs...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(30)}, values(out))

	out, err = pipeline.New(Field("score")).Run(docs...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{1.5}, values(out))

	out, err = pipeline.New(Field("tags"), Field("0")).Run(docs...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"x"}, values(out))

	out, err = pipeline.New(Has("age"), Field("name")).Run(docs...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"alice"}, values(out))

	_, err = pipeline.New(Field("age")).Run(grouping.NewTraverser(42))
	require.NotNil(t, err)
}

func TestPath(t *testing.T) {
	out, err := pipeline.New(Path("$.items[*].id")).Run(
		grouping.NewTraverser(`{"items": [{"id": 1}, {"id": 2}]}`),
	)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(1), int64(2)}, values(out))

	out, err = pipeline.New(Path("$.a")).Run(
		grouping.NewTraverser(map[string]interface{}{"a": "b"}),
	)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"b"}, values(out))

	_, err = pipeline.New(Path("$[")).Run(grouping.NewTraverser(`{}`))
	require.NotNil(t, err)
}

func TestFieldCompactsNestedValues(t *testing.T) {
	out, err := pipeline.New(Field("o")).Run(traversers(1,
		`{"o": {"a":1,"b":[1,2]}}`,
		`{"o": { "a": 1,
			"b": [ 1, 2 ] }}`,
	)...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{`{"a":1,"b":[1,2]}`, `{"a":1,"b":[1,2]}`}, values(out))

	out, err = pipeline.New(Field("o"), Deduplicate()).Run(traversers(1, `{"o": [1, 2]}`, `{"o":[1,2]}`)...)
	require.Nil(t, err)
	require.Len(t, values(out), 1)
}

func TestCountHonoursBulk(t *testing.T) {
	out, err := pipeline.New(Counter()).Run(
		grouping.Traverser{Value: "a", Bulk: 3},
		grouping.NewTraverser("b"),
	)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(4)}, values(out))

	out, err = pipeline.New(Counter()).Run()
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(0)}, values(out))
}

func TestNumericBarriers(t *testing.T) {
	in := []grouping.Traverser{
		{Value: 3, Bulk: 2},
		{Value: int64(-1), Bulk: 1},
		{Value: 10, Bulk: 1},
	}
	out, err := pipeline.New(Sum()).Run(in...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(15)}, values(out))

	out, err = pipeline.New(Min()).Run(in...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(-1)}, values(out))

	out, err = pipeline.New(Max()).Run(in...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(10)}, values(out))

	out, err = pipeline.New(Sum()).Run(grouping.NewTraverser(0.5), grouping.NewTraverser(1))
	require.Nil(t, err)
	require.Equal(t, []interface{}{1.5}, values(out))

	// an empty sum is zero, an empty minimum is nothing
	out, err = pipeline.New(Sum()).Run()
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(0)}, values(out))
	out, err = pipeline.New(Min()).Run()
	require.Nil(t, err)
	require.Len(t, out, 0)

	_, err = pipeline.New(Sum()).Run(grouping.NewTraverser("x"))
	require.NotNil(t, err)
}

func TestMean(t *testing.T) {
	out, err := pipeline.New(Averager()).Run(
		grouping.Traverser{Value: 1, Bulk: 3},
		grouping.NewTraverser(5),
	)
	require.Nil(t, err)
	require.Equal(t, []interface{}{2.0}, values(out))

	m := Averager()
	require.Nil(t, m.Add(grouping.NewTraverser(4)))
	require.Equal(t, grouping.MeanState{Sum: 4, Count: 1}, m.State())
	require.Nil(t, m.Restore(grouping.MeanState{Sum: 10, Count: 4}))
	res, err := m.Emit(m.State())
	require.Nil(t, err)
	require.Equal(t, 2.5, res)
}

func TestFoldRepeatsBulk(t *testing.T) {
	out, err := pipeline.New(Folder()).Run(
		grouping.Traverser{Value: "a", Bulk: 2},
		grouping.NewTraverser("b"),
	)
	require.Nil(t, err)
	require.Equal(t, []interface{}{[]interface{}{"a", "a", "b"}}, values(out))

	f := Folder()
	require.Nil(t, f.Add(grouping.NewTraverser(1)))
	snapshot := f.State().([]interface{})
	require.Nil(t, f.Add(grouping.NewTraverser(2)))
	require.Equal(t, []interface{}{1}, snapshot)
}

func TestDistinct(t *testing.T) {
	in := traversers(2, "b", "a", "b", "c")
	out, err := pipeline.New(DistinctValues()).Run(in...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{[]interface{}{"a", "b", "c"}}, values(out))

	out, err = pipeline.New(CountDistinct()).Run(in...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(3)}, values(out))
	require.Equal(t, grouping.SupplyingBarrier, CountDistinct().BarrierKind())
}

func TestDedupAndLimit(t *testing.T) {
	out, err := pipeline.New(Deduplicate()).Run(traversers(3, "a", "b", "a")...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{"a", "b"}, values(out))
	require.Equal(t, int64(1), out[0].Bulk)

	out, err = pipeline.New(Limiter(4), Counter()).Run(traversers(3, "a", "b", "c")...)
	require.Nil(t, err)
	require.Equal(t, []interface{}{int64(4)}, values(out))

	out, err = pipeline.New(Limiter(0)).Run(traversers(1, "a")...)
	require.Nil(t, err)
	require.Len(t, out, 0)
}

func TestCloneHasFreshState(t *testing.T) {
	c := Counter()
	require.Nil(t, c.Add(grouping.Traverser{Value: 1, Bulk: 5}))
	fresh := c.Clone().(*Count)
	require.False(t, fresh.Ready())
	require.Equal(t, int64(0), fresh.GetCount())

	l := Limiter(1)
	_, ok, err := l.Filter(grouping.NewTraverser("a"))
	require.Nil(t, err)
	require.True(t, ok)
	_, ok, _ = l.Filter(grouping.NewTraverser("b"))
	require.False(t, ok)
	_, ok, _ = l.Clone().(*Limit).Filter(grouping.NewTraverser("b"))
	require.True(t, ok)
}
