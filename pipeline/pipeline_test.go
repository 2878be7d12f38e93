package pipeline_test

import (
	"testing"

	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/pipeline"
	"github.com/go-sif/grouping/steps"
	"github.com/stretchr/testify/require"
)

func TestEmptyPipelineIsIdentity(t *testing.T) {
	p := pipeline.New()
	out, ok, err := p.First(grouping.Traverser{Value: "a", Bulk: 2})
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, grouping.Traverser{Value: "a", Bulk: 2}, out)
}

func TestFirstUnproductive(t *testing.T) {
	p := pipeline.New(steps.Field("missing"))
	_, ok, err := p.First(grouping.NewTraverser(`{"a": 1}`))
	require.Nil(t, err)
	require.False(t, ok)
}

func TestCloneResetsState(t *testing.T) {
	p := pipeline.New(steps.Counter())
	out, err := p.Run(grouping.NewTraverser(1), grouping.NewTraverser(2))
	require.Nil(t, err)
	require.Equal(t, int64(2), out[0].Value)

	// the original keeps counting, a clone starts from nothing
	out, err = p.Run(grouping.NewTraverser(3))
	require.Nil(t, err)
	require.Equal(t, int64(3), out[0].Value)
	out, err = p.Clone().Run(grouping.NewTraverser(3))
	require.Nil(t, err)
	require.Equal(t, int64(1), out[0].Value)
}

func TestAppendDoesNotModify(t *testing.T) {
	p := pipeline.New(steps.Identity())
	q := p.Append(steps.Folder())
	require.Equal(t, 1, p.Len())
	require.Equal(t, 2, q.Len())
	require.Equal(t, "[identity, fold]", q.String())
}

func TestBarrierConsumesAllInput(t *testing.T) {
	p := pipeline.New(steps.Field("v"), steps.Sum(), steps.Map("neg", func(t grouping.Traverser) (interface{}, error) {
		return -t.Value.(int64), nil
	}))
	out, err := p.Run(
		grouping.NewTraverser(`{"v": 2}`),
		grouping.Traverser{Value: `{"v": 3}`, Bulk: 2},
		grouping.NewTraverser(`{}`),
	)
	require.Nil(t, err)
	require.Len(t, out, 1)
	require.Equal(t, int64(-8), out[0].Value)
	require.Equal(t, int64(1), out[0].Bulk)
}

func TestBarrierAfterEmptyInput(t *testing.T) {
	p := pipeline.New(steps.Filter("none", func(t grouping.Traverser) (bool, error) {
		return false, nil
	}), steps.Counter())
	out, err := p.Run(grouping.NewTraverser("a"))
	require.Nil(t, err)
	require.Equal(t, int64(0), out[0].Value)
}

type unsupported struct{}

func (unsupported) Name() string            { return "unsupported" }
func (unsupported) Type() grouping.StepType { return grouping.MapStepType }
func (u unsupported) Clone() grouping.Step  { return u }

func TestUnsupportedStep(t *testing.T) {
	_, err := pipeline.New(unsupported{}).Run(grouping.NewTraverser(1))
	require.NotNil(t, err)
}
