package cluster

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/go-sif/grouping"
	"github.com/go-sif/grouping/aggregate"
	"github.com/go-sif/grouping/pipeline"
	"github.com/go-sif/grouping/steps"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func createTestGroup(t *testing.T) *aggregate.Group {
	g := aggregate.NewGroup(aggregate.WithLogger(testr.New(t)))
	require.Nil(t, g.By(pipeline.New(steps.Field("k"))))
	require.Nil(t, g.By(pipeline.New(steps.Field("v"), steps.Averager())))
	return g
}

func createTestElements(n int) []grouping.Traverser {
	res := make([]grouping.Traverser, n)
	for i := range res {
		res[i] = grouping.Traverser{Value: fmt.Sprintf(`{"k": "key%d", "v": %d}`, i%5, i), Bulk: int64(i%2 + 1)}
	}
	return res
}

type testCluster struct {
	coordinator *Coordinator
	listener    *bufconn.Listener
	served      chan error
}

func startTestCluster(t *testing.T) *testCluster {
	coordinator, err := CreateCoordinator(&NodeOptions{Log: testr.New(t)})
	require.Nil(t, err)
	tc := &testCluster{coordinator: coordinator, listener: bufconn.Listen(1 << 20), served: make(chan error, 1)}
	go func() {
		tc.served <- coordinator.Serve(tc.listener)
	}()
	return tc
}

func (tc *testCluster) stop(t *testing.T) {
	tc.coordinator.GracefulStop()
	require.Nil(t, <-tc.served)
}

func (tc *testCluster) worker(t *testing.T, compression string) *Worker {
	w, err := CreateWorker(&NodeOptions{CoordinatorHost: "127.0.0.1", Compression: compression, Log: testr.New(t)})
	require.Nil(t, err)
	require.Nil(t, w.Dial(context.Background(), grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return tc.listener.DialContext(ctx)
	})))
	return w
}

func TestCoordinatorMatchesLocalResult(t *testing.T) {
	defer goleak.VerifyNone(t)
	tc := startTestCluster(t)
	defer tc.stop(t)

	elements := createTestElements(60)
	coordinatorGroup := createTestGroup(t)
	require.Nil(t, tc.coordinator.RegisterJob("job", coordinatorGroup, 3))

	compressions := []string{"lz4", "zstd", "none"}
	for i, compression := range compressions {
		w := tc.worker(t, compression)
		// each worker has its own copy of the group, as it would in its own process
		agg, err := createTestGroup(t).NewAggregator()
		require.Nil(t, err)
		for j := i; j < len(elements); j += len(compressions) {
			require.Nil(t, agg.Incorporate(elements[j].Value, elements[j].Bulk))
		}
		require.Nil(t, w.Submit(context.Background(), "job", agg.CurrentState()))
		require.Nil(t, w.Close())
	}

	res, err := tc.coordinator.Wait(context.Background(), "job")
	require.Nil(t, err)

	local := createTestGroup(t)
	agg, err := local.NewAggregator()
	require.Nil(t, err)
	require.Nil(t, agg.IncorporateAll(elements))
	expected, err := local.Finalize(agg.CurrentState())
	require.Nil(t, err)
	require.Equal(t, expected.Strings(), res.Strings())

	again, err := tc.coordinator.Wait(context.Background(), "job")
	require.Nil(t, err)
	require.Equal(t, res, again)
}

func TestSubmissionErrors(t *testing.T) {
	defer goleak.VerifyNone(t)
	tc := startTestCluster(t)
	defer tc.stop(t)
	require.Nil(t, tc.coordinator.RegisterJob("job", createTestGroup(t), 2))
	require.NotNil(t, tc.coordinator.RegisterJob("job", createTestGroup(t), 2))

	w := tc.worker(t, "lz4")
	defer w.Close()
	stats, err := w.Ping(context.Background())
	require.Nil(t, err)
	require.True(t, stats.GetFields()["started"].GetBoolValue())

	agg, err := createTestGroup(t).NewAggregator()
	require.Nil(t, err)
	require.Nil(t, agg.IncorporateAll(createTestElements(5)))

	err = w.Submit(context.Background(), "unknown", agg.CurrentState())
	require.Equal(t, codes.NotFound, status.Code(err))

	require.Nil(t, w.Submit(context.Background(), "job", agg.CurrentState()))
	err = w.Submit(context.Background(), "job", agg.CurrentState())
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	// a map whose states combine differently is rejected, and reported by Wait
	counts := aggregate.NewGroup()
	require.Nil(t, counts.By(pipeline.New(steps.Field("k"))))
	require.Nil(t, counts.By(pipeline.New(steps.Counter())))
	countAgg, err := counts.NewAggregator()
	require.Nil(t, err)
	require.Nil(t, countAgg.IncorporateAll(createTestElements(5)))
	other := tc.worker(t, "zstd")
	defer other.Close()
	err = other.Submit(context.Background(), "job", countAgg.CurrentState())
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = tc.coordinator.Wait(context.Background(), "job")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "1 errors occurred")
}

func TestWaitHonoursContext(t *testing.T) {
	c, err := CreateCoordinator(&NodeOptions{})
	require.Nil(t, err)
	require.Nil(t, c.RegisterJob("job", createTestGroup(t), 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Wait(ctx, "job")
	require.Equal(t, context.Canceled, err)
	_, err = c.Wait(context.Background(), "missing")
	require.NotNil(t, err)
	var node Node = c
	require.True(t, node.IsCoordinator())
}

func TestWorkerRequiresCoordinatorHost(t *testing.T) {
	_, err := CreateWorker(&NodeOptions{})
	require.NotNil(t, err)
	_, err = CreateWorker(&NodeOptions{CoordinatorHost: "127.0.0.1", Compression: "gzip"})
	require.NotNil(t, err)
}
