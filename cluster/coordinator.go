package cluster

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/docker/docker/pkg/locker"
	"github.com/go-logr/logr"
	"github.com/go-sif/grouping/aggregate"
	"github.com/go-sif/grouping/internal/stats"
	iutil "github.com/go-sif/grouping/internal/util"
	"github.com/hashicorp/go-multierror"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// job is a group-by whose partial maps are being collected from workers
type job struct {
	id        string
	group     *aggregate.Group
	expected  int
	submitted map[string]bool
	global    *aggregate.GroupMap
	errors    *multierror.Error
	done      chan struct{}
	result    *aggregate.FinalMap
}

// Coordinator collects partial group maps from Workers, merging all the submissions for a job
// before finalizing it
type Coordinator struct {
	*statsSourceServer
	opts      *NodeOptions
	log       logr.Logger
	server    *grpc.Server
	jobLocks  *locker.Locker
	jobsLock  sync.Mutex
	jobs      map[string]*job
	statsLock sync.Mutex
}

// CreateCoordinator creates a Coordinator. It does not accept submissions until it is started.
func CreateCoordinator(opts *NodeOptions) (*Coordinator, error) {
	// default certain options if not supplied
	if err := ensureDefaultNodeOptionsValues(opts); err != nil {
		return nil, err
	}
	runStats := &stats.RunStatistics{}
	runStats.Start(1)
	return &Coordinator{
		statsSourceServer: createStatsSource(runStats),
		opts:              opts,
		log:               opts.Log.WithName("coordinator"),
		jobLocks:          locker.New(),
		jobs:              make(map[string]*job),
	}, nil
}

// IsCoordinator returns true for coordinators
func (c *Coordinator) IsCoordinator() bool {
	return true
}

// RegisterJob prepares the Coordinator to receive partial maps for a job from expectedWorkers Workers
func (c *Coordinator) RegisterJob(id string, group *aggregate.Group, expectedWorkers int) error {
	if expectedWorkers < 1 {
		return fmt.Errorf("job %s must expect at least one worker", id)
	}
	global, err := group.NewMap()
	if err != nil {
		return err
	}
	c.jobsLock.Lock()
	defer c.jobsLock.Unlock()
	if _, exists := c.jobs[id]; exists {
		return fmt.Errorf("job %s is already registered", id)
	}
	c.jobs[id] = &job{
		id:        id,
		group:     group,
		expected:  expectedWorkers,
		submitted: make(map[string]bool, expectedWorkers),
		global:    global,
		done:      make(chan struct{}),
	}
	c.log.V(1).Info("registered job", "job", id, "workers", expectedWorkers, "group", group.String())
	return nil
}

func (c *Coordinator) lookupJob(id string) (*job, bool) {
	c.jobsLock.Lock()
	defer c.jobsLock.Unlock()
	j, ok := c.jobs[id]
	return j, ok
}

// Start the Coordinator - blocking unless run in a goroutine
func (c *Coordinator) Start() error {
	lis, err := net.Listen("tcp", c.opts.connectionString())
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	return c.Serve(lis)
}

// Serve accepts submissions on an existing listener - blocking unless run in a goroutine
func (c *Coordinator) Serve(lis net.Listener) error {
	server := grpc.NewServer()
	server.RegisterService(&partialServiceDesc, c)
	c.jobsLock.Lock()
	c.server = server
	c.jobsLock.Unlock()
	c.log.Info("starting coordinator", "address", lis.Addr().String())
	return server.Serve(lis)
}

// GracefulStop stops the Coordinator once in-flight submissions are complete
func (c *Coordinator) GracefulStop() {
	c.jobsLock.Lock()
	server := c.server
	c.jobsLock.Unlock()
	if server != nil {
		server.GracefulStop()
	}
}

// Stop stops the Coordinator immediately
func (c *Coordinator) Stop() {
	c.jobsLock.Lock()
	server := c.server
	c.jobsLock.Unlock()
	if server != nil {
		server.Stop()
	}
}

func fromMetadata(ctx context.Context, key string) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "request has no metadata")
	}
	values := md.Get(key)
	if len(values) != 1 || len(values[0]) == 0 {
		return "", status.Errorf(codes.InvalidArgument, "request metadata must contain exactly one %s", key)
	}
	return values[0], nil
}

// Submit merges a Worker's partial group map into its job
func (c *Coordinator) Submit(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	jobID, err := fromMetadata(ctx, jobIDKey)
	if err != nil {
		return nil, err
	}
	workerID, err := fromMetadata(ctx, workerIDKey)
	if err != nil {
		return nil, err
	}
	j, ok := c.lookupJob(jobID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "job %s is not registered", jobID)
	}
	c.jobLocks.Lock(jobID)
	defer c.jobLocks.Unlock(jobID)
	if j.submitted[workerID] {
		return nil, status.Errorf(codes.AlreadyExists, "worker %s has already submitted to job %s", workerID, jobID)
	} else if len(j.submitted) == j.expected {
		return nil, status.Errorf(codes.FailedPrecondition, "job %s has already received %d submissions", jobID, j.expected)
	}
	j.submitted[workerID] = true
	if len(j.submitted) == j.expected {
		defer close(j.done)
	}
	start := time.Now()
	if err := c.mergeSubmission(j, req.GetValue()); err != nil {
		err = fmt.Errorf("submission from worker %s could not be merged: %w", workerID, err)
		j.errors = multierror.Append(j.errors, err)
		c.log.Error(err, "rejected submission", "job", jobID, "worker", workerID)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	c.log.V(4).Info("merged submission", "job", jobID, "worker", workerID, "keys", j.global.Len(), "received", len(j.submitted), "expected", j.expected)
	c.statsLock.Lock()
	c.statsTracker.EndPartition(0, len(req.GetValue()), time.Since(start))
	c.statsLock.Unlock()
	return &emptypb.Empty{}, nil
}

func (c *Coordinator) mergeSubmission(j *job, data []byte) error {
	partial, err := j.group.MapFromBytes(data)
	if err != nil {
		return err
	}
	c.statsLock.Lock()
	defer c.statsLock.Unlock()
	c.statsTracker.StartMerge()
	if _, err := aggregate.Merge(j.global, partial); err != nil {
		return err
	}
	c.statsTracker.EndMerge(1)
	return nil
}

// Wait blocks until every expected Worker has submitted to a job, then returns its final result.
// If any submission was rejected, the errors are returned instead.
func (c *Coordinator) Wait(ctx context.Context, id string) (aggregate.FinalMap, error) {
	j, ok := c.lookupJob(id)
	if !ok {
		return aggregate.FinalMap{}, fmt.Errorf("job %s is not registered", id)
	}
	select {
	case <-ctx.Done():
		return aggregate.FinalMap{}, ctx.Err()
	case <-j.done:
	}
	c.jobLocks.Lock(id)
	defer c.jobLocks.Unlock(id)
	if j.errors != nil {
		j.errors.ErrorFormat = iutil.FormatMultiError
		return aggregate.FinalMap{}, j.errors.ErrorOrNil()
	}
	if j.result != nil {
		return *j.result, nil
	}
	res, err := j.group.Finalize(j.global)
	if err != nil {
		return aggregate.FinalMap{}, err
	}
	j.result = &res
	c.log.V(1).Info("finalized job", "job", id, "keys", res.Len())
	return res, nil
}
