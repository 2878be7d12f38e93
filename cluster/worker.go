package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-sif/grouping/aggregate"
	"github.com/go-sif/grouping/codec"
	uuid "github.com/gofrs/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Worker submits partial group maps to a Coordinator
type Worker struct {
	id          string
	opts        *NodeOptions
	log         logr.Logger
	compression codec.Compression
	conn        *grpc.ClientConn
	client      *partialServiceClient
}

// CreateWorker is a factory for Workers
func CreateWorker(opts *NodeOptions) (*Worker, error) {
	// default certain options if not supplied
	if err := ensureDefaultNodeOptionsValues(opts); err != nil {
		return nil, err
	}
	if len(opts.CoordinatorHost) == 0 {
		return nil, fmt.Errorf("NodeOptions.CoordinatorHost must be the address of the Coordinator")
	}
	compression, err := codec.ParseCompression(opts.Compression)
	if err != nil {
		return nil, err
	}
	// generate worker ID
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate UUID: %v", err)
	}
	return &Worker{
		id:          id.String(),
		opts:        opts,
		log:         opts.Log.WithName("worker").WithValues("worker", id.String()),
		compression: compression,
	}, nil
}

// ID returns the ID of this worker
func (w *Worker) ID() string {
	return w.id
}

// IsCoordinator returns true for coordinators
func (w *Worker) IsCoordinator() bool {
	return false
}

// Dial connects to the Coordinator, retrying at one second intervals until it responds or
// WorkerJoinRetries attempts have failed
func (w *Worker) Dial(ctx context.Context, dialOpts ...grpc.DialOption) error {
	dialOpts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)
	conn, err := grpc.NewClient(w.opts.coordinatorConnectionString(), dialOpts...)
	if err != nil {
		return fmt.Errorf("fail to dial: %v", err)
	}
	w.conn = conn
	w.client = &partialServiceClient{cc: conn}
	for i := 0; ; i++ {
		if _, err = w.Ping(ctx); err == nil {
			w.log.V(1).Info("connected to coordinator", "address", w.opts.coordinatorConnectionString())
			return nil
		} else if i+1 >= w.opts.WorkerJoinRetries {
			break
		}
		w.log.V(1).Info("unable to reach coordinator, retrying", "attempt", i+1, "error", err.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("unable to reach coordinator after %d attempts: %w", w.opts.WorkerJoinRetries, err)
}

// Ping fetches the statistics of the Coordinator
func (w *Worker) Ping(ctx context.Context) (*structpb.Struct, error) {
	if w.client == nil {
		return nil, fmt.Errorf("cannot ping before dialing the coordinator")
	}
	ctx, cancel := context.WithTimeout(ctx, w.opts.RPCTimeout)
	defer cancel()
	return w.client.Ping(ctx, &emptypb.Empty{})
}

// Submit sends a partial group map to the Coordinator for a job. The map is finalized by the
// Coordinator, not the Worker, and must not be used again.
func (w *Worker) Submit(ctx context.Context, jobID string, m *aggregate.GroupMap) error {
	if w.client == nil {
		return fmt.Errorf("cannot submit before dialing the coordinator")
	}
	buf, err := m.Encode(w.compression)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, w.opts.RPCTimeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, jobIDKey, jobID, workerIDKey, w.id)
	if _, err := w.client.Submit(ctx, wrapperspb.Bytes(buf)); err != nil {
		return err
	}
	w.log.V(1).Info("submitted group map", "job", jobID, "keys", m.Len(), "bytes", len(buf))
	return nil
}

// Close disconnects from the Coordinator
func (w *Worker) Close() error {
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
