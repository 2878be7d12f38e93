// Package cluster ships partial group maps from workers to a coordinator over gRPC. Workers
// aggregate their share of the elements locally and submit the resulting map; the coordinator
// merges every submission for a job at the barrier point and finalizes the result.
package cluster

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-sif/grouping/codec"
)

const (
	jobIDKey    = "sif-job-id"
	workerIDKey = "sif-worker-id"
)

// Node is a member of a grouping cluster, either coordinating or submitting work
type Node interface {
	IsCoordinator() bool
}

// NodeOptions are options for a Node, configuring elements of a grouping cluster
type NodeOptions struct {
	Port              int           // port for this Node to bind to
	Host              string        // hostname for this Node to bind to
	CoordinatorPort   int           // port for the Coordinator Node (potentially identical to Port if this is the Coordinator)
	CoordinatorHost   string        // [REQUIRED for Workers] hostname of the Coordinator Node
	WorkerJoinRetries int           // how many times a Worker should retry connecting to the Coordinator (at one second intervals)
	RPCTimeout        time.Duration // timeout for all RPC calls
	Compression       string        // compression used by Workers when submitting group maps ("lz4", "zstd" or "none")
	Log               logr.Logger   // logger for this Node
}

// CloneNodeOptions makes a copy of a NodeOptions
func CloneNodeOptions(opts *NodeOptions) *NodeOptions {
	return &NodeOptions{
		Port:              opts.Port,
		Host:              opts.Host,
		CoordinatorPort:   opts.CoordinatorPort,
		CoordinatorHost:   opts.CoordinatorHost,
		WorkerJoinRetries: opts.WorkerJoinRetries,
		RPCTimeout:        opts.RPCTimeout,
		Compression:       opts.Compression,
		Log:               opts.Log,
	}
}

func ensureDefaultNodeOptionsValues(opts *NodeOptions) error {
	// default certain options if not supplied
	if opts.Port == 0 {
		opts.Port = 1643
	}
	if len(opts.Host) == 0 {
		opts.Host = "0.0.0.0"
	}
	if opts.CoordinatorPort == 0 {
		opts.CoordinatorPort = 1643
	}
	if opts.RPCTimeout == 0 {
		opts.RPCTimeout = time.Duration(5) * time.Second
	}
	if opts.WorkerJoinRetries == 0 {
		opts.WorkerJoinRetries = 5
	}
	if len(opts.Compression) == 0 {
		opts.Compression = codec.LZ4Compression.String()
	}
	if opts.Log.GetSink() == nil {
		opts.Log = logr.Discard()
	}
	if _, err := codec.ParseCompression(opts.Compression); err != nil {
		return fmt.Errorf("NodeOptions.Compression is invalid: %w", err)
	}
	return nil
}

// connectionString returns the connection string for this node
func (o *NodeOptions) connectionString() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// coordinatorConnectionString returns the connection string for the coordinator
func (o *NodeOptions) coordinatorConnectionString() string {
	return fmt.Sprintf("%s:%d", o.CoordinatorHost, o.CoordinatorPort)
}
