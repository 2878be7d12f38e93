package cluster

import (
	"context"

	"github.com/go-sif/grouping/internal/stats"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type statsSourceServer struct {
	statsTracker *stats.RunStatistics
}

// createStatsSource creates a new stats source
func createStatsSource(statsTracker *stats.RunStatistics) *statsSourceServer {
	return &statsSourceServer{statsTracker: statsTracker}
}

// Ping reports the statistics of the Coordinator
func (s *statsSourceServer) Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.statsTracker.ToMessage(), nil
}
