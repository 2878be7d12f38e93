package stats

import (
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

const statisticRollingWindows = 5

// RunStatistics contains statistics about a running group-by. Partitions report concurrently, so
// every method is safe for concurrent use.
type RunStatistics struct {
	lock                        sync.Mutex
	started                     bool
	finished                    bool
	startTime                   time.Time
	totalRuntime                int64
	elementsProcessed           []int64 // by partition
	supersteps                  int64
	merges                      int64
	recentPartitionRuntimes     []int64 // for rolling average of recent partition processing times
	recentPartitionRuntimesHead int
	superstepRuntimes           []int64 // most recent superstep runtimes
	mergePhaseRuntimes          []int64 // most recent merge phase runtimes
	superstepRuntimesHead       int

	// temp vars
	currentSuperstepStartTime time.Time
	currentMergeStartTime     time.Time
}

// Start triggers statistics tracking, if it hasn't been started already
func (rs *RunStatistics) Start(numPartitions int) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if !rs.started {
		rs.started = true
		rs.startTime = time.Now()
		rs.elementsProcessed = make([]int64, numPartitions)
		rs.recentPartitionRuntimes = make([]int64, statisticRollingWindows)
		rs.superstepRuntimes = make([]int64, statisticRollingWindows)
		rs.mergePhaseRuntimes = make([]int64, statisticRollingWindows)
	}
}

// Finish completes statistics tracking
func (rs *RunStatistics) Finish() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if !rs.finished {
		rs.finished = true
		rs.totalRuntime = time.Since(rs.startTime).Nanoseconds()
	}
}

// StartSuperstep tracks the beginning of a new superstep
func (rs *RunStatistics) StartSuperstep() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.currentSuperstepStartTime = time.Now()
}

// EndSuperstep tracks the end of a superstep
func (rs *RunStatistics) EndSuperstep() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.superstepRuntimes[rs.superstepRuntimesHead] = time.Since(rs.currentSuperstepStartTime).Nanoseconds()
	rs.superstepRuntimesHead = (rs.superstepRuntimesHead + 1) % statisticRollingWindows
	rs.supersteps++
}

// StartMerge tracks the beginning of the merge phase of a superstep
func (rs *RunStatistics) StartMerge() {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.currentMergeStartTime = time.Now()
}

// EndMerge tracks the end of the merge phase of a superstep, during which numMerged maps were merged
func (rs *RunStatistics) EndMerge(numMerged int) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.mergePhaseRuntimes[rs.superstepRuntimesHead] = time.Since(rs.currentMergeStartTime).Nanoseconds()
	rs.merges += int64(numMerged)
}

// EndPartition tracks the processing of a partition, which took runtime to incorporate numElements elements
func (rs *RunStatistics) EndPartition(pidx int, numElements int, runtime time.Duration) {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	rs.recentPartitionRuntimes[rs.recentPartitionRuntimesHead] = runtime.Nanoseconds()
	rs.recentPartitionRuntimesHead = (rs.recentPartitionRuntimesHead + 1) % len(rs.recentPartitionRuntimes)
	rs.elementsProcessed[pidx] += int64(numElements)
}

// GetStartTime returns the start time of the group-by
func (rs *RunStatistics) GetStartTime() time.Time {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.startTime
}

// GetRuntime returns the running time of the group-by
func (rs *RunStatistics) GetRuntime() int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if rs.finished {
		return rs.totalRuntime
	}
	return time.Since(rs.startTime).Nanoseconds()
}

// GetNumElementsProcessed returns the number of elements which have been processed so far, counted by partition
func (rs *RunStatistics) GetNumElementsProcessed() []int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	res := make([]int64, len(rs.elementsProcessed))
	copy(res, rs.elementsProcessed)
	return res
}

// GetNumSupersteps returns the number of completed supersteps
func (rs *RunStatistics) GetNumSupersteps() int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.supersteps
}

// GetNumMerges returns the number of group maps which have been merged into another
func (rs *RunStatistics) GetNumMerges() int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return rs.merges
}

// GetCurrentPartitionProcessingTime returns a rolling average of partition processing time
func (rs *RunStatistics) GetCurrentPartitionProcessingTime() int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	var total int64
	for _, d := range rs.recentPartitionRuntimes {
		total += d
	}
	return total / statisticRollingWindows
}

// GetSuperstepRuntimes returns the most recent superstep runtimes
func (rs *RunStatistics) GetSuperstepRuntimes() []int64 {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	res := make([]int64, len(rs.superstepRuntimes))
	copy(res, rs.superstepRuntimes)
	return res
}

// ToMessage converts this struct into a protobuf message
func (rs *RunStatistics) ToMessage() *structpb.Struct {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	elements := make([]interface{}, len(rs.elementsProcessed))
	for i, n := range rs.elementsProcessed {
		elements[i] = float64(n)
	}
	// every value here is representable by structpb, so NewStruct cannot fail
	msg, _ := structpb.NewStruct(map[string]interface{}{
		"started":           rs.started,
		"finished":          rs.finished,
		"startTime":         float64(rs.startTime.UnixNano()),
		"totalRuntime":      float64(rs.totalRuntime),
		"supersteps":        float64(rs.supersteps),
		"merges":            float64(rs.merges),
		"elementsProcessed": elements,
	})
	return msg
}
