package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/sessionswarm/internal/session"
)

// Collector accumulates live statistics while a run is in progress. Its
// percentiles come from an HDR histogram and are approximate; the final
// report is always computed by Aggregate.
type Collector struct {
	mu         sync.Mutex
	hist       *hdrhistogram.Histogram
	successes  int64
	failures   int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
	statuses   map[string]int
	start      time.Time
}

// Snapshot is a point-in-time view of a Collector.
type Snapshot struct {
	Completed      int64
	Successes      int64
	Failures       int64
	MinLatency     time.Duration
	MaxLatency     time.Duration
	MeanLatency    time.Duration
	P50Latency     time.Duration
	P90Latency     time.Duration
	P99Latency     time.Duration
	Elapsed        time.Duration
	SessionsPerSec float64
	StatusCodes    []StatusCount
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 10 minutes with 3 significant figures.
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &Collector{
		hist:     h,
		statuses: make(map[string]int),
		start:    time.Now(),
	}
}

// Start resets the clock used for the live session rate.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Observe records one finished session. It is safe for concurrent use.
func (c *Collector) Observe(res session.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latency := res.Elapsed
	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.successes+c.failures == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if res.Success {
		c.successes++
	} else {
		c.failures++
	}
	c.statuses[res.Status.String()]++
}

// Snapshot returns the current live statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	completed := c.successes + c.failures
	elapsed := time.Since(c.start)
	snap := Snapshot{
		Completed:   completed,
		Successes:   c.successes,
		Failures:    c.failures,
		MinLatency:  c.minLatency,
		MaxLatency:  c.maxLatency,
		Elapsed:     elapsed,
		StatusCodes: SortStatusCounts(c.statuses),
	}
	if completed > 0 {
		snap.MeanLatency = time.Duration(int64(c.sumLatency) / completed)
	}
	if c.hist.TotalCount() > 0 {
		snap.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		snap.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	if elapsed > 0 && completed > 0 {
		snap.SessionsPerSec = float64(completed) / elapsed.Seconds()
	}
	return snap
}
