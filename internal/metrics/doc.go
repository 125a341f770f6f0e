// Package metrics aggregates session results into reports.
//
// # Aggregate
//
// [Aggregate] is a pure function over the complete result set of a run. It
// sorts latencies internally, so the arrival order of results never changes
// the output:
//
//	report, err := metrics.Aggregate(res.Sessions, res.Duration)
//	if errors.Is(err, metrics.ErrEmptyResultSet) {
//		// nothing ran
//	}
//
// Percentiles use the nearest-rank rule: the value at index
// floor(n*p/100) of the ascending sample, clamped to the last element. The
// median uses the standard definition.
//
// Failed sessions are grouped by the first line of their error message
// (truncated to 80 characters). At most [MaxErrorGroups] groups are kept and
// each lists at most [MaxGroupIDs] session ids plus the full count.
//
// # Collector
//
// [Collector] tracks approximate live statistics during a run using an HDR
// histogram. It implements the runner observer contract through its Observe
// method and feeds progress lines and the terminal dashboard.
package metrics
