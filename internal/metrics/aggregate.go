package metrics

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/torosent/sessionswarm/internal/session"
)

// ErrEmptyResultSet is returned when Aggregate is called without results.
var ErrEmptyResultSet = errors.New("empty result set")

const (
	// MaxErrorGroups caps the number of distinct error groups in a report.
	MaxErrorGroups = 10
	// MaxGroupIDs caps the number of session ids listed per error group.
	MaxGroupIDs = 10
	// MaxSignatureLen caps the length of an error group signature.
	MaxSignatureLen = 80

	unknownError = "Unknown error"
)

// LatencyStats summarises session durations in seconds.
type LatencyStats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	P90    float64 `json:"p90" yaml:"p90"`
	P95    float64 `json:"p95" yaml:"p95"`
	P99    float64 `json:"p99" yaml:"p99"`
}

// ErrorGroup collects failed sessions sharing the same error signature.
type ErrorGroup struct {
	Signature string `json:"signature" yaml:"signature"`
	IDs       []int  `json:"ids" yaml:"ids"`     // first MaxGroupIDs ids, ascending
	Count     int    `json:"count" yaml:"count"` // total sessions in the group
}

// Truncated reports whether IDs lists fewer sessions than Count.
func (g ErrorGroup) Truncated() bool {
	return g.Count > len(g.IDs)
}

// Report is the aggregated, read-only view of a complete run.
type Report struct {
	Total           int           `json:"total" yaml:"total"`
	Successes       int           `json:"successes" yaml:"successes"`
	Failures        int           `json:"failures" yaml:"failures"`
	SuccessRate     float64       `json:"success_rate" yaml:"success_rate"`
	Duration        time.Duration `json:"-" yaml:"-"`
	DurationSeconds float64       `json:"duration_seconds" yaml:"duration_seconds"`
	Throughput      float64       `json:"sessions_per_sec" yaml:"sessions_per_sec"`
	Latency         LatencyStats  `json:"latency_seconds" yaml:"latency_seconds"`
	StatusCodes     []StatusCount `json:"status_codes" yaml:"status_codes"`
	ErrorGroups     []ErrorGroup  `json:"error_groups,omitempty" yaml:"error_groups,omitempty"`
	MoreErrorGroups int           `json:"more_error_groups,omitempty" yaml:"more_error_groups,omitempty"`
}

// Aggregate computes the report for a complete set of session results. wall
// is the caller-measured duration of the whole dispatch and only feeds the
// throughput figure. The input order does not affect the output.
func Aggregate(results []session.Result, wall time.Duration) (Report, error) {
	if len(results) == 0 {
		return Report{}, ErrEmptyResultSet
	}

	total := len(results)
	elapsed := make([]float64, 0, total)
	statuses := make(map[string]int)
	successes := 0
	for _, res := range results {
		elapsed = append(elapsed, res.ElapsedSeconds())
		statuses[res.Status.String()]++
		if res.Success {
			successes++
		}
	}
	sort.Float64s(elapsed)

	report := Report{
		Total:           total,
		Successes:       successes,
		Failures:        total - successes,
		SuccessRate:     float64(successes) / float64(total),
		Duration:        wall,
		DurationSeconds: wall.Seconds(),
		Latency: LatencyStats{
			Mean:   mean(elapsed),
			Median: Median(elapsed),
			Min:    elapsed[0],
			Max:    elapsed[len(elapsed)-1],
			P90:    Percentile(elapsed, 90),
			P95:    Percentile(elapsed, 95),
			P99:    Percentile(elapsed, 99),
		},
		StatusCodes: SortStatusCounts(statuses),
	}
	if wall > 0 {
		report.Throughput = float64(total) / wall.Seconds()
	}

	groups := GroupErrors(results)
	if len(groups) > MaxErrorGroups {
		report.MoreErrorGroups = len(groups) - MaxErrorGroups
		groups = groups[:MaxErrorGroups]
	}
	report.ErrorGroups = groups

	return report, nil
}

// Percentile returns the nearest-rank percentile of an ascending slice: the
// element at index floor(len*p/100), clamped to the last element. No
// interpolation is performed.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// Median returns the middle value of an ascending slice, averaging the two
// middle values when the length is even.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mean sums an ascending slice so the result does not depend on arrival order.
func mean(sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

// ErrorSignature returns the grouping key for an error message: its first
// line, truncated to MaxSignatureLen runes.
func ErrorSignature(message string) string {
	if message == "" {
		return unknownError
	}
	line := message
	if idx := strings.IndexByte(line, '\n'); idx != -1 {
		line = line[:idx]
	}
	line = strings.TrimRight(line, "\r")
	return session.Truncate(line, MaxSignatureLen)
}

// GroupErrors groups failed results by ErrorSignature. Groups are ordered by
// descending count, then signature; ids within a group are ascending and
// capped at MaxGroupIDs.
func GroupErrors(results []session.Result) []ErrorGroup {
	byKey := make(map[string][]int)
	for _, res := range results {
		if res.Success {
			continue
		}
		key := ErrorSignature(res.Error)
		byKey[key] = append(byKey[key], res.ID)
	}
	if len(byKey) == 0 {
		return nil
	}

	groups := make([]ErrorGroup, 0, len(byKey))
	for key, ids := range byKey {
		sort.Ints(ids)
		shown := ids
		if len(shown) > MaxGroupIDs {
			shown = shown[:MaxGroupIDs]
		}
		groups = append(groups, ErrorGroup{
			Signature: key,
			IDs:       append([]int(nil), shown...),
			Count:     len(ids),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count == groups[j].Count {
			return groups[i].Signature < groups[j].Signature
		}
		return groups[i].Count > groups[j].Count
	})
	return groups
}

