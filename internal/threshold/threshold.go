// Package threshold evaluates pass/fail assertions against a run report.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/sessionswarm/internal/metrics"
)

const (
	MetricDuration = "session_duration"
	MetricFailed   = "session_failed"
	MetricSessions = "sessions"
)

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // session_duration, session_failed or sessions
	Aggregate string  // p90, p95, p99, avg, median, min, max, rate, count
	Operator  string  // <, <=, >, >=, ==
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold `json:"-" yaml:"-"`
	Raw       string    `json:"threshold" yaml:"threshold"`
	Actual    float64   `json:"actual" yaml:"actual"`
	Pass      bool      `json:"pass" yaml:"pass"`
	Message   string    `json:"message" yaml:"message"`
}

// Evaluator evaluates thresholds against a report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the report.
func (e *Evaluator) Evaluate(report metrics.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, report))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, report metrics.Report) Result {
	actual, err := extractMetricValue(t, report)
	if err != nil {
		return Result{
			Threshold: t,
			Raw:       t.Raw,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Raw:       t.Raw,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "session_duration:p95 < 2000"  (latency percentile in ms)
//   - "session_duration:avg < 800"   (mean latency in ms)
//   - "session_failed:rate < 0.05"   (failure rate as decimal)
//   - "session_failed:count < 10"    (failure count)
//   - "sessions:rate > 20"           (sessions per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'session_duration:p95 < 2000')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !contains(validAggregates(metric), aggregate) {
		if len(validAggregates(metric)) == 0 {
			return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s, %s, %s)", metric, MetricDuration, MetricFailed, MetricSessions)
		}
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(validAggregates(metric), ", "))
	}

	if !contains([]string{"<", "<=", ">", ">=", "=="}, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

func validAggregates(metric string) []string {
	switch metric {
	case MetricDuration:
		return []string{"p50", "median", "p90", "p95", "p99", "avg", "mean", "min", "max"}
	case MetricFailed, MetricSessions:
		return []string{"rate", "count"}
	default:
		return nil
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, report metrics.Report) (float64, error) {
	switch t.Metric {
	case MetricDuration:
		return extractLatencyMetric(t.Aggregate, report.Latency)
	case MetricFailed:
		if t.Aggregate == "count" {
			return float64(report.Failures), nil
		}
		if report.Total == 0 {
			return 0, nil
		}
		return float64(report.Failures) / float64(report.Total), nil
	case MetricSessions:
		if t.Aggregate == "count" {
			return float64(report.Total), nil
		}
		return report.Throughput, nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

// extractLatencyMetric returns the requested latency in milliseconds.
func extractLatencyMetric(aggregate string, latency metrics.LatencyStats) (float64, error) {
	var seconds float64
	switch aggregate {
	case "p50", "median":
		seconds = latency.Median
	case "p90":
		seconds = latency.P90
	case "p95":
		seconds = latency.P95
	case "p99":
		seconds = latency.P99
	case "avg", "mean":
		seconds = latency.Mean
	case "min":
		seconds = latency.Min
	case "max":
		seconds = latency.Max
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for %s", aggregate, MetricDuration)
	}
	return seconds * 1000, nil
}

func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
