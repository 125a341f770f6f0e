package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/sessionswarm/internal/metrics"
	"github.com/torosent/sessionswarm/internal/threshold"
)

const (
	ruleWidth   = 70
	barMaxWidth = 40
)

// Document is the machine-readable form of a finished run.
type Document struct {
	Run        RunInfo            `json:"run" yaml:"run"`
	Report     metrics.Report     `json:"report" yaml:"report"`
	Thresholds []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Passed     bool               `json:"passed" yaml:"passed"`
}

func NewDocument(run RunInfo, report metrics.Report, thresholds []threshold.Result) Document {
	return Document{
		Run:        run,
		Report:     report,
		Thresholds: thresholds,
		Passed:     threshold.AllPassed(thresholds),
	}
}

// PrintBanner writes the run configuration header shown before dispatch.
func PrintBanner(w io.Writer, run RunInfo) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SESSION LOAD TEST CONFIGURATION")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run ID:           %s\n", run.ID)
	fmt.Fprintf(w, "Started:          %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Target URL:       %s\n", run.Target)
	fmt.Fprintf(w, "Protocol:         %s\n", run.Protocol)
	fmt.Fprintf(w, "Sessions:         %d\n", run.Total)
	fmt.Fprintf(w, "Max concurrent:   %d\n", run.MaxConcurrent)
	if run.RatePerSecond > 0 {
		fmt.Fprintf(w, "Launch rate:      %d/s\n", run.RatePerSecond)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

// PrintReport outputs the human-readable summary report.
func PrintReport(w io.Writer, run RunInfo, report metrics.Report, thresholds []threshold.Result) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "LOAD TEST RESULTS")
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "\nTIMING METRICS:")
	fmt.Fprintf(w, "   Total duration: %.2f seconds\n", report.DurationSeconds)
	fmt.Fprintf(w, "   Throughput: %.2f sessions/second\n", report.Throughput)

	fmt.Fprintln(w, "\nSUCCESS RATE:")
	fmt.Fprintf(w, "   Successful: %d/%d (%.1f%%)\n", report.Successes, report.Total, percent(report.Successes, report.Total))
	fmt.Fprintf(w, "   Failed: %d/%d (%.1f%%)\n", report.Failures, report.Total, percent(report.Failures, report.Total))

	fmt.Fprintln(w, "\nRESPONSE TIME STATISTICS:")
	fmt.Fprintf(w, "   Average:  %.3fs\n", report.Latency.Mean)
	fmt.Fprintf(w, "   Median:   %.3fs\n", report.Latency.Median)
	fmt.Fprintf(w, "   Min:      %.3fs\n", report.Latency.Min)
	fmt.Fprintf(w, "   Max:      %.3fs\n", report.Latency.Max)
	fmt.Fprintf(w, "   P90:      %.3fs\n", report.Latency.P90)
	fmt.Fprintf(w, "   P95:      %.3fs\n", report.Latency.P95)
	fmt.Fprintf(w, "   P99:      %.3fs\n", report.Latency.P99)

	fmt.Fprintln(w, "\nSTATUS DISTRIBUTION:")
	for _, row := range report.StatusCodes {
		share := row.Share(report.Total)
		fmt.Fprintf(w, "   %-12s %4d (%5.1f%%) %s\n", row.Status, row.Count, share, bar(share))
	}

	if len(report.ErrorGroups) > 0 {
		fmt.Fprintf(w, "\nERROR DETAILS (First %d):\n", metrics.MaxErrorGroups)
		fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
		for _, group := range report.ErrorGroups {
			fmt.Fprintf(w, "   %s\n", group.Signature)
			more := ""
			if group.Truncated() {
				more = " ..."
			}
			fmt.Fprintf(w, "   -> Sessions: %s%s (%d total)\n\n", formatIDs(group.IDs), more, group.Count)
		}
		if report.MoreErrorGroups > 0 {
			fmt.Fprintf(w, "   ... and %d more error types\n", report.MoreErrorGroups)
		}
	}

	if len(thresholds) > 0 {
		printThresholds(w, thresholds)
	}

	fmt.Fprintf(w, "\nRun %s completed at %s\n", run.ID, run.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, rule)
}

func printThresholds(w io.Writer, results []threshold.Result) {
	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "\nTHRESHOLDS (%d/%d passed):\n", passed, len(results))
	for _, r := range results {
		mark := "PASS"
		if !r.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "   [%s] %s (actual %.2f)\n", mark, r.Raw, r.Actual)
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// bar scales a percentage to at most barMaxWidth blocks.
func bar(share float64) string {
	n := int(share / (100.0 / barMaxWidth))
	if n < 0 {
		n = 0
	}
	return strings.Repeat("█", n)
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatSeconds(s float64) string {
	return (time.Duration(s * float64(time.Second))).Round(time.Millisecond).String()
}
