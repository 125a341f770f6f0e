package output

import (
	"fmt"
	"io"

	"github.com/torosent/sessionswarm/internal/metrics"
	"github.com/torosent/sessionswarm/internal/progress"
)

// ProgressPrinter writes one line per progress notification. When a
// collector is attached the line also carries live success/failure counts.
type ProgressPrinter struct {
	writer    io.Writer
	collector *metrics.Collector
}

func NewProgressPrinter(w io.Writer, collector *metrics.Collector) *ProgressPrinter {
	if w == nil {
		w = io.Discard
	}
	return &ProgressPrinter{writer: w, collector: collector}
}

// Progress implements progress.Notifier.
func (p *ProgressPrinter) Progress(u progress.Update) {
	line := fmt.Sprintf("Progress: %d/%d (%.1f%%)", u.Completed, u.Total, u.Percent())
	if p.collector != nil {
		snap := p.collector.Snapshot()
		line += fmt.Sprintf(" | ok %d | failed %d | %.1f sessions/s | p90 %s",
			snap.Successes, snap.Failures, snap.SessionsPerSec, snap.P90Latency)
	}
	fmt.Fprintln(p.writer, line)
}
