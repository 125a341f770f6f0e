package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/torosent/sessionswarm/internal/metrics"
	"github.com/torosent/sessionswarm/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	Run              RunInfo
	Report           metrics.Report
	ThresholdSummary *ThresholdSummary
}

// ThresholdSummary counts threshold outcomes for the HTML report.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []threshold.Result
}

func summarizeThresholds(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"seconds": formatSeconds,
	"formatFloat": func(f float64) string {
		return fmt.Sprintf("%.2f", f)
	},
	"formatPercent": func(part, total int) string {
		return fmt.Sprintf("%.1f", percent(part, total))
	},
	"barWidth": func(row metrics.StatusCount, total int) string {
		return fmt.Sprintf("%.0f", row.Share(total)*3)
	},
	"formatIDs": formatIDs,
}).Parse(htmlTemplate))

// GenerateHTMLReport renders a standalone HTML report.
func GenerateHTMLReport(w io.Writer, run RunInfo, report metrics.Report, thresholds []threshold.Result) error {
	data := HTMLReportData{
		Run:              run,
		Report:           report,
		ThresholdSummary: summarizeThresholds(thresholds),
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

// WriteHTMLReport renders the report into path while holding an exclusive
// lock on path+".lock", so concurrent runs sharing an output path do not
// interleave their writes.
func WriteHTMLReport(path string, run RunInfo, report metrics.Report, thresholds []threshold.Result) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := GenerateHTMLReport(f, run, report, thresholds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Session Load Test Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .card.warning {
            border-left-color: #f59e0b;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .bar {
            display: inline-block;
            height: 10px;
            background: #667eea;
            border-radius: 2px;
            vertical-align: middle;
        }
        .ids {
            font-family: monospace;
            font-size: 0.85rem;
            color: #4b5563;
        }
        .no-data {
            text-align: center;
            padding: 40px;
            color: #6c757d;
            font-style: italic;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Session Load Test Report</h1>
            <div class="meta" style="margin-top: 5px;">Target: <a href="{{.Run.Target}}" style="color: white; text-decoration: underline;">{{.Run.Target}}</a> ({{.Run.Protocol}})</div>
            <div class="meta">Run {{.Run.ID}} | Started: {{.Run.StartedAt.Format "2006-01-02 15:04:05"}} | Duration: {{seconds .Report.DurationSeconds}} | Max concurrent: {{.Run.MaxConcurrent}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Total Sessions</h3>
                    <div class="value">{{.Report.Total}}</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Report.Successes}}</div>
                    <div class="subvalue">{{formatPercent .Report.Successes .Report.Total}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Report.Failures}}</div>
                    <div class="subvalue">{{formatPercent .Report.Failures .Report.Total}}%</div>
                </div>
                <div class="card">
                    <h3>Sessions/sec</h3>
                    <div class="value">{{formatFloat .Report.Throughput}}</div>
                </div>
            </div>

            <div class="section">
                <h2>Response Time Statistics</h2>
                <div class="latency-grid">
                    <div class="latency-item">
                        <div class="label">Average</div>
                        <div class="value">{{seconds .Report.Latency.Mean}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Median</div>
                        <div class="value">{{seconds .Report.Latency.Median}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Min</div>
                        <div class="value">{{seconds .Report.Latency.Min}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Max</div>
                        <div class="value">{{seconds .Report.Latency.Max}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P90</div>
                        <div class="value">{{seconds .Report.Latency.P90}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P95</div>
                        <div class="value">{{seconds .Report.Latency.P95}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P99</div>
                        <div class="value">{{seconds .Report.Latency.P99}}</div>
                    </div>
                </div>
            </div>

            <div class="section">
                <h2>Status Distribution</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Status</th>
                            <th>Count</th>
                            <th>Share</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Report.StatusCodes}}
                        <tr>
                            <td><strong>{{.Status}}</strong></td>
                            <td>{{.Count}}</td>
                            <td>{{formatPercent .Count $.Report.Total}}% <span class="bar" style="width: {{barWidth . $.Report.Total}}px"></span></td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .Report.ErrorGroups}}
            <div class="section">
                <h2>Error Details</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Error</th>
                            <th>Sessions</th>
                            <th>Total</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Report.ErrorGroups}}
                        <tr>
                            <td>{{.Signature}}</td>
                            <td class="ids">{{formatIDs .IDs}}{{if .Truncated}} ...{{end}}</td>
                            <td>{{.Count}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
                {{if .Report.MoreErrorGroups}}
                <p class="no-data">... and {{.Report.MoreErrorGroups}} more error types</p>
                {{end}}
            </div>
            {{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Raw}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">PASS</span>
                                {{else}}
                                <span class="badge badge-error">FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
