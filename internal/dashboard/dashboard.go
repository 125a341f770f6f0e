// Package dashboard renders a live terminal view of a running session swarm.
package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/sessionswarm/internal/metrics"
	"github.com/torosent/sessionswarm/internal/progress"
	"github.com/torosent/sessionswarm/internal/session"
)

// RunConfig holds run parameters for display.
type RunConfig struct {
	TargetURL     string
	Protocol      string
	Total         int
	MaxConcurrent int
	Rate          int
	Timeout       time.Duration
	ConfigFile    string
}

// Dashboard renders a live terminal UI fed by a metrics.Collector and
// progress notifications.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid           *ui.Grid
	progressGauge  *widgets.Gauge
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	statusList     *widgets.List
	summaryPara    *widgets.Paragraph
	metricsPara    *widgets.Paragraph
	latencyHistory []float64
	startTime      time.Time
	cfg            RunConfig
	latest         progress.Update
}

// New initialises the terminal and creates a Dashboard. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}
	d := newDashboard(collector, cfg, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
		cfg:            cfg,
		latest:         progress.Update{Total: cfg.Total},
	}
	d.initWidgets()
	return d
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mean latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Sessions Completed"
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.statusList = widgets.NewList()
	d.statusList.Title = "Status Distribution"
	d.statusList.Rows = []string{"Awaiting data"}
	d.statusList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.statusList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Sessions"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.5, d.metricsPara),
			ui.NewCol(0.5, d.statusList),
		),
	)
}

// Progress implements progress.Notifier.
func (d *Dashboard) Progress(u progress.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = u
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop renders a last frame, stops the loop and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.update()
	d.render()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	snap := d.collector.Snapshot()

	d.mu.Lock()
	defer d.mu.Unlock()

	if snap.Completed > 0 {
		meanMs := durationMs(snap.MeanLatency)
		d.latencyHistory = append(d.latencyHistory, meanMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Real-time Latency | Mean: %.2fms | Min: %.2fms | Max: %.2fms",
			meanMs, durationMs(snap.MinLatency), durationMs(snap.MaxLatency),
		)
	}

	d.progressGauge.Percent = gaugePercent(d.latest)
	d.progressGauge.Label = fmt.Sprintf("%d/%d (%.1f%%)", d.latest.Completed, d.latest.Total, d.latest.Percent())

	successRate := 0.0
	if snap.Completed > 0 {
		successRate = float64(snap.Successes) / float64(snap.Completed) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nElapsed: %s | Success Rate: %.1f%% | Press q to abort",
		d.cfg.TargetURL,
		formatRunParams(d.cfg),
		time.Since(d.startTime).Round(time.Second),
		successRate,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Completed:         %d\nSuccessful:        %d\nFailed:            %d\nSessions/sec:      %.2f\nSuccess Rate:      %.1f%%",
		snap.Completed,
		snap.Successes,
		snap.Failures,
		snap.SessionsPerSec,
		successRate,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		durationMs(snap.MinLatency),
		durationMs(snap.MeanLatency),
		durationMs(snap.P50Latency),
		durationMs(snap.P90Latency),
		durationMs(snap.P99Latency),
	)

	d.statusList.Rows = formatStatusRows(snap.StatusCodes, int(snap.Completed))
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.grid == nil {
		return
	}
	ui.Render(d.grid)
}

func durationMs(v time.Duration) float64 {
	return float64(v) / float64(time.Millisecond)
}

func gaugePercent(u progress.Update) int {
	p := int(u.Percent())
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

func formatStatusRows(rows []metrics.StatusCount, total int) []string {
	if len(rows) == 0 {
		return []string{"Awaiting data"}
	}
	formatted := make([]string, 0, len(rows))
	for _, row := range rows {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:%s) %d (%.1f%%)", row.Status, statusColor(row.Status), row.Count, row.Share(total)))
	}
	return formatted
}

func statusColor(status string) string {
	code, err := strconv.Atoi(status)
	if err != nil || !session.Status(code).Successful() {
		return "red"
	}
	return "green"
}

func formatRunParams(cfg RunConfig) string {
	var parts []string

	if cfg.Protocol != "" && cfg.Protocol != "http" {
		parts = append(parts, fmt.Sprintf("Protocol: %s", cfg.Protocol))
	}
	if cfg.Total > 0 {
		parts = append(parts, fmt.Sprintf("Sessions: %d", cfg.Total))
	}
	if cfg.MaxConcurrent > 0 {
		parts = append(parts, fmt.Sprintf("Max concurrent: %d", cfg.MaxConcurrent))
	}
	if cfg.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", cfg.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}
	if cfg.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", cfg.Timeout))
	}
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
