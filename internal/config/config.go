package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

type Protocol string

const (
	ProtocolHTTP      Protocol = "http"
	ProtocolWebSocket Protocol = "websocket"
)

// DefaultUserAgent is sent by HTTP sessions unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	TargetURL       string            `mapstructure:"target"`
	Total           int               `mapstructure:"total"`
	Concurrency     int               `mapstructure:"concurrency"`
	Rate            int               `mapstructure:"rate"`
	Timeout         time.Duration     `mapstructure:"timeout"`
	Protocol        Protocol          `mapstructure:"protocol"`
	UserAgent       string            `mapstructure:"user_agent"`
	Headers         map[string]string `mapstructure:"headers"`
	WebSocket       WebSocketConfig   `mapstructure:"websocket"`
	Verbose         bool              `mapstructure:"verbose"`
	VerboseSessions int               `mapstructure:"verbose_sessions"`
	ProgressEvery   int               `mapstructure:"progress_every"`
	JSONOutput      bool              `mapstructure:"json_output"`
	YAMLOutput      bool              `mapstructure:"yaml_output"`
	HTMLOutput      string            `mapstructure:"html_output"`
	Dashboard       bool              `mapstructure:"dashboard"`
	LogErrors       bool              `mapstructure:"log_errors"`
	LogLevel        string            `mapstructure:"log_level"`
	Thresholds      []string          `mapstructure:"thresholds"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	ConfigFile      string            `mapstructure:"-"`
}

type WebSocketConfig struct {
	Message          string        `mapstructure:"message"`           // Message sent after the handshake
	ReceiveTimeout   time.Duration `mapstructure:"receive_timeout"`   // Timeout for the first reply
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"` // WebSocket handshake timeout
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector endpoint (host:port)
	Protocol    string  `mapstructure:"protocol"`     // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`     // Disable TLS to the collector
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0 - 1.0
	ServiceName string  `mapstructure:"service_name"` // Resource service.name
	Propagate   *bool   `mapstructure:"propagate"`    // Inject W3C trace headers; defaults to Enabled()
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers should be injected.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the run configuration before any session is launched.
func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if issue := validateTarget(target, c.Protocol); issue != "" {
		issues = append(issues, issue)
	}

	if c.Total < 1 {
		issues = append(issues, "total must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.VerboseSessions < 0 {
		issues = append(issues, "verbose_sessions must be >= 0")
	}
	if c.ProgressEvery < 0 {
		issues = append(issues, "progress_every must be >= 0")
	}
	if c.JSONOutput && c.YAMLOutput {
		issues = append(issues, "json-output and yaml-output are mutually exclusive")
	}
	if c.Dashboard && (c.JSONOutput || c.YAMLOutput) {
		issues = append(issues, "dashboard cannot be combined with json-output or yaml-output")
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}

	if c.Protocol == ProtocolWebSocket {
		if c.WebSocket.ReceiveTimeout < 0 {
			issues = append(issues, "websocket: receive_timeout must be >= 0")
		}
		if c.WebSocket.HandshakeTimeout < 0 {
			issues = append(issues, "websocket: handshake_timeout must be >= 0")
		}
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings returns non-fatal notices about the configuration.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("High concurrency configured (%d sessions). Ensure you have authorization to test the target system.", c.Concurrency))
	}
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("High launch rate configured (%d/s). Ensure you have authorization to test the target system.", c.Rate))
	}
	if c.Concurrency > c.Total && c.Total > 0 {
		warnings = append(warnings, fmt.Sprintf("Concurrency %d exceeds total %d; at most %d sessions will run at once.", c.Concurrency, c.Total, c.Total))
	}
	return warnings
}

func validateTarget(target string, protocol Protocol) string {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Sprintf("target %q is not a valid URL: %v", target, err)
	}
	if u.Host == "" {
		return fmt.Sprintf("target %q must include a host", target)
	}
	scheme := strings.ToLower(u.Scheme)
	switch protocol {
	case "", ProtocolHTTP:
		if scheme != "http" && scheme != "https" {
			return fmt.Sprintf("target scheme %q is not supported for http (use http or https)", u.Scheme)
		}
	case ProtocolWebSocket:
		if scheme != "ws" && scheme != "wss" {
			return fmt.Sprintf("target scheme %q is not supported for websocket (use ws or wss)", u.Scheme)
		}
	default:
		return fmt.Sprintf("protocol: must be 'http' or 'websocket', got %q", protocol)
	}
	return ""
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	return issues
}
