package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sessionswarm",
		Short:         "Launch a fixed number of browsing sessions against a target with bounded concurrency",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Target
	flags.String("target", "", "Target URL every session visits")
	flags.String("protocol", string(ProtocolHTTP), "Session protocol: 'http' or 'websocket'")
	flags.String("user-agent", DefaultUserAgent, "User-Agent header sent by HTTP sessions")
	flags.StringSlice("header", nil, "Additional request header in key=value form")

	// Load shape
	flags.IntP("total", "t", 100, "Total number of sessions to launch")
	flags.IntP("concurrency", "c", 10, "Maximum number of sessions in flight")
	flags.Int("max-concurrent", 0, "Alias for --concurrency")
	flags.IntP("rate", "r", 0, "Session launches per second (0 means unlimited)")
	flags.Duration("timeout", 30*time.Second, "Per-session timeout")

	// WebSocket
	flags.String("ws-message", "", "Message sent once the WebSocket handshake completes")
	flags.Duration("ws-receive-timeout", 10*time.Second, "Timeout waiting for the WebSocket reply")
	flags.Duration("ws-handshake-timeout", 30*time.Second, "WebSocket handshake timeout")

	// Output
	flags.BoolP("verbose", "v", false, "Print the first sessions' results as they complete")
	flags.Int("verbose-sessions", 5, "Number of sessions printed in verbose mode")
	flags.Int("progress-every", 10, "Print progress every N completed sessions (0 disables)")
	flags.Bool("json-output", false, "Emit JSON formatted report")
	flags.Bool("yaml-output", false, "Emit YAML formatted report")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("log-errors", false, "Log each failed session to stderr")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Thresholds
	flags.StringSlice("threshold", nil, "Pass/fail thresholds (repeatable, e.g., 'session_duration:p95 < 2000')")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS to the OTLP collector")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of sessions traced (0.0 - 1.0)")
	flags.String("tracing-service-name", "sessionswarm", "service.name resource attribute")
	flags.Bool("tracing-propagate", false, "Inject W3C trace context headers into session requests")
}

func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies explicitly set flags on top of file settings.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if err := overrideString(fs, "target", func(v string) { cfg.TargetURL = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideString(fs, "protocol", func(v string) { cfg.Protocol = Protocol(strings.ToLower(strings.TrimSpace(v))) }); err != nil {
		return err
	}
	if err := overrideString(fs, "user-agent", func(v string) { cfg.UserAgent = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "total", func(v int) { cfg.Total = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "max-concurrent", func(v int) { cfg.Concurrency = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "concurrency", func(v int) { cfg.Concurrency = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "rate", func(v int) { cfg.Rate = v }); err != nil {
		return err
	}
	if err := overrideDuration(fs, "timeout", func(v time.Duration) { cfg.Timeout = v }); err != nil {
		return err
	}
	if err := overrideString(fs, "ws-message", func(v string) { cfg.WebSocket.Message = v }); err != nil {
		return err
	}
	if err := overrideDuration(fs, "ws-receive-timeout", func(v time.Duration) { cfg.WebSocket.ReceiveTimeout = v }); err != nil {
		return err
	}
	if err := overrideDuration(fs, "ws-handshake-timeout", func(v time.Duration) { cfg.WebSocket.HandshakeTimeout = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "verbose", func(v bool) { cfg.Verbose = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "verbose-sessions", func(v int) { cfg.VerboseSessions = v }); err != nil {
		return err
	}
	if err := overrideInt(fs, "progress-every", func(v int) { cfg.ProgressEvery = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "json-output", func(v bool) { cfg.JSONOutput = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "yaml-output", func(v bool) { cfg.YAMLOutput = v }); err != nil {
		return err
	}
	if err := overrideString(fs, "html-output", func(v string) { cfg.HTMLOutput = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideBool(fs, "dashboard", func(v bool) { cfg.Dashboard = v }); err != nil {
		return err
	}
	if err := overrideBool(fs, "log-errors", func(v bool) { cfg.LogErrors = v }); err != nil {
		return err
	}
	if err := overrideString(fs, "log-level", func(v string) { cfg.LogLevel = strings.ToLower(strings.TrimSpace(v)) }); err != nil {
		return err
	}

	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if err := overrideString(fs, "tracing-endpoint", func(v string) { cfg.Tracing.Endpoint = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideString(fs, "tracing-protocol", func(v string) { cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(v)) }); err != nil {
		return err
	}
	if err := overrideBool(fs, "tracing-insecure", func(v bool) { cfg.Tracing.Insecure = v }); err != nil {
		return err
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if err := overrideString(fs, "tracing-service-name", func(v string) { cfg.Tracing.ServiceName = strings.TrimSpace(v) }); err != nil {
		return err
	}
	if err := overrideBool(fs, "tracing-propagate", func(v bool) { cfg.Tracing.Propagate = &v }); err != nil {
		return err
	}

	vals, err := fs.GetStringSlice("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("header must be in key=value format: %s", entry)
			}
			key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
			if key == "" {
				return fmt.Errorf("header key cannot be empty")
			}
			cfg.Headers[key] = strings.TrimSpace(parts[1])
		}
	}

	return nil
}

func overrideString(fs *pflag.FlagSet, name string, set func(string)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetString(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}

func overrideInt(fs *pflag.FlagSet, name string, set func(int)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetInt(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}

func overrideBool(fs *pflag.FlagSet, name string, set func(bool)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetBool(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}

func overrideDuration(fs *pflag.FlagSet, name string, set func(time.Duration)) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetDuration(name)
	if err != nil {
		return err
	}
	set(val)
	return nil
}
