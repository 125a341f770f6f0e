package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

func NewLoader() *Loader {
	return &Loader{}
}

// Defaults returns a Config populated with the built-in defaults.
func Defaults() Config {
	return Config{
		Total:           100,
		Concurrency:     10,
		Timeout:         30 * time.Second,
		Protocol:        ProtocolHTTP,
		UserAgent:       DefaultUserAgent,
		Headers:         map[string]string{},
		VerboseSessions: 5,
		ProgressEvery:   10,
		LogLevel:        "info",
		WebSocket: WebSocketConfig{
			ReceiveTimeout:   10 * time.Second,
			HandshakeTimeout: 30 * time.Second,
		},
		Tracing: TracingConfig{
			Protocol:    "grpc",
			SampleRate:  1.0,
			ServiceName: "sessionswarm",
		},
	}
}

// Load parses command-line arguments and configuration files to produce a Config.
// File settings are applied first; explicitly set flags override them.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(&cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(&cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return &cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "target", "url", "target_url"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		if val != "" {
			cfg.Protocol = Protocol(strings.ToLower(strings.TrimSpace(val)))
		}
	}

	if raw, ok := lookupSetting(settings, "useragent", "user_agent", "user-agent"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("user_agent: %w", err)
		}
		if val != "" {
			cfg.UserAgent = val
		}
	}

	if raw, ok := lookupSetting(settings, "headers"); ok {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
	}

	if raw, ok := lookupSetting(settings, "total", "total_sessions", "total-sessions"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		cfg.Total = val
	}

	if raw, ok := lookupSetting(settings, "concurrency", "maxconcurrent", "max_concurrent", "max-concurrent"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		cfg.Concurrency = val
	}

	if raw, ok := lookupSetting(settings, "rate"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "websocket"); ok {
		ws, err := parseWebSocketConfig(raw, cfg.WebSocket)
		if err != nil {
			return fmt.Errorf("websocket: %w", err)
		}
		cfg.WebSocket = ws
	}
	if raw, ok := lookupSetting(settings, "ws_message"); ok {
		msg, err := asString(raw)
		if err != nil {
			return fmt.Errorf("ws_message: %w", err)
		}
		cfg.WebSocket.Message = msg
	}

	if raw, ok := lookupSetting(settings, "verbose"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("verbose: %w", err)
		}
		cfg.Verbose = val
	}

	if raw, ok := lookupSetting(settings, "verbosesessions", "verbose_sessions", "verbose-sessions"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("verbose_sessions: %w", err)
		}
		cfg.VerboseSessions = val
	}

	if raw, ok := lookupSetting(settings, "progressevery", "progress_every", "progress-every"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("progress_every: %w", err)
		}
		cfg.ProgressEvery = val
	}

	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "yamloutput", "yaml_output", "yaml-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("yaml_output: %w", err)
		}
		cfg.YAMLOutput = val
	}

	if raw, ok := lookupSetting(settings, "htmloutput", "html_output", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("html_output: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "logerrors", "log_errors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
		if val != "" {
			cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		thresholds, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = thresholds
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracingConfig(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseWebSocketConfig(value interface{}, base WebSocketConfig) (WebSocketConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return WebSocketConfig{}, err
	}
	ws := base
	if raw, ok := lookupSetting(settings, "message"); ok {
		val, err := asString(raw)
		if err != nil {
			return WebSocketConfig{}, fmt.Errorf("message: %w", err)
		}
		ws.Message = val
	}
	if raw, ok := lookupSetting(settings, "receivetimeout", "receive_timeout", "receive-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return WebSocketConfig{}, fmt.Errorf("receive_timeout: %w", err)
		}
		ws.ReceiveTimeout = dur
	}
	if raw, ok := lookupSetting(settings, "handshaketimeout", "handshake_timeout", "handshake-timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return WebSocketConfig{}, fmt.Errorf("handshake_timeout: %w", err)
		}
		ws.HandshakeTimeout = dur
	}
	return ws, nil
}

func parseTracingConfig(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	tc := base
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
		tc.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
		if val != "" {
			tc.Protocol = strings.ToLower(strings.TrimSpace(val))
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
		tc.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
		tc.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
		if val != "" {
			tc.ServiceName = strings.TrimSpace(val)
		}
	}
	if raw, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(raw)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		tc.Propagate = &val
	}
	return tc, nil
}
