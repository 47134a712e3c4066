// Package config loads termbridge settings from YAML with environment overrides
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/termbridge/terminal"
)

// Device names accepted by the device setting
const (
	DeviceTTY   = "tty"   // controlling terminal, /dev/tty
	DeviceStdio = "stdio" // os.Stdin / os.Stdout
)

// envPrefix prefixes every environment override
const envPrefix = "TERMBRIDGE_"

// Config is the complete adapter configuration
type Config struct {
	Device          string        `yaml:"device"`
	EscapeTimeout   time.Duration `yaml:"escape_timeout"`
	SequenceTimeout time.Duration `yaml:"sequence_timeout"`
	FallbackColumns int           `yaml:"fallback_columns"`
	FallbackRows    int           `yaml:"fallback_rows"`
	ColorMode       string        `yaml:"color_mode"`     // auto, truecolor, 256
	MouseTracking   string        `yaml:"mouse_tracking"` // off, normal, any

	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig controls diagnostic logging; an empty file disables it
type LogConfig struct {
	Level   string `yaml:"level"` // trace, debug, info, warn, error
	File    string `yaml:"file"`
	MaxSize int64  `yaml:"max_size"` // bytes before the log is rotated
}

// MetricsConfig controls the Prometheus exporter; an empty addr disables it
type MetricsConfig struct {
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Device:          DeviceTTY,
		EscapeTimeout:   terminal.DefaultEscapeTimeout,
		SequenceTimeout: terminal.DefaultSequenceTimeout,
		FallbackColumns: terminal.DefaultSize.Columns,
		FallbackRows:    terminal.DefaultSize.Rows,
		ColorMode:       "auto",
		MouseTracking:   "normal",
		Log: LogConfig{
			Level:   "info",
			MaxSize: 10 * 1024 * 1024,
		},
		Metrics: MetricsConfig{
			Namespace: "termbridge",
		},
	}
}

// DefaultPath returns the user config location, "" when no home is known
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "termbridge", "config.yaml")
}

// Load reads path over the defaults, applies environment overrides and validates.
// An empty path skips the file; a missing DefaultPath file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadAndMerge(cfg, path); err != nil {
			if !errors.Is(err, os.ErrNotExist) || path != DefaultPath() {
				return nil, fmt.Errorf("loading config from %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Decoding into the populated struct keeps defaults for absent keys
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// applyEnvOverrides applies TERMBRIDGE_* variables; malformed values are errors
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	num64 := func(key string, dst *int64) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("DEVICE", &cfg.Device)
	dur("ESCAPE_TIMEOUT", &cfg.EscapeTimeout)
	dur("SEQUENCE_TIMEOUT", &cfg.SequenceTimeout)
	num("FALLBACK_COLUMNS", &cfg.FallbackColumns)
	num("FALLBACK_ROWS", &cfg.FallbackRows)
	str("COLOR_MODE", &cfg.ColorMode)
	str("MOUSE_TRACKING", &cfg.MouseTracking)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	num64("LOG_MAX_SIZE", &cfg.Log.MaxSize)
	str("METRICS_ADDR", &cfg.Metrics.Addr)
	str("METRICS_NAMESPACE", &cfg.Metrics.Namespace)

	return errors.Join(errs...)
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if c.Device != DeviceTTY && c.Device != DeviceStdio {
		errs = append(errs, fmt.Errorf("device: unknown value %q", c.Device))
	}
	if c.EscapeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("escape_timeout: must be positive, got %s", c.EscapeTimeout))
	}
	if c.SequenceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("sequence_timeout: must be positive, got %s", c.SequenceTimeout))
	}
	if c.FallbackColumns <= 0 || c.FallbackRows <= 0 {
		errs = append(errs, fmt.Errorf("fallback size: must be positive, got %dx%d", c.FallbackColumns, c.FallbackRows))
	}
	if _, ok := terminal.ParseColorMode(c.ColorMode); !ok {
		errs = append(errs, fmt.Errorf("color_mode: unknown value %q", c.ColorMode))
	}
	if _, ok := terminal.ParseMouseTracking(c.MouseTracking); !ok {
		errs = append(errs, fmt.Errorf("mouse_tracking: unknown value %q", c.MouseTracking))
	}
	if _, ok := ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level: unknown value %q", c.Log.Level))
	}
	if c.Log.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("log.max_size: must not be negative"))
	}

	return errors.Join(errs...)
}

// ParseLevel resolves a log level name, including "trace"
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "trace":
		return terminal.LevelTrace, true
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Options translates the configuration into terminal options.
// logger and metrics may be nil.
func (c *Config) Options(logger *slog.Logger, metrics terminal.Metrics) []terminal.Option {
	colorMode, _ := terminal.ParseColorMode(c.ColorMode)
	tracking, _ := terminal.ParseMouseTracking(c.MouseTracking)

	opts := []terminal.Option{
		terminal.WithEscapeTimeout(c.EscapeTimeout),
		terminal.WithSequenceTimeout(c.SequenceTimeout),
		terminal.WithFallbackSize(terminal.Size{Columns: c.FallbackColumns, Rows: c.FallbackRows}),
		terminal.WithColorMode(colorMode),
		terminal.WithPrivateMouseTracking(tracking),
	}
	if logger != nil {
		opts = append(opts, terminal.WithLogger(logger))
	}
	if metrics != nil {
		opts = append(opts, terminal.WithMetrics(metrics))
	}
	return opts
}

// OpenChannel opens the configured device
func (c *Config) OpenChannel() (terminal.Channel, error) {
	if c.Device == DeviceStdio {
		return terminal.NewChannel(os.Stdin, os.Stdout)
	}
	return terminal.OpenTTY()
}
