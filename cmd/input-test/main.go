// Command input-test prints every decoded terminal event, for checking what a
// terminal emulator actually sends.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/termbridge/config"
)

type flags struct {
	configPath  string
	debug       bool
	device      string
	mouse       string
	colorMode   string
	metricsAddr string
}

// newRootCmd builds the command; run receives the merged configuration
func newRootCmd(run func(cfg *config.Config, debug bool) error) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "input-test",
		Short: "Show decoded keyboard and mouse events",
		Long: `Enter private mode and print each decoded event with the tracked cursor
and terminal size.

Keys: q or Ctrl+C quits, m cycles mouse tracking, b rings the bell.`,
		Example: `  # Log decoder traces to logs/input-test.log
  input-test --debug

  # Report every mouse motion and expose counters for scraping
  input-test --mouse any --metrics-addr 127.0.0.1:9464`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cfg, f.debug)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", config.DefaultPath(), "config file")
	fl.BoolVarP(&f.debug, "debug", "d", false, "write debug logs to logs/input-test.log")
	fl.StringVar(&f.device, "device", "", "terminal device: tty or stdio")
	fl.StringVar(&f.mouse, "mouse", "", "mouse tracking: off, normal or any")
	fl.StringVar(&f.colorMode, "color", "", "color mode: auto, truecolor or 256")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

// loadConfig layers explicitly set flags over file and environment settings
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("device") {
		cfg.Device = f.device
	}
	if fl.Changed("mouse") {
		cfg.MouseTracking = f.mouse
	}
	if fl.Changed("color") {
		cfg.ColorMode = f.colorMode
	}
	if fl.Changed("metrics-addr") {
		cfg.Metrics.Addr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "input-test: %v\n", err)
		os.Exit(1)
	}
}
