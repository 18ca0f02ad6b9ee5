// Tebotctl drives a TeBot robot over its WebSocket controller.
//
// It sends single commands (move, turn, LED matrix, ultrasonic request),
// reads telemetry, discovers robots on the local network and offers an
// interactive driving console.
//
// Usage:
//
//	tebotctl [command] [flags]
//
// See 'tebotctl --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tebot-dev/tebot/internal/config"
	"github.com/tebot-dev/tebot/internal/logging"
	"github.com/tebot-dev/tebot/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	endpointFlag string
	configPath   string
	logLevel     string
	timeout      time.Duration
	simChannels  bool
)

// Loaded by loadSettings before any subcommand runs
var (
	cfg     *config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "tebotctl",
	Short: "TeBot robot command-line driver",
	Long: `A command-line driver for TeBot robots.

Commands are sent as binary frames over a WebSocket connection to the robot
controller (default ws://localhost:5000). Telemetry snapshots pushed by the
controller can be read once, watched continuously, or shown in the
interactive driving console.

The endpoint may be a ws:// or wss:// URL, or the name of a robot
remembered in the config file (see 'tebotctl scan --save').`,
	Version:           version.Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&endpointFlag, "endpoint", "e", "", "Robot endpoint URL or remembered robot name (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default is the platform config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Time allowed to connect and complete a command")
	rootCmd.PersistentFlags().BoolVar(&simChannels, "sim-channels", false, "Label telemetry channels with the simulator layout")

	rootCmd.AddCommand(versionCmd)
}

// loadSettings reads the config file and initializes logging.
// --log-level wins over the file, which wins over TEBOT_LOG_LEVEL.
func loadSettings(cmd *cobra.Command, args []string) error {
	var (
		loaded *config.Config
		err    error
	)
	if configPath == "" {
		if cfgPath, err = config.GetConfigPath(); err != nil {
			return fmt.Errorf("failed to locate config file: %w", err)
		}
		loaded, err = config.LoadDefault()
	} else {
		cfgPath = configPath
		loaded, err = config.Load(configPath)
	}
	if err != nil {
		return err
	}
	cfg = loaded

	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			return err
		}
	}
	return logging.Initialize(level)
}

// versionCmd overrides the root pre-run so a broken config file cannot hide
// the version.
var versionCmd = &cobra.Command{
	Use:              "version",
	Short:            "Print version information",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String("tebotctl"))
	},
}
