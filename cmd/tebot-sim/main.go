// Tebot-sim is a simulated TeBot robot controller.
//
// It serves the TeBot wire protocol over WebSocket: binary command frames
// move a simulated robot around a walled arena and 8-byte telemetry
// snapshots are pushed back at a fixed interval. Point tebotctl at it to try
// commands without hardware.
//
// Usage:
//
//	tebot-sim server [flags]
//
// See 'tebot-sim server --help' for available options.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tebot-dev/tebot/internal/logging"
	"github.com/tebot-dev/tebot/internal/sim"
	"github.com/tebot-dev/tebot/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tebot-sim",
	Short: "Simulated TeBot robot controller",
	Long: `A simulated TeBot robot controller.

The simulator accepts the same binary command frames as a real controller
and pushes telemetry snapshots with the simulated robot's state. Channel 5
is the IR obstacle flag, set when the wall ahead is closer than the IR
threshold.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	host              string
	port              int
	telemetryInterval time.Duration
	maxCommandRate    float64
	arenaSize         int
	irThreshold       int
	advertise         bool
	instance          string
	logLevel          string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the simulator",
	Long: `Start the simulator and serve WebSocket connections at "/".

All connections drive the same robot. The robot starts in the middle of the
arena facing north; moves stop at the arena walls.`,
	Example: `  # Listen on the default driver endpoint (ws://localhost:5000)
  tebot-sim server

  # Faster telemetry with debug logging
  tebot-sim server --telemetry-interval 100ms --log-level debug

  # Advertise over mDNS so 'tebotctl scan' finds it
  tebot-sim server --advertise --instance tebot-lab

  # Throttle clients to 5 commands per second
  tebot-sim server --max-command-rate 5`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	defaults := sim.DefaultConfig()

	serverCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serverCmd.Flags().IntVar(&port, "port", defaults.Port, "Listen port")
	serverCmd.Flags().DurationVar(&telemetryInterval, "telemetry-interval", defaults.TelemetryInterval, "Interval between telemetry snapshots (0 disables)")
	serverCmd.Flags().Float64Var(&maxCommandRate, "max-command-rate", 0, "Maximum commands per second per connection (0 = unlimited)")
	serverCmd.Flags().IntVar(&arenaSize, "arena-size", defaults.ArenaSize, "Arena width and height in steps")
	serverCmd.Flags().IntVar(&irThreshold, "ir-threshold", defaults.IRThreshold, "Distance to the wall below which IR reports an obstacle")
	serverCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the simulator over mDNS (_tebot._tcp)")
	serverCmd.Flags().StringVar(&instance, "instance", defaults.Instance, "mDNS instance name")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServer(cmd *cobra.Command, args []string) error {
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return err
	}
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}
	if telemetryInterval < 0 {
		return fmt.Errorf("telemetry interval must not be negative: %s", telemetryInterval)
	}
	if maxCommandRate < 0 {
		return fmt.Errorf("max command rate must not be negative: %v", maxCommandRate)
	}

	srv := sim.New(&sim.Config{
		Host:              host,
		Port:              port,
		TelemetryInterval: telemetryInterval,
		MaxCommandRate:    maxCommandRate,
		ArenaSize:         arenaSize,
		IRThreshold:       irThreshold,
		Advertise:         advertise,
		Instance:          instance,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String("tebot-sim"))
	},
}
