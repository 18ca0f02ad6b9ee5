package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tebot-dev/tebot/internal/device"
	"github.com/tebot-dev/tebot/internal/discovery"
	"github.com/tebot-dev/tebot/internal/drive"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/sim"
	"github.com/tebot-dev/tebot/internal/transport"
	"github.com/tebot-dev/tebot/internal/ui"
)

// Command flags
var (
	waitReply  bool
	watchCount int
	driveStep  int
)

func init() {
	rootCmd.AddCommand(forwardCmd)
	rootCmd.AddCommand(backwardCmd)
	rootCmd.AddCommand(leftCmd)
	rootCmd.AddCommand(rightCmd)
	rootCmd.AddCommand(ledCmd)
	rootCmd.AddCommand(ultrasonicCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(driveCmd)

	ultrasonicCmd.Flags().BoolVar(&waitReply, "wait", false, "Wait for the next telemetry snapshot and print it")
	watchCmd.Flags().IntVarP(&watchCount, "count", "n", 0, "Stop after this many snapshots (0 = until interrupted)")
	driveCmd.Flags().IntVar(&driveStep, "step", drive.DefaultStep, "Steps sent per forward/backward key press")
}

var forwardCmd = &cobra.Command{
	Use:   "forward STEPS",
	Short: "Move the robot forward",
	Long: `Move the robot forward by STEPS (0-255).

Out-of-range step counts are clamped unless step_policy is "reject" in the
config file.`,
	Example: `  # Move forward 10 steps on the default robot
  tebotctl forward 10

  # Move a remembered robot
  tebotctl forward 30 --endpoint desk`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseSteps(args[0])
		if err != nil {
			return err
		}
		return sendOne(cmd, args, "Move forward", []ui.Field{ui.F("Steps", args[0])},
			func(c *device.Controller) error { return c.MoveForward(steps) },
			clampWarning(steps))
	},
}

var backwardCmd = &cobra.Command{
	Use:   "backward STEPS",
	Short: "Move the robot backward",
	Long:  `Move the robot backward by STEPS (0-255).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseSteps(args[0])
		if err != nil {
			return err
		}
		return sendOne(cmd, args, "Move backward", []ui.Field{ui.F("Steps", args[0])},
			func(c *device.Controller) error { return c.MoveBackward(steps) },
			clampWarning(steps))
	},
}

var leftCmd = &cobra.Command{
	Use:   "left",
	Short: "Turn the robot left",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendOne(cmd, args, "Turn left", nil, (*device.Controller).TurnLeft)
	},
}

var rightCmd = &cobra.Command{
	Use:   "right",
	Short: "Turn the robot right",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendOne(cmd, args, "Turn right", nil, (*device.Controller).TurnRight)
	},
}

var ledCmd = &cobra.Command{
	Use:   "led MATRIX",
	Short: "Show a pattern on the 5x5 LED matrix",
	Long: `Show a pattern on the 5x5 LED matrix.

MATRIX is five rows of five '0'/'1' characters separated by ':', top row
first. The leftmost character of a row is the leftmost LED.`,
	Example: `  # Diamond
  tebotctl led 00100:01010:10001:01010:00100

  # All off
  tebotctl led 00000:00000:00000:00000:00000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := protocol.EncodeMatrix(args[0])
		if err != nil {
			return err
		}
		return sendOne(cmd, args, "LED matrix", []ui.Field{ui.F("Matrix", args[0])},
			func(c *device.Controller) error { return c.DisplayMatrix(args[0]) },
			func(p *ui.Printer) { p.PrintMatrix(m) })
	},
}

var ultrasonicCmd = &cobra.Command{
	Use:   "ultrasonic",
	Short: "Request an ultrasonic reading",
	Long: `Send an ultrasonic request to the robot.

Replies are not correlated with requests; with --wait the next telemetry
snapshot is printed instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		ctrl, err := newController(ctx)
		if err != nil {
			return err
		}
		p.PrintHeader("Ultrasonic request", commandLine(cmd, args), ui.F("Endpoint", ctrl.Endpoint()))

		if err := connect(ctx, ctrl); err != nil {
			p.PrintError("Could not connect", err)
			return err
		}
		defer ctrl.CloseConnection()

		reading, err := ctrl.RequestUltrasonic()
		if err != nil {
			p.PrintError("Request not sent", err)
			return err
		}

		if !waitReply {
			p.PrintSuccess("Request sent", ui.F("Reading", strconv.Itoa(reading)))
			return nil
		}

		snap, err := ctrl.AwaitSnapshot(ctx)
		if err != nil {
			p.PrintError("No telemetry received", err)
			return err
		}
		p.PrintSuccess("Request sent", ui.F("Placeholder reading", strconv.Itoa(reading)))
		p.Newline()
		p.PrintSnapshot(snap, channelLabels())
		return nil
	},
}

var irCmd = &cobra.Command{
	Use:   "ir",
	Short: "Read the IR sensor",
	Long: `Connect, wait for the next telemetry snapshot and print the IR channel.

A non-zero value means an obstacle is in front of the robot.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		ctrl, err := newController(ctx)
		if err != nil {
			return err
		}
		p.PrintHeader("IR sensor", commandLine(cmd, args), ui.F("Endpoint", ctrl.Endpoint()))

		if err := connect(ctx, ctrl); err != nil {
			p.PrintError("Could not connect", err)
			return err
		}
		defer ctrl.CloseConnection()

		snap, err := ctrl.AwaitSnapshot(ctx)
		if err != nil {
			p.PrintError("No telemetry received", err)
			return err
		}

		p.PrintSnapshot(snap, channelLabels())
		p.PrintSuccess("IR reading", ui.F("IR", strconv.Itoa(int(ctrl.ReadIR()))))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print telemetry snapshots as they arrive",
	Example: `  # Follow telemetry until Ctrl-C
  tebotctl watch

  # Print five snapshots and exit
  tebotctl watch -n 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())

		connectCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
		ctrl, err := newController(connectCtx)
		if err == nil {
			err = connect(connectCtx, ctrl)
		}
		cancel()
		if err != nil {
			return err
		}
		defer ctrl.CloseConnection()

		p.Println(ui.RenderState(ctrl.State(), ctrl.Endpoint()))
		p.Newline()

		for n := 0; watchCount == 0 || n < watchCount; {
			waitCtx, cancel := context.WithTimeout(cmd.Context(), time.Second)
			snap, err := ctrl.AwaitSnapshot(waitCtx)
			cancel()

			switch {
			case err == nil:
				n++
				p.Println(fmt.Sprintf("%s  %s  ir=%d", time.Now().Format("15:04:05.000"), protocol.HexDump(snap.Bytes()), snap.IR()))
			case cmd.Context().Err() != nil:
				return nil
			case !ctrl.IsConnected():
				if lastErr := ctrl.LastError(); lastErr != nil {
					return lastErr
				}
				return &transport.NotConnectedError{State: ctrl.State()}
			}
		}
		return nil
	},
}

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Drive the robot interactively",
	Long: `Open a full-screen driving console.

Arrow keys (or w/a/s/d) move and turn, +/- change the step count, u sends an
ultrasonic request, m edits the LED matrix, c connects or disconnects and
q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		ctrl, err := newController(ctx)
		cancel()
		if err != nil {
			return err
		}
		return drive.Run(cmd.Context(), ctrl, drive.Options{
			Step:        driveStep,
			Labels:      channelLabels(),
			AutoConnect: true,
		})
	},
}

// sendOne opens a connection, sends one command and closes it.
// Each of after runs once the command was sent.
func sendOne(cmd *cobra.Command, args []string, title string, params []ui.Field, send func(*device.Controller) error, after ...func(*ui.Printer)) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	ctrl, err := newController(ctx)
	if err != nil {
		return err
	}
	p.PrintHeader(title, commandLine(cmd, args), append([]ui.Field{ui.F("Endpoint", ctrl.Endpoint())}, params...)...)

	if err := connect(ctx, ctrl); err != nil {
		p.PrintError("Could not connect", err)
		return err
	}
	defer ctrl.CloseConnection()

	if err := send(ctrl); err != nil {
		p.PrintError("Command not sent", err)
		return err
	}

	stats := ctrl.Stats()
	res := ui.NewSuccessResult("Command sent").AddDetail("Frames sent", strconv.Itoa(stats.FramesSent))
	if stats.FramesDropped > 0 {
		res.AddDetail("Frames dropped", strconv.Itoa(stats.FramesDropped))
	}
	p.Println(res.SetWidth(p.Width()).Render())

	for _, fn := range after {
		fn(p)
	}
	return nil
}

// clampWarning reports a step count the controller clamped into 0-255.
// Under the reject policy the send fails first and this never runs.
func clampWarning(steps int) func(*ui.Printer) {
	return func(p *ui.Printer) {
		if steps >= 0 && steps <= protocol.MaxPayloadByte {
			return
		}
		sent := 0
		if steps > 0 {
			sent = protocol.MaxPayloadByte
		}
		p.PrintWarning("Step count clamped",
			ui.F("Requested", strconv.Itoa(steps)),
			ui.F("Sent", strconv.Itoa(sent)),
		)
	}
}

// newController builds a controller for the resolved endpoint using config timeouts
func newController(ctx context.Context) (*device.Controller, error) {
	endpoint, err := resolveEndpoint(ctx)
	if err != nil {
		return nil, err
	}
	adapter := transport.NewWebSocket(
		transport.WithHandshakeTimeout(cfg.HandshakeTimeout),
		transport.WithWriteTimeout(cfg.WriteTimeout),
		transport.WithPingPeriod(cfg.PingInterval),
	)
	return device.NewController(adapter,
		device.WithEndpoint(endpoint),
		device.WithStepPolicy(cfg.StepPolicyValue()),
	), nil
}

// resolveEndpoint turns --endpoint into a URL. Remembered names come from the
// config file; any other bare name is looked up over mDNS.
func resolveEndpoint(ctx context.Context) (string, error) {
	target := cfg.ResolveEndpoint(endpointFlag)
	if strings.Contains(target, "://") {
		return target, nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = cfg.Discovery.Timeout
	robot, err := scanner.WaitForRobot(ctx, target)
	if err != nil {
		return "", fmt.Errorf("unknown robot %q: not in the config file and not found on the network: %w", target, err)
	}
	return robot.Endpoint(), nil
}

// connect opens the connection and waits until it is usable
func connect(ctx context.Context, ctrl *device.Controller) error {
	if err := ctrl.OpenConnection(ctx); err != nil {
		return err
	}
	if err := ctrl.AwaitConnected(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out connecting to %s after %s", ctrl.Endpoint(), timeout)
		}
		return err
	}
	return nil
}

func parseSteps(arg string) (int, error) {
	steps, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid step count %q: must be an integer", arg)
	}
	return steps, nil
}

func commandLine(cmd *cobra.Command, args []string) string {
	return strings.TrimSpace(cmd.CommandPath() + " " + strings.Join(args, " "))
}

// simLabels names the channels of the simulator's telemetry layout
var simLabels = ui.ChannelLabels{
	sim.ChannelDistance: "distance",
	sim.ChannelHeading:  "heading",
	sim.ChannelX:        "x",
	sim.ChannelY:        "y",
	sim.ChannelCommands: "commands",
	sim.ChannelIR:       "ir",
	sim.ChannelLEDs:     "leds",
	sim.ChannelBumps:    "bumps",
}

func channelLabels() ui.ChannelLabels {
	if simChannels {
		return simLabels
	}
	return ui.DefaultChannelLabels
}
