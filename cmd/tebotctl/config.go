package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tebot-dev/tebot/internal/config"
	"github.com/tebot-dev/tebot/internal/discovery"
	"github.com/tebot-dev/tebot/internal/ui"
)

// Config and scan flags
var (
	forceInit   bool
	scanTimeout time.Duration
	saveRobots  bool
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetEndpointCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	scanCmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 0, "How long to listen for robots (default from config, 5s)")
	scanCmd.Flags().BoolVar(&saveRobots, "save", false, "Remember discovered robots in the config file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tebotctl config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", cfgPath)
		_, err = out.Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Init(cfgPath, forceInit); err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Config file written", ui.F("Path", cfgPath))
		return nil
	},
}

var configSetEndpointCmd = &cobra.Command{
	Use:     "set-endpoint URL",
	Short:   "Set the default robot endpoint",
	Example: `  tebotctl config set-endpoint ws://192.168.4.20:5000/`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := cfg.ResolveEndpoint(args[0])
		if err := config.ValidateEndpoint(endpoint); err != nil {
			return err
		}
		cfg.Endpoint = endpoint
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}
		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Default endpoint updated",
			ui.F("Endpoint", endpoint),
			ui.F("Path", cfgPath),
		)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover robots on the local network",
	Long: `Discover TeBot controllers advertising _tebot._tcp over mDNS.

Simulators started with 'tebot-sim server --advertise' are listed too.
With --save, every robot found is remembered in the config file under its
instance name and can be used with --endpoint NAME.`,
	Example: `  # Listen for 5 seconds
  tebotctl scan

  # Remember what was found, then drive it by name
  tebotctl scan --save
  tebotctl forward 10 --endpoint tebot-desk`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ui.NewPrinter(cmd.OutOrStdout())

		wait := scanTimeout
		if wait == 0 {
			wait = cfg.Discovery.Timeout
		}
		p.PrintHeader("Robot discovery", commandLine(cmd, args),
			ui.F("Service", discovery.ServiceType+"."+discovery.ServiceDomain),
			ui.F("Timeout", wait.String()),
		)

		robots, err := discovery.Scan(cmd.Context(), wait)
		if err != nil && !errors.Is(err, context.Canceled) {
			p.PrintError("Scan failed", err)
			return err
		}

		p.PrintRobots(robots)

		if saveRobots && len(robots) > 0 {
			for _, r := range robots {
				cfg.RememberRobot(r.Instance, r.Endpoint())
			}
			if err := cfg.Save(cfgPath); err != nil {
				return err
			}
			p.PrintSuccess("Robots saved", ui.F("Count", strconv.Itoa(len(robots))), ui.F("Path", cfgPath))
		}
		return nil
	},
}
