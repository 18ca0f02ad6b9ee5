// Package ui provides terminal UI components for the tebotctl CLI.
//
// This package uses Lipgloss to render command output: the command header,
// success and failure boxes, telemetry panels and LED matrix previews. These
// components follow a "print once" pattern; the interactive driving console
// in package drive builds on the same styles.
//
// # Components
//
//   - Header: command banner showing the operation and its parameters
//   - Result: success, warning and failure boxes with troubleshooting tips
//   - RenderSnapshot: the 8 telemetry channels with the IR channel highlighted
//   - RenderMatrix: a 5x5 grid preview of an LED matrix
//   - RenderState: a colored connection state badge
//   - RenderRobots: a table of robots found by mDNS discovery
//
// # Usage
//
//	p := ui.NewPrinter(nil)
//	p.PrintHeader("Move forward", "tebotctl forward 10", ui.F("Endpoint", endpoint))
//	if err := ctrl.MoveForward(10); err != nil {
//	    p.PrintError("Command not sent", err)
//	    return err
//	}
//	p.PrintSuccess("Command sent", ui.F("Steps", "10"))
//
// # Logging Integration
//
// Logging is controlled by the TEBOT_LOG_LEVEL environment variable or the
// --log-level flag. When unset, zap logging is silent so the styled output
// is displayed cleanly.
package ui
