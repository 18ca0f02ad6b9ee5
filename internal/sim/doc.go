// Package sim implements a simulated TeBot robot controller.
//
// The simulator is a WebSocket server that accepts the same binary command
// frames a real controller does and pushes 8-byte telemetry snapshots back.
// It lets the driver, CLI and drive console run without hardware:
//
//	srv := sim.New(&sim.Config{Port: 5000, TelemetryInterval: 500 * time.Millisecond})
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Simulated World
//
// The robot lives in a square walled arena and starts in the centre facing
// north. Move commands travel along the heading and stop at the walls; turns
// rotate by a quarter. The LED matrix is stored as sent.
//
// # Telemetry Layout
//
//	[0] distance to the wall ahead (steps, capped at 255)
//	[1] heading in quarter turns (0=north)
//	[2] x position, low byte
//	[3] y position, low byte
//	[4] applied command count, low byte
//	[5] IR obstacle flag: 1 when the wall ahead is closer than the threshold
//	[6] number of lit LED pixels
//	[7] moves stopped by a wall, low byte
//
// Only channel 5 is part of the driver's contract. A request-ultrasonic frame
// is answered with an immediate snapshot in addition to the periodic ones.
//
// # Robustness
//
// Frames that fail to decode are logged and ignored. With MaxCommandRate set,
// each connection is limited by a token bucket and excess commands are
// dropped with a warning.
package sim
