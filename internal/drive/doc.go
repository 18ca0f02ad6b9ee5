// Package drive implements the interactive driving console behind
// "tebotctl drive".
//
// The console is a Bubble Tea program wrapped around a device.Controller.
// Arrow keys send move and turn commands, the LED matrix can be edited in
// place, and the controller's connection state, latest telemetry snapshot
// and counters are polled on a short tick and redrawn. Controller calls run
// as tea.Cmds so a slow write never stalls the update loop.
//
//	ctrl := device.NewController(transport.NewWebSocket(), device.WithEndpoint(endpoint))
//	err := drive.Run(ctx, ctrl, drive.Options{AutoConnect: true})
package drive
