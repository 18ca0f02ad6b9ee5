// Package device implements the TeBot command API.
//
// A Controller turns high-level calls (move, turn, sense, LED display) into
// protocol frames and writes them through an injected transport.Adapter. It
// subscribes to the adapter once, tracks the connection state from adapter
// events, and keeps the most recent 8-byte sensor snapshot.
//
//	ctrl := device.NewController(transport.NewWebSocket(),
//	    device.WithEndpoint("ws://192.168.4.20:5000"),
//	    device.WithStepPolicy(device.StepReject),
//	)
//	if err := ctrl.OpenConnection(ctx); err != nil {
//	    return err
//	}
//	if err := ctrl.AwaitConnected(ctx); err != nil {
//	    return err
//	}
//	_ = ctrl.MoveForward(100)
//	ir := ctrl.ReadIR()
//
// # Error Reporting
//
// Commands never panic and never leave the controller unusable. A command
// issued while the connection is not open returns *transport.NotConnectedError;
// a malformed argument returns *protocol.EncodingError before any I/O. Both
// are logged at warn level and the frame is dropped. Malformed telemetry is
// logged and leaves the snapshot unchanged.
//
// # Sensors
//
// ReadIR is a pure read of channel 5 of the last snapshot. RequestUltrasonic
// sends the request frame but returns a fixed placeholder: the wire protocol
// has no way to match a reply to a request. AwaitSnapshot waits for the next
// telemetry message for callers that want a fresh reading.
package device
