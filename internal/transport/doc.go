// Package transport owns the duplex message connection to a robot controller.
//
// The Adapter interface knows nothing about command frames or telemetry. It
// opens and closes one connection, writes one frame per binary message, and
// reports lifecycle changes and inbound messages as typed Events:
//
//	ws := transport.NewWebSocket(transport.WithHandshakeTimeout(5 * time.Second))
//	ws.Subscribe(func(ev transport.Event) {
//	    if ev.Kind == transport.EventMessage {
//	        fmt.Printf("% x\n", ev.Data)
//	    }
//	})
//	if err := ws.Open(ctx, "ws://localhost:5000"); err != nil {
//	    return err
//	}
//
// # State Machine
//
//	Closed --Open--> Connecting --dial ok--> Open --Close / peer close--> Closed
//	                     |                     |
//	                     +--dial failed--> Error <--read/write failure--+
//
// Open from Closed or Error always dials a fresh connection. Open while
// Connecting or Open, and Close while not Open, are no-ops that log a notice.
//
// # Errors
//
// Send on a connection that is not open returns *NotConnectedError and the
// frame is dropped. Channel failures are wrapped in *TransportError with a
// classified ErrorKind. Nothing is retried automatically.
package transport
