package transport

import (
	"context"
	"fmt"
	"time"
)

// State is the lifecycle state of a connection
type State int

const (
	// StateClosed means no connection exists (initial state)
	StateClosed State = iota
	// StateConnecting means a dial is in progress
	StateConnecting
	// StateOpen means frames can be sent and received
	StateOpen
	// StateError means the last dial or connection failed
	StateError
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventKind identifies a transport event
type EventKind int

const (
	// EventConnecting is raised when a dial starts
	EventConnecting EventKind = iota
	// EventOpen is raised when the connection is established
	EventOpen
	// EventMessage is raised for each complete binary message received
	EventMessage
	// EventError is raised when a dial or an open connection fails
	EventError
	// EventClose is raised when an open connection is closed cleanly
	EventClose
)

// String returns a human-readable event name
func (k EventKind) String() string {
	switch k {
	case EventConnecting:
		return "connecting"
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a lifecycle or message notification from an Adapter
type Event struct {
	Kind EventKind
	Data []byte    // Message payload (EventMessage only)
	Err  error     // Failure cause (EventError only), a *TransportError
	At   time.Time // When the adapter raised the event
}

// Handler receives adapter events. Adapters deliver events to a handler one
// at a time and in order; handlers must not block.
type Handler func(Event)

// Adapter owns one duplex message connection to a fixed peer.
// It knows nothing about the frames it carries.
type Adapter interface {
	// Open starts connecting to endpoint. It is a no-op while connecting or
	// open. The outcome is reported through EventOpen or EventError.
	Open(ctx context.Context, endpoint string) error

	// Close shuts down an open connection. It is a no-op when not open.
	Close() error

	// Send writes one frame as one binary message. It fails with
	// *NotConnectedError unless the connection is open.
	Send(frame []byte) error

	// State returns the adapter's current state
	State() State

	// Subscribe registers a handler for all subsequent events
	Subscribe(h Handler)
}
