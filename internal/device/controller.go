package device

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/tebot-dev/tebot/internal/logging"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/transport"
)

// DefaultEndpoint is the robot controller address used when none is configured
const DefaultEndpoint = "ws://localhost:5000"

// UltrasonicPlaceholder is returned by RequestUltrasonic. The protocol has no
// request/response correlation, so no measured value is available.
const UltrasonicPlaceholder = 0

// StepPolicy decides what happens to step counts outside 0-255
type StepPolicy int

const (
	// StepClamp clamps out-of-range step counts and logs a warning
	StepClamp StepPolicy = iota
	// StepReject fails out-of-range step counts with *protocol.EncodingError
	StepReject
)

// String returns the policy name used in configuration files
func (p StepPolicy) String() string {
	switch p {
	case StepClamp:
		return "clamp"
	case StepReject:
		return "reject"
	default:
		return "StepPolicy(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParseStepPolicy parses "clamp" or "reject" (empty means clamp)
func ParseStepPolicy(s string) (StepPolicy, error) {
	switch s {
	case "", "clamp":
		return StepClamp, nil
	case "reject":
		return StepReject, nil
	default:
		return StepClamp, fmt.Errorf("invalid step policy %q: must be clamp or reject", s)
	}
}

// Stats counts controller activity since construction
type Stats struct {
	FramesSent        int
	FramesDropped     int // Commands refused before reaching the wire
	SnapshotsReceived int
	DecodeErrors      int
}

// Controller exposes the robot command API on top of a transport Adapter.
//
// It owns the connection state and the latest sensor snapshot. Both change
// only in response to adapter events, which arrive on the adapter's
// goroutines; command methods may be called from any goroutine and never
// block on the network beyond a single frame write.
type Controller struct {
	adapter  transport.Adapter
	endpoint string
	policy   StepPolicy
	logger   *zap.Logger

	mu       sync.Mutex
	state    transport.State
	snapshot protocol.SensorSnapshot
	lastErr  error
	stats    Stats
	stateCh  chan struct{} // closed and replaced on every state change
	snapCh   chan struct{} // closed and replaced on every snapshot
}

// Option configures a Controller
type Option func(*Controller)

// WithEndpoint sets the endpoint used by OpenConnection
func WithEndpoint(endpoint string) Option {
	return func(c *Controller) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithStepPolicy sets how out-of-range step counts are handled
func WithStepPolicy(p StepPolicy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithLogger sets the logger used for controller reports
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller and subscribes it to adapter events.
// The initial state is Closed and the initial snapshot is all zeros.
func NewController(adapter transport.Adapter, opts ...Option) *Controller {
	c := &Controller{
		adapter:  adapter,
		endpoint: DefaultEndpoint,
		policy:   StepClamp,
		logger:   logging.Named("device"),
		state:    transport.StateClosed,
		stateCh:  make(chan struct{}),
		snapCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	adapter.Subscribe(c.handleEvent)
	return c
}

// Endpoint returns the configured endpoint
func (c *Controller) Endpoint() string {
	return c.endpoint
}

// State returns the current connection state
func (c *Controller) State() transport.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the connection is open
func (c *Controller) IsConnected() bool {
	return c.State() == transport.StateOpen
}

// LastError returns the most recent transport failure (nil after a successful open)
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns a copy of the latest sensor snapshot
func (c *Controller) Snapshot() protocol.SensorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Stats returns a copy of the activity counters
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// OpenConnection starts connecting to the configured endpoint.
// While connecting or open it only logs a notice. The outcome arrives
// asynchronously; use AwaitConnected to wait for it.
func (c *Controller) OpenConnection(ctx context.Context) error {
	if state := c.State(); state == transport.StateConnecting || state == transport.StateOpen {
		c.logger.Info("open skipped: connection already "+state.String(),
			zap.String("endpoint", c.endpoint),
		)
		return nil
	}

	if err := c.adapter.Open(ctx, c.endpoint); err != nil {
		c.logger.Error("open failed",
			zap.String("endpoint", c.endpoint),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// CloseConnection closes an open connection.
// When the connection is not open it logs that and returns nil.
func (c *Controller) CloseConnection() error {
	if state := c.State(); state != transport.StateOpen {
		c.logger.Info("close skipped: connection not open",
			zap.String("state", state.String()),
		)
		return nil
	}

	if err := c.adapter.Close(); err != nil {
		c.logger.Error("close failed", zap.Error(err))
		return err
	}
	return nil
}

// AwaitConnected blocks until the connection is open, the attempt fails or
// ctx ends. It returns nil only when the connection is open.
func (c *Controller) AwaitConnected(ctx context.Context) error {
	for {
		c.mu.Lock()
		state, ch, lastErr := c.state, c.stateCh, c.lastErr
		c.mu.Unlock()

		switch state {
		case transport.StateOpen:
			return nil
		case transport.StateError:
			if lastErr != nil {
				return lastErr
			}
			return &transport.NotConnectedError{State: state}
		case transport.StateClosed:
			return &transport.NotConnectedError{State: state}
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// AwaitSnapshot blocks until the next telemetry snapshot arrives or ctx ends.
// It sends nothing; it is the hook for callers that need a fresh reading.
func (c *Controller) AwaitSnapshot(ctx context.Context) (protocol.SensorSnapshot, error) {
	c.mu.Lock()
	ch := c.snapCh
	c.mu.Unlock()

	select {
	case <-ch:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return protocol.SensorSnapshot{}, ctx.Err()
	}
}

// MoveForward sends [0x01, steps]
func (c *Controller) MoveForward(steps int) error {
	return c.move(protocol.OpMoveForward, steps)
}

// MoveBackward sends [0x02, steps]
func (c *Controller) MoveBackward(steps int) error {
	return c.move(protocol.OpMoveBackward, steps)
}

// TurnLeft sends [0x03]
func (c *Controller) TurnLeft() error {
	return c.send(protocol.BuildTurnLeft())
}

// TurnRight sends [0x04]
func (c *Controller) TurnRight() error {
	return c.send(protocol.BuildTurnRight())
}

// RequestUltrasonic sends [0x06] and returns UltrasonicPlaceholder.
// The reply, if the robot sends one, is not correlated with the request.
func (c *Controller) RequestUltrasonic() (int, error) {
	if err := c.send(protocol.BuildRequestUltrasonic()); err != nil {
		return UltrasonicPlaceholder, err
	}
	return UltrasonicPlaceholder, nil
}

// ReadIR returns the IR channel of the latest snapshot without sending anything
func (c *Controller) ReadIR() byte {
	return c.Snapshot().IR()
}

// DisplayMatrix validates matrix and sends [0x07, row0..row4].
// Malformed matrices fail with *protocol.EncodingError before any I/O.
func (c *Controller) DisplayMatrix(matrix string) error {
	frame, err := protocol.BuildDisplayMatrix(matrix)
	if err != nil {
		return c.drop(protocol.OpDisplayMatrix, err)
	}
	return c.send(frame)
}

func (c *Controller) move(op protocol.Opcode, steps int) error {
	n, err := c.normalizeSteps(op, steps)
	if err != nil {
		return c.drop(op, err)
	}

	frame, err := protocol.EncodeCommand(op, n)
	if err != nil {
		return c.drop(op, err)
	}
	return c.send(frame)
}

func (c *Controller) normalizeSteps(op protocol.Opcode, steps int) (int, error) {
	if steps >= 0 && steps <= protocol.MaxPayloadByte {
		return steps, nil
	}

	if c.policy == StepReject {
		return 0, &protocol.EncodingError{
			Op:     op,
			Field:  "steps",
			Value:  strconv.Itoa(steps),
			Reason: "out of range 0-255",
		}
	}

	clamped := steps
	if clamped < 0 {
		clamped = 0
	} else {
		clamped = protocol.MaxPayloadByte
	}
	c.logger.Warn("step count clamped",
		zap.Stringer("op", op),
		zap.Int("requested", steps),
		zap.Int("sent", clamped),
	)
	return clamped, nil
}

// send writes frame if the connection is open; otherwise the frame is dropped
func (c *Controller) send(frame protocol.Frame) error {
	if state := c.State(); state != transport.StateOpen {
		return c.drop(frame.Opcode(), &transport.NotConnectedError{State: state})
	}

	if err := c.adapter.Send(frame); err != nil {
		return c.drop(frame.Opcode(), err)
	}

	c.mu.Lock()
	c.stats.FramesSent++
	c.mu.Unlock()

	c.logger.Debug("command sent",
		zap.Stringer("op", frame.Opcode()),
		zap.String("hex", protocol.HexDump(frame)),
	)
	return nil
}

// drop reports a command that did not reach the wire and returns err
func (c *Controller) drop(op protocol.Opcode, err error) error {
	c.mu.Lock()
	c.stats.FramesDropped++
	c.mu.Unlock()

	c.logger.Warn("command dropped",
		zap.Stringer("op", op),
		zap.Error(err),
	)
	return err
}

// handleEvent applies one adapter event. Adapters deliver events serially.
func (c *Controller) handleEvent(ev transport.Event) {
	switch ev.Kind {
	case transport.EventConnecting:
		c.setState(transport.StateConnecting, nil)
		logging.LogConnection(c.logger, "connecting", c.endpoint, ev.Kind.String())

	case transport.EventOpen:
		c.setState(transport.StateOpen, nil)
		logging.LogConnection(c.logger, "connection open", c.endpoint, ev.Kind.String())

	case transport.EventClose:
		c.setState(transport.StateClosed, nil)
		logging.LogConnection(c.logger, "connection closed", c.endpoint, ev.Kind.String())

	case transport.EventError:
		c.setState(transport.StateError, ev.Err)
		c.logger.Error("connection error",
			zap.String("endpoint", c.endpoint),
			zap.Error(ev.Err),
		)

	case transport.EventMessage:
		c.applyTelemetry(ev.Data)
	}
}

func (c *Controller) setState(state transport.State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = state
	switch state {
	case transport.StateOpen:
		c.lastErr = nil
	case transport.StateError:
		c.lastErr = err
	}

	close(c.stateCh)
	c.stateCh = make(chan struct{})
}

func (c *Controller) applyTelemetry(data []byte) {
	snap, err := protocol.DecodeSnapshot(data)
	if err != nil {
		c.mu.Lock()
		c.stats.DecodeErrors++
		c.mu.Unlock()

		c.logger.Error("telemetry rejected",
			append(logging.FrameFields("received", data), zap.Error(err))...,
		)
		return
	}

	c.mu.Lock()
	c.snapshot = snap
	c.stats.SnapshotsReceived++
	close(c.snapCh)
	c.snapCh = make(chan struct{})
	c.mu.Unlock()

	c.logger.Debug("snapshot updated", zap.Stringer("snapshot", snap))
}
