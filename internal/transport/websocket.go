package transport

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tebot-dev/tebot/internal/logging"
)

const (
	// DefaultHandshakeTimeout bounds the TCP dial plus WebSocket upgrade
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultWriteTimeout bounds a single frame write
	DefaultWriteTimeout = 5 * time.Second

	// closeGrace bounds writing the close control frame
	closeGrace = time.Second
)

// WebSocket is an Adapter backed by a gorilla/websocket client connection.
//
// Each Open after Closed or Error dials a fresh connection. Events for a
// connection that has been superseded (closed locally or reopened) are
// dropped, so every connection produces at most one terminal event.
type WebSocket struct {
	dialer           *websocket.Dialer
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	pingPeriod       time.Duration
	logger           *zap.Logger

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	connID   string
	endpoint string
	gen      uint64 // bumped whenever the current connection is superseded
	handlers []Handler

	writeMu sync.Mutex
	eventMu sync.Mutex // serializes handler delivery
}

// Option configures a WebSocket adapter
type Option func(*WebSocket)

// WithHandshakeTimeout sets the dial and upgrade timeout
func WithHandshakeTimeout(d time.Duration) Option {
	return func(w *WebSocket) {
		if d > 0 {
			w.handshakeTimeout = d
		}
	}
}

// WithWriteTimeout sets the per-frame write deadline (0 disables it)
func WithWriteTimeout(d time.Duration) Option {
	return func(w *WebSocket) {
		w.writeTimeout = d
	}
}

// WithPingPeriod enables keepalive pings at the given period (0 disables them).
// When enabled, a connection with no pong for two periods fails with a timeout.
func WithPingPeriod(d time.Duration) Option {
	return func(w *WebSocket) {
		w.pingPeriod = d
	}
}

// WithLogger sets the logger used for transport reports
func WithLogger(l *zap.Logger) Option {
	return func(w *WebSocket) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDialer replaces the gorilla dialer (e.g. for proxies or TLS settings)
func WithDialer(d *websocket.Dialer) Option {
	return func(w *WebSocket) {
		if d != nil {
			w.dialer = d
		}
	}
}

// NewWebSocket creates a closed WebSocket adapter
func NewWebSocket(opts ...Option) *WebSocket {
	w := &WebSocket{
		dialer:           &websocket.Dialer{},
		handshakeTimeout: DefaultHandshakeTimeout,
		writeTimeout:     DefaultWriteTimeout,
		logger:           logging.Named("transport"),
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the adapter's current state
func (w *WebSocket) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Endpoint returns the endpoint of the last Open call
func (w *WebSocket) Endpoint() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.endpoint
}

// ConnID returns the identifier of the current connection ("" when none)
func (w *WebSocket) ConnID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.connID
}

// Subscribe registers a handler for all subsequent events
func (w *WebSocket) Subscribe(h Handler) {
	if h == nil {
		return
	}
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Open starts connecting to endpoint in the background.
//
// While connecting or open this is a no-op that logs a notice. A malformed
// endpoint is rejected synchronously: the adapter moves to StateError, raises
// EventError and returns the same *TransportError. Otherwise the adapter moves
// to StateConnecting, raises EventConnecting and returns; the dial outcome
// arrives later as EventOpen or EventError.
func (w *WebSocket) Open(ctx context.Context, endpoint string) error {
	w.mu.Lock()
	if w.state == StateConnecting || w.state == StateOpen {
		state := w.state
		w.mu.Unlock()
		w.logger.Info("open skipped: connection already "+state.String(),
			zap.String("endpoint", endpoint),
		)
		return nil
	}

	if err := validateEndpoint(endpoint); err != nil {
		w.gen++
		w.state = StateError
		w.endpoint = endpoint
		w.connID = ""
		w.mu.Unlock()

		w.logger.Error("open rejected: bad endpoint",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		w.emit(Event{Kind: EventError, Err: err})
		return err
	}

	w.gen++
	gen := w.gen
	w.state = StateConnecting
	w.endpoint = endpoint
	w.connID = ""
	w.mu.Unlock()

	w.logger.Info("connecting", zap.String("endpoint", endpoint))
	w.emit(Event{Kind: EventConnecting})

	go w.dial(ctx, gen, endpoint)
	return nil
}

func (w *WebSocket) dial(ctx context.Context, gen uint64, endpoint string) {
	dialCtx, cancel := context.WithTimeout(ctx, w.handshakeTimeout)
	defer cancel()

	conn, resp, err := w.dialer.DialContext(dialCtx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	if err != nil {
		w.state = StateError
		w.mu.Unlock()

		terr := ClassifyError("dial", err)
		w.logger.Error("connect failed",
			zap.String("endpoint", endpoint),
			zap.String("kind", terr.Kind.String()),
			zap.Error(err),
		)
		w.emit(Event{Kind: EventError, Err: terr})
		return
	}

	connID := uuid.NewString()
	w.conn = conn
	w.connID = connID
	w.state = StateOpen
	w.mu.Unlock()

	if w.pingPeriod > 0 {
		pongWait := 2 * w.pingPeriod
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	w.logger.Info("connected",
		zap.String("endpoint", endpoint),
		zap.String("conn_id", connID),
		zap.String("remote_addr", conn.RemoteAddr().String()),
	)
	w.emit(Event{Kind: EventOpen})

	go w.readLoop(gen, conn, connID)
	if w.pingPeriod > 0 {
		go w.keepAlive(gen, conn)
	}
}

// readLoop delivers inbound binary messages until the connection ends
func (w *WebSocket) readLoop(gen uint64, conn *websocket.Conn, connID string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			w.fail(gen, conn, "read", err)
			return
		}

		if !w.current(gen) {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			logging.LogFrame(w.logger, "frame received", "received", data, zap.String("conn_id", connID))
			if !w.emitFor(gen, Event{Kind: EventMessage, Data: data}) {
				return
			}
		default:
			logging.LogRawBytes(w.logger, "non-binary message ignored", data,
				zap.String("conn_id", connID),
				zap.Int("message_type", msgType),
			)
		}
	}
}

// keepAlive sends pings until the connection is superseded or a ping fails
func (w *WebSocket) keepAlive(gen uint64, conn *websocket.Conn) {
	ticker := time.NewTicker(w.pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if !w.current(gen) {
			return
		}
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.pingPeriod)); err != nil {
			w.fail(gen, conn, "ping", err)
			return
		}
	}
}

// fail ends the connection identified by gen after an I/O error.
// A clean close from the peer ends in StateClosed with EventClose; anything
// else ends in StateError with EventError.
func (w *WebSocket) fail(gen uint64, conn *websocket.Conn, op string, err error) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.gen++
	w.conn = nil
	connID := w.connID

	clean := websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
	if clean {
		w.state = StateClosed
	} else {
		w.state = StateError
	}
	w.mu.Unlock()

	_ = conn.Close()

	if clean {
		w.logger.Info("connection closed by peer", zap.String("conn_id", connID))
		w.emit(Event{Kind: EventClose})
		return
	}

	terr := ClassifyError(op, err)
	w.logger.Error("connection failed",
		zap.String("conn_id", connID),
		zap.String("kind", terr.Kind.String()),
		zap.Error(err),
	)
	w.emit(Event{Kind: EventError, Err: terr})
}

// Close shuts down an open connection gracefully.
// When not open it logs that the connection was not open and returns nil.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	if w.state != StateOpen || w.conn == nil {
		state := w.state
		w.mu.Unlock()
		w.logger.Info("close skipped: connection is not open",
			zap.String("state", state.String()),
		)
		return nil
	}

	conn := w.conn
	connID := w.connID
	w.conn = nil
	w.state = StateClosed
	w.gen++
	w.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	err := conn.Close()

	w.logger.Info("connection closed", zap.String("conn_id", connID))
	w.emit(Event{Kind: EventClose})

	if err != nil {
		return ClassifyError("close", err)
	}
	return nil
}

// Send writes frame as one binary message.
// The frame is dropped with *NotConnectedError unless the connection is open.
func (w *WebSocket) Send(frame []byte) error {
	w.mu.Lock()
	if w.state != StateOpen || w.conn == nil {
		state := w.state
		w.mu.Unlock()
		return &NotConnectedError{State: state}
	}
	conn := w.conn
	connID := w.connID
	gen := w.gen
	w.mu.Unlock()

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	if w.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		w.fail(gen, conn, "send", err)
		return ClassifyError("send", err)
	}

	logging.LogFrame(w.logger, "frame sent", "sent", frame, zap.String("conn_id", connID))
	return nil
}

func (w *WebSocket) current(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen == w.gen
}

// emit delivers ev to every handler, one event at a time
func (w *WebSocket) emit(ev Event) {
	w.deliver(0, false, ev)
}

// emitFor delivers ev only while the connection identified by gen is still
// current. It reports false when ev was dropped as stale.
func (w *WebSocket) emitFor(gen uint64, ev Event) bool {
	return w.deliver(gen, true, ev)
}

func (w *WebSocket) deliver(gen uint64, guarded bool, ev Event) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	w.eventMu.Lock()
	defer w.eventMu.Unlock()

	// Checked under eventMu so a Close that supersedes gen either delivers
	// its EventClose after ev or causes ev to be dropped.
	w.mu.Lock()
	if guarded && gen != w.gen {
		w.mu.Unlock()
		return false
	}
	handlers := make([]Handler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return true
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &TransportError{Op: "open", Kind: KindEndpoint, Err: err}
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return &TransportError{
			Op:   "open",
			Kind: KindEndpoint,
			Err:  fmt.Errorf("scheme %q is not ws or wss", u.Scheme),
		}
	}
	if u.Host == "" {
		return &TransportError{
			Op:   "open",
			Kind: KindEndpoint,
			Err:  fmt.Errorf("endpoint %q has no host", endpoint),
		}
	}
	return nil
}
