package sim

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tebot-dev/tebot/internal/device"
	"github.com/tebot-dev/tebot/internal/logging"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/transport"
)

const testWait = 2 * time.Second

func startTestServer(t *testing.T, cfg *Config) (*Server, string) {
	t.Helper()
	srv := New(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
}

func dial(t *testing.T, endpoint string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", endpoint, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame []byte) {
	t.Helper()
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write % x: %v", frame, err)
	}
}

func readSnapshot(t *testing.T, conn *websocket.Conn) protocol.SensorSnapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(testWait))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read telemetry: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("message type = %d, want binary", msgType)
	}
	snap, err := protocol.DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot(% x) error = %v", data, err)
	}
	return snap
}

// eventually polls cond until it holds or testWait elapses
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestServer_PushesTelemetry(t *testing.T) {
	_, endpoint := startTestServer(t, &Config{TelemetryInterval: 10 * time.Millisecond, ArenaSize: 200})
	conn := dial(t, endpoint)

	frame, _ := protocol.BuildMoveForward(10)
	send(t, conn, frame)

	deadline := time.Now().Add(testWait)
	for time.Now().Before(deadline) {
		snap := readSnapshot(t, conn)
		if snap.Channel(ChannelY) == 110 {
			return
		}
	}
	t.Fatal("telemetry never reflected the forward move")
}

func TestServer_UltrasonicRequestAnswered(t *testing.T) {
	srv, endpoint := startTestServer(t, &Config{ArenaSize: 200})
	conn := dial(t, endpoint)

	send(t, conn, protocol.BuildRequestUltrasonic())
	snap := readSnapshot(t, conn)

	if got := snap.Channel(ChannelDistance); got != 100 {
		t.Errorf("distance = %d, want 100", got)
	}
	if srv.Robot().State().Commands != 1 {
		t.Errorf("Commands = %d, want 1", srv.Robot().State().Commands)
	}
}

func TestServer_IgnoresMalformedFrames(t *testing.T) {
	srv, endpoint := startTestServer(t, &Config{ArenaSize: 200})
	conn := dial(t, endpoint)

	send(t, conn, []byte{0x05})
	send(t, conn, []byte{0x01})
	send(t, conn, []byte{0x07, 0xFF, 0, 0, 0, 0})
	if err := conn.WriteMessage(websocket.TextMessage, []byte("forward")); err != nil {
		t.Fatal(err)
	}
	send(t, conn, protocol.BuildRequestUltrasonic())

	readSnapshot(t, conn)

	st := srv.Robot().State()
	if st.Commands != 1 {
		t.Errorf("Commands = %d, want 1 (malformed frames ignored)", st.Commands)
	}
	if st.Y != 100 {
		t.Errorf("Y = %d, want 100 (robot should not move)", st.Y)
	}
}

func TestServer_RateLimit(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logging.SetLogger(zap.New(core))
	defer logging.SetLogger(nil)

	srv, endpoint := startTestServer(t, &Config{MaxCommandRate: 1, ArenaSize: 200})
	conn := dial(t, endpoint)

	for i := 0; i < 5; i++ {
		send(t, conn, protocol.BuildTurnRight())
	}

	eventually(t, "rate limit warnings", func() bool {
		return logs.FilterMessage("command rate exceeded, dropping command").Len() == 4
	})

	if got := srv.Robot().State().Commands; got != 1 {
		t.Errorf("Commands = %d, want 1", got)
	}
	if got := srv.Robot().State().Heading; got != East {
		t.Errorf("Heading = %s, want east", got)
	}
}

func TestServer_TracksConnections(t *testing.T) {
	srv, endpoint := startTestServer(t, &Config{ArenaSize: 200})
	conn := dial(t, endpoint)

	eventually(t, "connection registration", func() bool {
		return srv.GetActiveConnections() == 1
	})

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	eventually(t, "connection removal", func() bool {
		return srv.GetActiveConnections() == 0
	})
}

func TestServer_ShutdownRefusesNewSessions(t *testing.T) {
	srv, endpoint := startTestServer(t, &Config{TelemetryInterval: 10 * time.Millisecond, ArenaSize: 200})
	first := dial(t, endpoint)

	eventually(t, "connection registration", func() bool {
		return srv.GetActiveConnections() == 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), testWait)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Shutdown() waited for the full timeout")
	}
	if got := srv.GetActiveConnections(); got != 0 {
		t.Errorf("GetActiveConnections() after shutdown = %d, want 0", got)
	}

	for name, conn := range map[string]*websocket.Conn{"existing": first, "late": dial(t, endpoint)} {
		_ = conn.SetReadDeadline(time.Now().Add(testWait))
		var err error
		for err == nil {
			_, _, err = conn.ReadMessage()
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("%s connection ended with %v, want going away", name, err)
		}
	}
	if got := srv.GetActiveConnections(); got != 0 {
		t.Errorf("GetActiveConnections() after late dial = %d, want 0", got)
	}
}

func TestServer_DriverEndToEnd(t *testing.T) {
	srv, endpoint := startTestServer(t, &Config{TelemetryInterval: 10 * time.Millisecond, ArenaSize: 200})

	ctrl := device.NewController(transport.NewWebSocket(), device.WithEndpoint(endpoint))

	ctx, cancel := context.WithTimeout(context.Background(), testWait)
	defer cancel()

	if err := ctrl.OpenConnection(ctx); err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	if err := ctrl.AwaitConnected(ctx); err != nil {
		t.Fatalf("AwaitConnected() error = %v", err)
	}

	if err := ctrl.MoveForward(95); err != nil {
		t.Fatalf("MoveForward() error = %v", err)
	}
	if err := ctrl.DisplayMatrix("00100:01110:11111:01110:00100"); err != nil {
		t.Fatalf("DisplayMatrix() error = %v", err)
	}

	for ctrl.ReadIR() != 1 {
		if _, err := ctrl.AwaitSnapshot(ctx); err != nil {
			t.Fatalf("IR never reported the wall: %v", err)
		}
	}

	want, _ := protocol.EncodeMatrix("00100:01110:11111:01110:00100")
	eventually(t, "matrix update", func() bool {
		return srv.Robot().State().Matrix == want
	})

	if err := ctrl.CloseConnection(); err != nil {
		t.Fatalf("CloseConnection() error = %v", err)
	}
	if ctrl.IsConnected() {
		t.Error("IsConnected() = true after close")
	}
	eventually(t, "server-side close", func() bool {
		return srv.GetActiveConnections() == 0
	})
}

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(0)
	for i := 0; i < 100; i++ {
		if !unlimited.Allow() {
			t.Fatal("unlimited limiter refused a command")
		}
	}

	limited := newLimiter(2)
	allowed := 0
	for i := 0; i < 10; i++ {
		if limited.Allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d commands in a burst, want 2", allowed)
	}
}
