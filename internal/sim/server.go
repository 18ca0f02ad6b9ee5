package sim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tebot-dev/tebot/internal/discovery"
	"github.com/tebot-dev/tebot/internal/logging"
	"github.com/tebot-dev/tebot/internal/protocol"
	"github.com/tebot-dev/tebot/internal/version"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 5 * time.Second

	// Maximum message size accepted from a client
	maxMessageSize = 64

	// DefaultPort matches the driver's default endpoint
	DefaultPort = 5000

	// DefaultTelemetryInterval is how often snapshots are pushed
	DefaultTelemetryInterval = 500 * time.Millisecond

	// DefaultInstance is the mDNS instance name used when advertising
	DefaultInstance = "tebot-sim"
)

// Config holds the simulator configuration
type Config struct {
	Host              string
	Port              int
	TelemetryInterval time.Duration // 0 disables periodic telemetry
	MaxCommandRate    float64       // Commands per second per connection, 0 = unlimited
	ArenaSize         int
	IRThreshold       int
	Advertise         bool   // Register the simulator over mDNS
	Instance          string // mDNS instance name
}

// DefaultConfig returns the configuration used by tebot-sim without flags
func DefaultConfig() *Config {
	return &Config{
		Port:              DefaultPort,
		TelemetryInterval: DefaultTelemetryInterval,
		ArenaSize:         DefaultArenaSize,
		IRThreshold:       DefaultIRThreshold,
		Instance:          DefaultInstance,
	}
}

// Server is a simulated robot controller speaking the TeBot wire protocol.
// All connections drive the same simulated robot.
type Server struct {
	config   *Config
	robot    *Robot
	logger   *zap.Logger
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	advert     *discovery.Advertisement

	wg          sync.WaitGroup
	mu          sync.Mutex
	activeConns map[string]*session
	closing     bool // set by Shutdown; new sessions are refused
}

// New creates a new Server instance
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		config: config,
		robot:  NewRobot(config.ArenaSize, config.IRThreshold),
		logger: logging.Named("sim"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		activeConns: make(map[string]*session),
	}
}

// Robot returns the simulated robot
func (s *Server) Robot() *Robot {
	return s.robot
}

// Handler returns the WebSocket handler served at "/"
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	return mux
}

// Start listens on Host:Port and serves until ctx ends
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting TeBot simulator",
		zap.String("addr", listener.Addr().String()),
		zap.Duration("telemetry_interval", s.config.TelemetryInterval),
		zap.Float64("max_command_rate", s.config.MaxCommandRate),
	)

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		advert, err := discovery.Advertise(s.config.Instance, port, map[string]string{
			discovery.TxtPath:      "/",
			discovery.TxtVersion:   version.Version,
			discovery.TxtSimulator: "true",
		})
		if err != nil {
			s.logger.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.advert = advert
			s.logger.Info("Advertising over mDNS",
				zap.String("instance", s.config.Instance),
				zap.String("service", discovery.ServiceType),
			)
		}
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown requested, stopping simulator...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Addr returns the listening address once Start has bound it
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting connections and closes active sessions
func (s *Server) Shutdown(ctx context.Context) error {
	s.advert.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Error stopping HTTP server", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.closing = true
	for id, sess := range s.activeConns {
		s.logger.Info("Closing active connection", zap.String("conn_id", id))
		sess.close(websocket.CloseGoingAway, "simulator shutting down")
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All connections closed gracefully")
	case <-ctx.Done():
		s.logger.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// GetActiveConnections returns the number of active connections
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.activeConns)
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := &session{
		id:      uuid.NewString(),
		conn:    conn,
		limiter: newLimiter(s.config.MaxCommandRate),
		logger:  s.logger,
		done:    make(chan struct{}),
	}

	// Hijacked connections are invisible to http.Server.Shutdown, so the
	// session is registered with wg under mu before Shutdown can wait.
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		s.logger.Info("connection refused: simulator shutting down",
			zap.String("remote_addr", r.RemoteAddr),
		)
		sess.close(websocket.CloseGoingAway, "simulator shutting down")
		return
	}
	s.activeConns[sess.id] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		sess.close(websocket.CloseNormalClosure, "")
		s.mu.Lock()
		delete(s.activeConns, sess.id)
		s.mu.Unlock()
		s.wg.Done()
		s.logger.Info("connection closed", zap.String("conn_id", sess.id))
	}()

	s.logger.Info("connection accepted",
		zap.String("conn_id", sess.id),
		zap.String("remote_addr", r.RemoteAddr),
	)

	if s.config.TelemetryInterval > 0 {
		go s.pushTelemetry(sess)
	}
	s.readCommands(sess)
}

// readCommands applies inbound command frames until the client goes away
func (s *Server) readCommands(sess *session) {
	sess.conn.SetReadLimit(maxMessageSize)

	for {
		msgType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("connection ended unexpectedly",
					zap.String("conn_id", sess.id),
					zap.Error(err),
				)
			}
			return
		}

		if msgType != websocket.BinaryMessage {
			s.logger.Warn("ignoring non-binary message",
				zap.String("conn_id", sess.id),
				zap.Int("message_type", msgType),
			)
			continue
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			s.logger.Warn("ignoring malformed command",
				append(logging.FrameFields("received", data),
					zap.String("conn_id", sess.id),
					zap.Error(err),
				)...,
			)
			continue
		}

		if !sess.limiter.Allow() {
			s.logger.Warn("command rate exceeded, dropping command",
				zap.String("conn_id", sess.id),
				zap.Stringer("command", cmd),
			)
			continue
		}

		s.robot.Apply(cmd)
		state := s.robot.State()
		s.logger.Info("command applied",
			zap.String("conn_id", sess.id),
			zap.Stringer("command", cmd),
			zap.Int("x", state.X),
			zap.Int("y", state.Y),
			zap.Stringer("heading", state.Heading),
		)

		// An ultrasonic request is answered with an immediate snapshot
		if cmd.Op == protocol.OpRequestUltrasonic {
			if err := sess.write(s.robot.Snapshot()); err != nil {
				return
			}
		}
	}
}

// pushTelemetry sends a snapshot every interval until the session ends
func (s *Server) pushTelemetry(sess *session) {
	ticker := time.NewTicker(s.config.TelemetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sess.write(s.robot.Snapshot()); err != nil {
				return
			}
		case <-sess.done:
			return
		}
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// session is one client connection
type session struct {
	id      string
	conn    *websocket.Conn
	limiter *rate.Limiter
	logger  *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// write sends one telemetry snapshot as a binary message
func (sess *session) write(snap protocol.SensorSnapshot) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteMessage(websocket.BinaryMessage, snap.Bytes()); err != nil {
		sess.logger.Debug("telemetry write failed",
			zap.String("conn_id", sess.id),
			zap.Error(err),
		)
		return err
	}

	logging.LogFrame(sess.logger, "telemetry sent", "sent", snap.Bytes(), zap.String("conn_id", sess.id))
	return nil
}

// close sends a close frame once and releases the socket
func (sess *session) close(code int, text string) {
	sess.closeOnce.Do(func() {
		close(sess.done)

		sess.writeMu.Lock()
		msg := websocket.FormatCloseMessage(code, text)
		_ = sess.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		sess.writeMu.Unlock()

		_ = sess.conn.Close()
	})
}
