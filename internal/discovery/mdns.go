package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/tebot-dev/tebot/internal/logging"
)

const (
	// ServiceType is the mDNS service type advertised by TeBot controllers
	ServiceType = "_tebot._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for robot discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default WebSocket port for TeBot controllers
	DefaultPort = 5000
)

// TXT record keys
const (
	TxtPath      = "path"
	TxtVersion   = "version"
	TxtSimulator = "sim"
)

// Scanner handles mDNS robot discovery
type Scanner struct {
	// Timeout is the maximum time to wait for robot discovery
	Timeout time.Duration

	logger *zap.Logger
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		logger:  logging.Named("discovery"),
	}
}

// Scan discovers all TeBot controllers on the local network.
// It browses until the scanner timeout or ctx ends and returns the robots
// found, sorted by instance name.
func (s *Scanner) Scan(ctx context.Context) ([]*Robot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	found := make(map[string]*Robot)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				robot := s.parseServiceEntry(entry)
				if robot == nil {
					continue
				}
				mu.Lock()
				if _, seen := found[robot.Instance]; !seen {
					s.logger.Debug("robot discovered",
						zap.String("instance", robot.Instance),
						zap.String("endpoint", robot.Endpoint()),
					)
				}
				found[robot.Instance] = robot
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()

	robots := make([]*Robot, 0, len(found))
	for _, robot := range found {
		robots = append(robots, robot)
	}
	sort.Slice(robots, func(i, j int) bool {
		return robots[i].Instance < robots[j].Instance
	})

	s.logger.Info("scan finished", zap.Int("robots", len(robots)))
	return robots, nil
}

// WaitForRobot waits for a specific controller by instance name.
// Returns the robot or an error if not found within the timeout.
func (s *Scanner) WaitForRobot(ctx context.Context, instance string) (*Robot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	robotChan := make(chan *Robot, 1)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				robot := s.parseServiceEntry(entry)
				if robot != nil && robot.Instance == instance {
					robotChan <- robot
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case robot := <-robotChan:
		return robot, nil
	case <-ctx.Done():
		select {
		case robot := <-robotChan:
			return robot, nil
		default:
		}
		return nil, fmt.Errorf("robot %q not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Robot
// Returns nil if the entry has no instance name or no usable address
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Robot {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Robot{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan for robots with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Robot, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}

// Advertisement is a running mDNS registration of a controller
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise registers a controller under ServiceType so scanners can find it.
// Call Shutdown on the returned Advertisement to withdraw it.
func Advertise(instance string, port int, txt map[string]string) (*Advertisement, error) {
	records := make([]string, 0, len(txt))
	for k, v := range txt {
		records = append(records, k+"="+v)
	}
	sort.Strings(records)

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, records, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the advertisement
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}
