package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Robot represents a discovered TeBot controller on the network
type Robot struct {
	// Instance is the advertised mDNS instance name (e.g., "tebot-desk")
	Instance string

	// Hostname is the mDNS hostname (e.g., "raspberrypi.local.")
	Hostname string

	// IP is the address used to build the endpoint (IPv4 preferred)
	IP string

	// Port is the WebSocket port (typically 5000)
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "path=/", "version=1.0.0", "sim=true"
	Metadata map[string]string

	// DiscoveredAt is when the robot was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the robot
func (r *Robot) String() string {
	return fmt.Sprintf("TeBot %s (%s) at %s", r.Instance, r.Hostname, r.Endpoint())
}

// Endpoint returns the WebSocket URI for the robot controller
func (r *Robot) Endpoint() string {
	path := r.GetMetadata(TxtPath)
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + net.JoinHostPort(r.IP, strconv.Itoa(r.Port)) + path
}

// IsSimulator reports whether the controller advertised itself as a simulator
func (r *Robot) IsSimulator() bool {
	return r.GetMetadata(TxtSimulator) == "true"
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (r *Robot) GetMetadata(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
