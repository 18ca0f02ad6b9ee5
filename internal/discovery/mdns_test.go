package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func newEntry(instance, host string, port int, v4, v6 []net.IP, txt []string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.AddrIPv4 = v4
	entry.AddrIPv6 = v6
	entry.Text = txt
	return entry
}

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
		wantEndpoint string
	}{
		{
			name: "controller with IPv4",
			entry: newEntry("tebot-desk", "raspberrypi.local.", 5000,
				[]net.IP{net.ParseIP("192.168.4.20")}, nil, []string{"path=/"}),
			wantInstance: "tebot-desk",
			wantIP:       "192.168.4.20",
			wantPort:     5000,
			wantEndpoint: "ws://192.168.4.20:5000/",
		},
		{
			name: "no port specified (should default to 5000)",
			entry: newEntry("tebot-lab", "lab.local.", 0,
				[]net.IP{net.ParseIP("10.0.0.5")}, nil, nil),
			wantInstance: "tebot-lab",
			wantIP:       "10.0.0.5",
			wantPort:     DefaultPort,
			wantEndpoint: "ws://10.0.0.5:5000/",
		},
		{
			name: "IPv6 only controller",
			entry: newEntry("tebot-v6", "v6.local.", 5000,
				nil, []net.IP{net.ParseIP("fe80::1")}, nil),
			wantInstance: "tebot-v6",
			wantIP:       "fe80::1",
			wantPort:     5000,
			wantEndpoint: "ws://[fe80::1]:5000/",
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: newEntry("tebot-dual", "dual.local.", 5000,
				[]net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}, nil),
			wantInstance: "tebot-dual",
			wantIP:       "192.168.1.50",
			wantPort:     5000,
			wantEndpoint: "ws://192.168.1.50:5000/",
		},
		{
			name: "no IP address",
			entry: newEntry("tebot-noip", "noip.local.", 5000,
				nil, nil, nil),
			wantNil: true,
		},
		{
			name: "empty instance",
			entry: newEntry("", "anon.local.", 5000,
				[]net.IP{net.ParseIP("192.168.1.1")}, nil, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			robot := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if robot != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", robot)
				}
				return
			}

			if robot == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil robot")
			}
			if robot.Instance != tt.wantInstance {
				t.Errorf("robot.Instance = %v, want %v", robot.Instance, tt.wantInstance)
			}
			if robot.IP != tt.wantIP {
				t.Errorf("robot.IP = %v, want %v", robot.IP, tt.wantIP)
			}
			if robot.Port != tt.wantPort {
				t.Errorf("robot.Port = %v, want %v", robot.Port, tt.wantPort)
			}
			if robot.Endpoint() != tt.wantEndpoint {
				t.Errorf("robot.Endpoint() = %v, want %v", robot.Endpoint(), tt.wantEndpoint)
			}
			if robot.Hostname != tt.entry.HostName {
				t.Errorf("robot.Hostname = %v, want %v", robot.Hostname, tt.entry.HostName)
			}
			if time.Since(robot.DiscoveredAt) > time.Second {
				t.Errorf("robot.DiscoveredAt is not recent: %v", robot.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := newEntry("tebot-sim", "sim.local.", 5000,
		[]net.IP{net.ParseIP("127.0.0.1")}, nil,
		[]string{"path=/", "version=1.0.0", "flag", "sim=true"})

	robot := scanner.parseServiceEntry(entry)
	if robot == nil {
		t.Fatal("parseServiceEntry() = nil, want robot")
	}

	expectedMetadata := map[string]string{
		"path":    "/",
		"version": "1.0.0",
		"flag":    "", // Key without value
		"sim":     "true",
	}

	if len(robot.Metadata) != len(expectedMetadata) {
		t.Errorf("robot.Metadata has %d entries, want %d", len(robot.Metadata), len(expectedMetadata))
	}
	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := robot.Metadata[key]; !ok {
			t.Errorf("robot.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("robot.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}
	if !robot.IsSimulator() {
		t.Error("IsSimulator() = false, want true")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestAdvertisement_ShutdownNil(t *testing.T) {
	var ad *Advertisement
	ad.Shutdown()
	(&Advertisement{}).Shutdown()
}

// Note: live mDNS discovery needs multicast networking and is exercised
// manually with tebot-sim --advertise and tebotctl scan.
