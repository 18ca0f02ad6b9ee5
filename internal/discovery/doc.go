// Package discovery provides mDNS-based discovery of TeBot robot controllers.
//
// Controllers (and the tebot-sim simulator) advertise themselves as
// "_tebot._tcp" services. A scan browses for that service type and turns each
// answer into a Robot with a ready-to-use WebSocket endpoint.
//
// # Discovery Process
//
//  1. Broadcasts mDNS queries for _tebot._tcp.local.
//  2. Collects answers until the timeout, keeping one entry per instance
//  3. Builds ws://ip:port/path endpoints (path from the "path" TXT record)
//  4. Returns the robots sorted by instance name
//
// # Usage Example
//
//	robots, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, robot := range robots {
//	    fmt.Printf("%s -> %s\n", robot.Instance, robot.Endpoint())
//	}
//
// # Advertising
//
// Advertise registers a controller so scanners can find it:
//
//	ad, err := discovery.Advertise("tebot-sim", 5000, map[string]string{"path": "/", "sim": "true"})
//	defer ad.Shutdown()
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Controllers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
