package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tebot-dev/tebot/internal/device"
	"github.com/tebot-dev/tebot/internal/logging"
)

// CurrentVersion is the config file schema version
const CurrentVersion = 1

// Default values applied to new and partially filled configs
const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultDiscoveryTimeout = 5 * time.Second
)

// Config represents the entire user configuration file.
type Config struct {
	Version          int               `yaml:"version"`
	Endpoint         string            `yaml:"endpoint"`                // Robot controller URI used when --endpoint is not given
	HandshakeTimeout time.Duration     `yaml:"handshake_timeout"`       // Dial plus WebSocket upgrade
	WriteTimeout     time.Duration     `yaml:"write_timeout"`           // Per-frame write deadline
	PingInterval     time.Duration     `yaml:"ping_interval,omitempty"` // Keepalive ping period, 0 disables
	StepPolicy       string            `yaml:"step_policy"`             // "clamp" or "reject"
	LogLevel         string            `yaml:"log_level,omitempty"`     // Empty means silent unless TEBOT_LOG_LEVEL is set
	Discovery        *Discovery        `yaml:"discovery,omitempty"`
	Robots           map[string]*Robot `yaml:"robots,omitempty"` // Keyed by user-chosen name
}

// Discovery holds mDNS scan preferences.
type Discovery struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Robot is a remembered robot controller.
type Robot struct {
	Endpoint string    `yaml:"endpoint"`
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
}

// Default creates a Config with default values.
func Default() *Config {
	return &Config{
		Version:          CurrentVersion,
		Endpoint:         device.DefaultEndpoint,
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		StepPolicy:       device.StepClamp.String(),
		Discovery:        &Discovery{Timeout: DefaultDiscoveryTimeout},
		Robots:           make(map[string]*Robot),
	}
}

// applyDefaults fills zero values left by a partial config file
func (c *Config) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = device.DefaultEndpoint
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.StepPolicy == "" {
		c.StepPolicy = device.StepClamp.String()
	}
	if c.Discovery == nil {
		c.Discovery = &Discovery{}
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = DefaultDiscoveryTimeout
	}
	if c.Robots == nil {
		c.Robots = make(map[string]*Robot)
	}
}

// Validate checks field values. It does not touch the network.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if err := ValidateEndpoint(c.Endpoint); err != nil {
		return err
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake_timeout must not be negative: %s", c.HandshakeTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must not be negative: %s", c.WriteTimeout)
	}
	if c.PingInterval < 0 {
		return fmt.Errorf("ping_interval must not be negative: %s", c.PingInterval)
	}
	if _, err := device.ParseStepPolicy(c.StepPolicy); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.Discovery != nil && c.Discovery.Timeout < 0 {
		return fmt.Errorf("discovery timeout must not be negative: %s", c.Discovery.Timeout)
	}
	for name, robot := range c.Robots {
		if robot == nil {
			return fmt.Errorf("robot %q has no settings", name)
		}
		if err := ValidateEndpoint(robot.Endpoint); err != nil {
			return fmt.Errorf("robot %q: %w", name, err)
		}
	}
	return nil
}

// StepPolicyValue returns the parsed step policy (clamp when invalid)
func (c *Config) StepPolicyValue() device.StepPolicy {
	p, _ := device.ParseStepPolicy(c.StepPolicy)
	return p
}

// ValidateEndpoint checks that endpoint is a ws:// or wss:// URI with a host.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid endpoint %q: scheme must be ws or wss", endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	return nil
}

// GetRobot retrieves a remembered robot by name.
// Returns nil if the robot doesn't exist.
func (c *Config) GetRobot(name string) *Robot {
	return c.Robots[name]
}

// RememberRobot stores or updates a robot's endpoint and marks it seen now.
func (c *Config) RememberRobot(name, endpoint string) *Robot {
	if c.Robots == nil {
		c.Robots = make(map[string]*Robot)
	}

	robot, exists := c.Robots[name]
	if !exists {
		robot = &Robot{}
		c.Robots[name] = robot
	}
	robot.Endpoint = endpoint
	robot.LastSeen = time.Now()
	return robot
}

// ResolveEndpoint maps a remembered robot name to its endpoint.
// Anything that is not a known robot name is returned unchanged; an empty
// target resolves to the configured default endpoint.
func (c *Config) ResolveEndpoint(target string) string {
	if target == "" {
		return c.Endpoint
	}
	if robot := c.Robots[target]; robot != nil && robot.Endpoint != "" {
		return robot.Endpoint
	}
	return target
}
